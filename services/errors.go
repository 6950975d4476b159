package services

import (
	"context"
	stderrors "errors"

	"roominventory/errors"
	"roominventory/repository"
)

// wrapStoreError chuyển lỗi từ repository sang AppError
func wrapStoreError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.IsAppError(err) {
		return err
	}
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound(resource, id)
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		appErr := errors.Internal("operation timed out", err)
		appErr.Retryable = true
		return appErr
	}
	return errors.Internal("store unavailable", err)
}
