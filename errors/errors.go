package errors

import (
	"errors"
	"fmt"
)

// ErrorCode định nghĩa mã lỗi
type ErrorCode string

const (
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound         ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeConflict         ErrorCode = "RESOURCE_CONFLICT"
	ErrCodeInvalidOperation ErrorCode = "INVALID_OPERATION"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// AppError định nghĩa lỗi của ứng dụng.
// Details mang ngữ cảnh cho người gọi (phòng, khoảng ngày, chuyển trạng thái),
// Err là nguyên nhân nội bộ và không được lộ ra ngoài.
type AppError struct {
	Code      ErrorCode
	Message   string
	Err       error
	Details   map[string]string
	Retryable bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// With gắn thêm một cặp ngữ cảnh vào lỗi
func (e *AppError) With(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// NewAppError tạo một AppError mới
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Validation(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, nil)
}

func NotFound(resource, id string) *AppError {
	return NewAppError(ErrCodeNotFound, resource+" not found", nil).With(resource, id)
}

func Conflict(message string) *AppError {
	return NewAppError(ErrCodeConflict, message, nil)
}

func InvalidOperation(message string) *AppError {
	return NewAppError(ErrCodeInvalidOperation, message, nil)
}

func BusinessRule(message string) *AppError {
	return NewAppError(ErrCodeBusinessRule, message, nil)
}

func Internal(message string, err error) *AppError {
	return NewAppError(ErrCodeInternal, message, err)
}

// IsAppError kiểm tra xem error có phải là AppError không
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// GetAppError lấy AppError từ error, kể cả khi đã bị wrap
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode kiểm tra mã lỗi của err
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// CodeOf trả về mã lỗi, lỗi lạ được coi là INTERNAL_ERROR
func CodeOf(err error) ErrorCode {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return ErrCodeInternal
}

var (
	ErrRoomNotAvailable = errors.New("room not available")
	ErrBookingTimeout   = errors.New("booking creation timed out")
	ErrIdempotencyInUse = errors.New("idempotency key is being processed")
)
