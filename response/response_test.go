package response

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"roominventory/errors"
)

func TestStatusOf(t *testing.T) {
	tests := map[errors.ErrorCode]int{
		errors.ErrCodeValidation:       http.StatusBadRequest,
		errors.ErrCodeNotFound:         http.StatusNotFound,
		errors.ErrCodeConflict:         http.StatusConflict,
		errors.ErrCodeInvalidOperation: http.StatusUnprocessableEntity,
		errors.ErrCodeBusinessRule:     http.StatusUnprocessableEntity,
		errors.ErrCodeInternal:         http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusOf(code), code)
	}
}

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	retryable := errors.Internal("booking creation timed out", errors.ErrBookingTimeout)
	retryable.Retryable = true

	tests := []struct {
		name       string
		err        error
		status     int
		retryAfter string
	}{
		{"conflict", errors.Conflict("room taken").With("room", "101"), http.StatusConflict, ""},
		{"wrapped app error", fmt.Errorf("create: %w", errors.NotFound("booking", "b-1")), http.StatusNotFound, ""},
		{"plain error", assert.AnError, http.StatusInternalServerError, ""},
		{"retryable internal", retryable, http.StatusServiceUnavailable, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			FromError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
		})
	}
}
