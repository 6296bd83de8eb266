package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByKind(t *testing.T) {
	err := NewServerError(http.StatusNotFound, "Bill not found")

	assert.True(t, errors.Is(err, ErrServer))
	assert.False(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestAppError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("fetch invoices: %w", NewNetworkError(cause))

	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 0, StatusOf(err))
}

func TestGetAppError(t *testing.T) {
	t.Run("AppError", func(t *testing.T) {
		appErr := GetAppError(fmt.Errorf("wrapped: %w", ErrNoPendingLogin))
		assert.Equal(t, KindNoPendingLogin, appErr.Kind)
		assert.Equal(t, http.StatusConflict, appErr.Code)
	})

	t.Run("PlainError", func(t *testing.T) {
		appErr := GetAppError(errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, appErr.Code)
		assert.Equal(t, "boom", appErr.Message)
	})
}

func TestNewFieldError(t *testing.T) {
	err := NewFieldError("bank_name", "Bank name is required for cheque payments")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, []FieldError{{Field: "bank_name", Message: "Bank name is required for cheque payments"}}, err.Errors)
}
