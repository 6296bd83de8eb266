package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of its message so callers can
// match with errors.Is against the sentinel values below.
type Kind string

const (
	KindInvalidCredentials   Kind = "invalid_credentials"
	KindOTPRejected          Kind = "otp_rejected"
	KindNoPendingLogin       Kind = "no_pending_login"
	KindNetwork              Kind = "network_error"
	KindServer               Kind = "server_error"
	KindValidation           Kind = "validation_error"
	KindInvalidToken         Kind = "invalid_token"
	KindUnauthorized         Kind = "unauthorized"
	KindForbidden            Kind = "forbidden"
	KindNotFound             Kind = "not_found"
	KindBadRequest           Kind = "bad_request"
	KindSubmissionInProgress Kind = "submission_in_progress"
	KindInternal             Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Err     error        `json:"-"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Kind == "" {
		return false
	}
	return t.Kind == e.Kind
}

// Common errors
var (
	ErrInvalidCredentials   = &AppError{Code: http.StatusUnauthorized, Kind: KindInvalidCredentials, Message: "Invalid credentials"}
	ErrOTPRejected          = &AppError{Code: http.StatusUnauthorized, Kind: KindOTPRejected, Message: "Invalid or expired OTP"}
	ErrNoPendingLogin       = &AppError{Code: http.StatusConflict, Kind: KindNoPendingLogin, Message: "No pending login to verify"}
	ErrNetwork              = &AppError{Code: http.StatusBadGateway, Kind: KindNetwork, Message: "Unable to reach the server"}
	ErrServer               = &AppError{Code: http.StatusBadGateway, Kind: KindServer, Message: "Server error"}
	ErrValidation           = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Validation failed"}
	ErrInvalidToken         = &AppError{Code: http.StatusUnauthorized, Kind: KindInvalidToken, Message: "Session expired, please sign in again"}
	ErrUnauthorized         = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Not signed in"}
	ErrForbidden            = &AppError{Code: http.StatusForbidden, Kind: KindForbidden, Message: "You do not have access to this page"}
	ErrNotFound             = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrBadRequest           = &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Bad request"}
	ErrSubmissionInProgress = &AppError{Code: http.StatusConflict, Kind: KindSubmissionInProgress, Message: "A submission is already in progress"}
	ErrInternalServer       = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
)

// NewAppError creates a new application error
func NewAppError(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap returns a copy of base carrying err as its cause.
func Wrap(base *AppError, err error) *AppError {
	return &AppError{
		Code:    base.Code,
		Kind:    base.Kind,
		Message: base.Message,
		Errors:  base.Errors,
		Err:     err,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError creates a validation error for a single field
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNetworkError reports a request that never got a response
func NewNetworkError(err error) *AppError {
	return Wrap(ErrNetwork, err)
}

// NewServerError reports a non-2xx response. The upstream status is kept so
// it can be passed through to dashboard clients.
func NewServerError(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &AppError{
		Code:    status,
		Kind:    KindServer,
		Message: message,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// StatusOf returns the upstream status of a server error, or 0.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind == KindServer {
		return appErr.Code
	}
	return 0
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}
