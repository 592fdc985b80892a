package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeTransport    ErrorType = "TRANSPORT_ERROR"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeRequiredField    ErrorCode = "REQUIRED_FIELD"
	ErrCodePasswordTooShort ErrorCode = "PASSWORD_TOO_SHORT"
	ErrCodeInvalidUserID    ErrorCode = "INVALID_USER_ID"
	ErrCodeRejected         ErrorCode = "REQUEST_REJECTED"

	ErrCodeMissingToken   ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidToken   ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired   ErrorCode = "TOKEN_EXPIRED"
	ErrCodeAccessDenied   ErrorCode = "ACCESS_DENIED"
	ErrCodeUserInactive   ErrorCode = "USER_INACTIVE"
	ErrCodeBadCredentials ErrorCode = "INVALID_CREDENTIALS"

	ErrCodeUserNotFound  ErrorCode = "USER_NOT_FOUND"
	ErrCodeDuplicateUser ErrorCode = "DUPLICATE_USER"

	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamFailure     ErrorCode = "UPSTREAM_FAILURE"
	ErrCodeMalformedResponse   ErrorCode = "MALFORMED_RESPONSE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// GetDetailedMessage joins the distinct field messages, falling back to
// Message.
func (e *AppError) GetDetailedMessage() string {
	validationErrors, ok := e.Details.(ValidationErrors)
	if !ok || len(validationErrors.Errors) == 0 {
		return e.Message
	}
	seen := make(map[string]bool, len(validationErrors.Errors))
	messages := make([]string, 0, len(validationErrors.Errors))
	for _, fe := range validationErrors.Errors {
		if seen[fe.Message] {
			continue
		}
		seen[fe.Message] = true
		messages = append(messages, fe.Message)
	}
	return strings.Join(messages, "; ")
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithMessage returns a copy carrying msg, leaving shared sentinels untouched.
func (e *AppError) WithMessage(msg string) *AppError {
	cp := *e
	cp.Message = msg
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewTransportError covers network failures and 5xx answers from the records API.
func NewTransportError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTransport,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrMissingToken   = NewUnauthorizedError("Sesi tidak ditemukan, silakan login kembali", ErrCodeMissingToken)
	ErrInvalidToken   = NewUnauthorizedError("Token tidak valid", ErrCodeInvalidToken)
	ErrTokenExpired   = NewUnauthorizedError("Sesi telah berakhir, silakan login kembali", ErrCodeTokenExpired)
	ErrUserNotFound   = NewNotFoundError("User tidak ditemukan", ErrCodeUserNotFound)
	ErrDuplicateUser  = NewConflictError("Username atau email sudah digunakan", ErrCodeDuplicateUser)
	ErrBadCredentials = NewUnauthorizedError("Username atau password salah", ErrCodeBadCredentials)
	ErrUserInactive   = NewForbiddenError("Akun user tidak aktif", ErrCodeUserInactive)
)

// IsAppError unwraps err looking for an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func errorTypeOf(err error) ErrorType {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type
	}
	return ""
}

func IsValidation(err error) bool   { return errorTypeOf(err) == ErrorTypeValidation }
func IsUnauthorized(err error) bool { return errorTypeOf(err) == ErrorTypeUnauthorized }
func IsForbidden(err error) bool    { return errorTypeOf(err) == ErrorTypeForbidden }
func IsNotFound(err error) bool     { return errorTypeOf(err) == ErrorTypeNotFound }
func IsConflict(err error) bool     { return errorTypeOf(err) == ErrorTypeConflict }
func IsTransport(err error) bool    { return errorTypeOf(err) == ErrorTypeTransport }

// ErrorFromStatus classifies a failed records API answer. An empty message
// falls back to fallback.
func ErrorFromStatus(status int, message, fallback string) *AppError {
	if message == "" {
		message = fallback
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewValidationError(message, ErrCodeRejected)
	case status == http.StatusUnauthorized:
		return NewUnauthorizedError(message, ErrCodeInvalidToken)
	case status == http.StatusForbidden:
		return NewForbiddenError(message, ErrCodeAccessDenied)
	case status == http.StatusNotFound:
		return NewNotFoundError(message, ErrCodeUserNotFound)
	case status == http.StatusConflict:
		return NewConflictError(message, ErrCodeDuplicateUser)
	case status >= 500:
		return NewTransportError(message, ErrCodeUpstreamFailure, fmt.Errorf("records api returned status %d", status))
	case status >= 200 && status < 300:
		return NewValidationError(message, ErrCodeRejected)
	default:
		return NewTransportError(message, ErrCodeUpstreamFailure, fmt.Errorf("unexpected status %d", status))
	}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
