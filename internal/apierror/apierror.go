package apierror

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrConflict          ErrorCode = "CONFLICT"
	ErrBadRequest        ErrorCode = "BAD_REQUEST"
	ErrInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrForbidden         ErrorCode = "FORBIDDEN"
	ErrInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrAccountFrozen     ErrorCode = "ACCOUNT_FROZEN"
	ErrTransient         ErrorCode = "TRANSIENT"
	ErrInternalServer    ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	if details != nil {
		logrus.Error(details)
	}
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CodeOf extracts the error code from an APIError, or ErrInternalServer for
// anything else.
func CodeOf(err error) ErrorCode {
	if apiErr, ok := err.(APIError); ok {
		return apiErr.Code
	}
	return ErrInternalServer
}

func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict, ErrInsufficientFunds, ErrAccountFrozen:
			return http.StatusConflict
		case ErrInvalidInput, ErrBadRequest:
			return http.StatusBadRequest
		case ErrUnauthorized:
			return http.StatusUnauthorized
		case ErrForbidden:
			return http.StatusForbidden
		case ErrTransient:
			return http.StatusServiceUnavailable
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
