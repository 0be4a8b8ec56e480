package dto

import (
	"net/http"

	"github.com/bookkeep/backend/internal/domain/shared"
)

// Error codes carried in HTTP error responses. Domain error codes map
// through unchanged so clients see one vocabulary.
const (
	ErrCodeValidation        = shared.CodeValidation
	ErrCodeNotFound          = shared.CodeNotFound
	ErrCodeInvalidTransition = shared.CodeInvalidTransition
	ErrCodeInternal          = shared.CodeInternal
	ErrCodeBadRequest        = "BAD_REQUEST"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeInvalidTransition: http.StatusUnprocessableEntity,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes report as internal server errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
