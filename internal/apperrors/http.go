package apperrors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the appropriate HTTP status code.
// This is the single boundary where the error taxonomy meets HTTP;
// handlers never inspect backend status codes directly.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrContentFiltered):
		return http.StatusBadRequest
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimedOut):
		return http.StatusGatewayTimeout
	default:
		// ErrSubmissionExhausted, ErrEmptyResult, ErrInternal and
		// anything unclassified are server-side failures.
		return http.StatusInternalServerError
	}
}
