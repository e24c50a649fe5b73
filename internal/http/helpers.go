package http

import (
	"errors"
	"net/http"
	"strings"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/export"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/store"
)

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// errorResponse maps service errors to API responses. Unknown errors are
// logged and hidden behind a generic 500.
func errorResponse(r *http.Request, err error) *ResponseBuilder {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, services.ErrEmptyPatch),
		errors.Is(err, export.ErrUnsupportedFormat):
		return BadRequestError(err.Error())
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return UnauthorizedError(err.Error())
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError("expense not found")
	case isValidationError(err):
		return UnprocessableEntityError(err.Error())
	}

	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldError, err)
	return InternalServerError()
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrUnknownCategory) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrDescriptionTooLong)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(r, err).Write(w)
}

// userID returns the authenticated user stored by the auth middleware.
func userID(r *http.Request) string {
	id, _ := auth.UserFromContext(r.Context())
	return id
}
