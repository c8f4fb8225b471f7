package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"holdings/internal/core"
	"holdings/internal/log"
	"holdings/internal/services"
	"holdings/internal/source"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// statusFor maps service and source errors onto HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, source.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidHolding),
		errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorType classifies err for the error_type log attribute.
func errorType(err error) string {
	switch statusFor(err) {
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusUnprocessableEntity:
		return log.ErrorTypeInvalidRecord
	case http.StatusBadRequest, http.StatusConflict, http.StatusRequestEntityTooLarge:
		return log.ErrorTypeValidation
	case http.StatusBadGateway:
		return log.ErrorTypeUpstream
	case http.StatusGatewayTimeout:
		return log.ErrorTypeTimeout
	default:
		return log.ErrorTypeInternal
	}
}

// publicMessage is the error text shown to clients. Internal failures are
// not described.
func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
