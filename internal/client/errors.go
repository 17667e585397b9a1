package client

import (
	"errors"   // Sentinel errors
	"net/http" // HTTP status codes

	"tournament_system/internal/domain" // Domain errors
)

// ErrBusy is returned when the same action on the same target is already in flight
var ErrBusy = errors.New("a request for this item is already in progress")

// APIError is a failed response from the server. Message is the server's
// message, unmodified. errors.Is matches the domain error for Code, or the
// class implied by Status when the code is unknown.
type APIError struct {
	Status  int    // HTTP status
	Code    string // Machine code from the body, may be empty
	Message string // Server message
}

func (e *APIError) Error() string { return e.Message }

// Unwrap exposes the matching domain error
func (e *APIError) Unwrap() error {
	if de, ok := domain.ErrorByCode(e.Code); ok {
		return de
	}
	return classForStatus(e.Status)
}

// classForStatus maps an HTTP status onto a domain error class
func classForStatus(status int) *domain.Error {
	switch status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return domain.ErrValidation
	}
	return domain.ErrServer
}
