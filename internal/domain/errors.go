package domain

import "errors"

// Error is a domain failure with a stable machine code.
// Lifecycle errors belong to one of the broad classes below, so
// errors.Is(ErrCompetitionFull, ErrConflict) holds.
type Error struct {
	Code    string // Code sent to clients in the "code" field
	Message string // Default human readable message
	class   *Error
}

func (e *Error) Error() string { return e.Message }

// Is matches the error's class
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.class != nil && e.class == t
}

// Class returns the broad class of e (itself for a class)
func (e *Error) Class() *Error {
	if e.class == nil {
		return e
	}
	return e.class
}

// Error classes
var (
	ErrUnauthenticated = &Error{Code: "unauthenticated", Message: "authentication required"}
	ErrForbidden       = &Error{Code: "forbidden", Message: "not allowed for this account"}
	ErrNotFound        = &Error{Code: "not_found", Message: "record not found"}
	ErrValidation      = &Error{Code: "validation_error", Message: "invalid request"}
	ErrConflict        = &Error{Code: "conflict", Message: "request conflicts with current state"}
	ErrServer          = &Error{Code: "server_error", Message: "something went wrong, please try again later"}
)

// Lifecycle errors
var (
	ErrAlreadyRegistered = &Error{Code: "already_registered", Message: "already registered for this competition", class: ErrConflict}
	ErrCompetitionFull   = &Error{Code: "competition_full", Message: "competition is full", class: ErrConflict}
	ErrInvalidState      = &Error{Code: "invalid_state", Message: "action not allowed in the registration's current state", class: ErrConflict}
	ErrMissingSlip       = &Error{Code: "missing_slip", Message: "payment slip image is required", class: ErrValidation}
)

var byCode = map[string]*Error{}

func init() {
	for _, e := range []*Error{
		ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrValidation, ErrConflict, ErrServer,
		ErrAlreadyRegistered, ErrCompetitionFull, ErrInvalidState, ErrMissingSlip,
	} {
		byCode[e.Code] = e
	}
}

// ErrorByCode looks up a domain error by its wire code
func ErrorByCode(code string) (*Error, bool) {
	e, ok := byCode[code]
	return e, ok
}

// AsError extracts the domain error from err, or nil
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return nil
}
