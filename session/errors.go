package session

import "errors"

// Kind is a machine-readable classification of a core error. The facade
// counts errors by kind and the HTTP layer maps kinds to statuses.
type Kind string

const (
	KindInvalid           Kind = "invalid"
	KindExpired           Kind = "expired"
	KindAlreadyUsed       Kind = "already_used"
	KindNotAuthorised     Kind = "not_authorised"
	KindUnknownTarget     Kind = "unknown_target"
	KindInvalidTransition Kind = "invalid_transition"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindValidation        Kind = "validation"
)

// Error is the core error type. All failures returned by the orchestrator
// are of this type; nothing in the core is retried internally.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by kind so callers can test results against the
// sentinel values below with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrInvalidCode       = newError(KindInvalid, "invite code is not valid")
	ErrExpired           = newError(KindExpired, "invite code has expired")
	ErrAlreadyUsed       = newError(KindAlreadyUsed, "invite code was already redeemed")
	ErrNotAuthorised     = newError(KindNotAuthorised, "caller is not authorised")
	ErrUnknownTarget     = newError(KindUnknownTarget, "no such participant")
	ErrInvalidTransition = newError(KindInvalidTransition, "operation not allowed in current state")
	ErrCapacityExceeded  = newError(KindCapacityExceeded, "capacity exceeded")
	ErrValidation        = newError(KindValidation, "invalid argument")
)

// ErrorKind extracts the kind from any error produced by the core.
func ErrorKind(err error) (Kind, bool) {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Kind, true
	}
	return "", false
}
