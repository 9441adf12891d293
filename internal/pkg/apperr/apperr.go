package apperr

import "errors"

// Error kinds shared by every domain package. Match with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

// Error carries a kind, a caller-facing reason and an optional cause.
type Error struct {
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Validation(reason string) error { return &Error{Kind: ErrValidation, Reason: reason} }

func NotFound(reason string) error { return &Error{Kind: ErrNotFound, Reason: reason} }

func Conflict(reason string) error { return &Error{Kind: ErrConflict, Reason: reason} }

func Storage(reason string, err error) error {
	return &Error{Kind: ErrStorage, Reason: reason, Err: err}
}

// Reason returns the caller-facing reason of err, or its message.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return err.Error()
}
