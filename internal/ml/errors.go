package ml

import "errors"

// Error kinds. Every error returned by the registry, the validator and the
// predictor matches exactly one of these with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("model not found")
	ErrLoadFailure     = errors.New("model load failure")
	ErrInference       = errors.New("inference error")
)

// Error carries a human-readable message for the caller together with its
// kind and, where there is one, the underlying cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf returns the kind of err, or nil if err did not originate here.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidArgument, ErrValidation, ErrNotFound, ErrLoadFailure, ErrInference} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
