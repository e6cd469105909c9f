package response

import (
	"errors"
)

// Error is a domain error that carries the HTTP status it is reported with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// StatusOf returns the status of the first *Error in err's chain.
func StatusOf(err error) (int, bool) {
	var respErr *Error
	if errors.As(err, &respErr) {
		return respErr.Code, true
	}
	return 0, false
}
