package contract

import "errors"

var (
	ErrAdapterUnavailable  = errors.New("adapter unavailable")
	ErrPreconditionMissing = errors.New("step precondition missing")
	ErrTooManyErrors       = errors.New("error budget exhausted")
	ErrEmptyQuery          = errors.New("query is empty")
	ErrValidation          = errors.New("validation failed")
)
