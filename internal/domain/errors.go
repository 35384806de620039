package domain

import "errors"

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrGenerationFailure  = errors.New("generation failure")
	ErrPersistenceFailure = errors.New("persistence failure")
)
