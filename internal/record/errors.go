package record

import "errors"

var (
	// ErrValidation marks malformed or missing input fields.
	ErrValidation = errors.New("validation failed")

	// ErrStorage marks persistence failures. Callers surface it; retries,
	// if any, belong to the upstream request layer.
	ErrStorage = errors.New("storage unavailable")

	// ErrNotFound marks a lookup for an entity that does not exist.
	ErrNotFound = errors.New("not found")
)
