package trivia

import (
	"errors"
	"fmt"
)

// Sentinel errors for the not-found family. Empty pages, empty search
// results and exhausted quiz pools are deliberately errors rather than
// empty successes; the transport maps them to 404.
var (
	ErrNotFound         = errors.New("not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// ValidationError reports malformed or missing input. It is always raised
// before any store mutation is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a store failure on a transactional operation. The
// cause is logged server-side and never echoed to the caller verbatim.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s", e.Op)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrCategoryNotFound)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
