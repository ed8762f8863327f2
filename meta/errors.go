package meta

import "fmt"

// ValidationError reports a metadata value that is present but malformed.
// Only dates are validated; it wraps types.ErrInvalidDate.
type ValidationError struct {
	ObjectID string
	Field    string
	Value    string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("courseprice: validation failed for %s on object %s: %v", e.Field, e.ObjectID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
