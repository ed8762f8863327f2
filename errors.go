package courseprice

import (
	"errors"

	"github.com/xraph/courseprice/meta"
	"github.com/xraph/courseprice/store"
	"github.com/xraph/courseprice/types"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrNotFound is returned by stores for unknown objects. The engine
	// itself treats a missing object as a course with nothing configured.
	ErrNotFound = store.ErrNotFound

	// ErrInvalidDate wraps every malformed ISO date, in metadata or input.
	ErrInvalidDate = types.ErrInvalidDate

	ErrInvalidConfig    = errors.New("courseprice: invalid configuration")
	ErrEngineStopped    = errors.New("courseprice: engine stopped")
	ErrMissingProductID = errors.New("courseprice: product or variation id required")
)

// ValidationError reports a malformed metadata value.
type ValidationError = meta.ValidationError

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err carries a ValidationError or a
// malformed date.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidDate)
}
