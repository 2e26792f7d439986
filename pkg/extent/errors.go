// pkg/extent/errors.go

package extent

import "github.com/pkg/errors"

var (
	// ErrInvalidInput is returned for an empty disk map or a digit outside 0-9.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCapacityUnderflow reports a broken layout invariant: a move into a
	// full extent, a move out of an empty one, or a run of non-positive length.
	ErrCapacityUnderflow = errors.New("capacity underflow")
)
