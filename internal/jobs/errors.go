package jobs

import "errors"

// ErrNotFound is returned for lookups of unknown job identifiers.
var ErrNotFound = errors.New("job not found")

// IsNotFound reports whether err indicates a missing job.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
