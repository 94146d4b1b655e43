// Package idgen mints the time-ordered ids spec.md §5 requires for every
// entity the control plane creates: UUIDv7, so lexicographic id order
// matches creation order within a millisecond-tolerant bound without a
// separate sequence column.
package idgen

import "github.com/google/uuid"

// New returns a new UUIDv7 string id.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the system entropy source is broken;
		// fall back to a random v4 rather than panic on a hot path.
		return uuid.New().String()
	}
	return id.String()
}
