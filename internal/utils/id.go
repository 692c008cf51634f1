package utils

import (
	"github.com/google/uuid"
)

// NewID returns a time-ordered unique identifier for stored records.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to a random UUID if the clock sequence is unavailable.
		return uuid.NewString()
	}
	return id.String()
}
