package benchmark

import "github.com/google/uuid"

// NewRunID mints a fresh benchmark run identifier.
func NewRunID() string {
	return uuid.NewString()
}
