package domain

import (
	"strings"

	"github.com/google/uuid"
)

const provisionalPrefix = "temp-"

// NewProvisionalID returns a local-only identifier for an optimistic record.
func NewProvisionalID() string {
	return provisionalPrefix + uuid.NewString()
}

// IsProvisional reports whether id was minted by NewProvisionalID.
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, provisionalPrefix)
}
