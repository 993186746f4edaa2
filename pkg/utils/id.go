package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a 32-char hex id for request tracing and cache keys.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
