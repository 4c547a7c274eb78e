package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a 32-char random id for rows that need no derived identity
// (audit log entries and the like).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
