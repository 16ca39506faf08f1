package service

import (
	"strings"

	"github.com/google/uuid"
)

// newID returns prefix followed by 16 lowercase alphanumerics.
func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
