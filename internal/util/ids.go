package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh random identifier for runs and ad-hoc facts.
func NewID() string { return uuid.NewString() }

// DeterministicID derives a stable identifier from the given parts. Agents
// that emit the same logical fact on every execution use it so re-emission
// hits the idempotent add path instead of creating duplicates.
func DeterministicID(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:8])
}
