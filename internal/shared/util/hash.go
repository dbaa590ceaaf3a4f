package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashStorageKey returns a filesystem-safe identifier for an arbitrary ID.
func HashStorageKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
