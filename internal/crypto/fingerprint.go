// Package crypto holds the primitives that keep PII unreadable at rest: the
// deterministic email fingerprint used as a lookup index and the AEAD field
// cipher used for the stored values.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Fingerprint returns the hex SHA-256 of the normalized email. It is unsalted
// on purpose so equal emails always land on the same unique index entry.
func Fingerprint(email string) string {
	sum := sha256.Sum256([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(sum[:])
}
