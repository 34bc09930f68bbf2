// Package fingerprint derives deduplication keys from chunk text.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize lowercases text and collapses runs of whitespace into single
// spaces. Two chunks that differ only in case or spacing normalize equal.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// FromText returns the hex SHA-256 of the normalized text. Same content always
// yields the same fingerprint, so it doubles as the record's stable ID.
func FromText(text string) string {
	hash := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(hash[:])
}
