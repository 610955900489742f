package recorder

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// MaxHashSize is the maximum number of bytes hashed from a submission.
const MaxHashSize = 1024 * 1024 // 1MB

// HashText returns the hex SHA-256 of text, hashing at most the first
// MaxHashSize bytes. It returns "" for empty text.
func HashText(text string) string {
	if text == "" {
		return ""
	}
	if len(text) > MaxHashSize {
		text = text[:MaxHashSize]
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Truncate shortens s to at most maxRunes runes, appending "..." when
// anything was cut. maxRunes <= 0 disables truncation.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
