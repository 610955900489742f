package filter

import (
	"strings"
	"unicode"
)

// leetspeak maps digits and symbols commonly used to disguise letters.
var leetspeak = map[rune]rune{
	'@': 'a',
	'4': 'a',
	'8': 'b',
	'3': 'e',
	'1': 'i',
	'!': 'i',
	'|': 'i',
	'0': 'o',
	'$': 's',
	'5': 's',
	'7': 't',
	'+': 't',
}

// Normalize prepares text for rule matching: it lower-cases the text, maps
// leetspeak characters to letters and collapses each run of whitespace into a
// single space. Leading and trailing whitespace is collapsed but not trimmed.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))

	inSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false

		if sub, ok := leetspeak[r]; ok {
			r = sub
		}
		b.WriteRune(r)
	}
	return b.String()
}
