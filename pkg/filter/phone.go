package filter

import "regexp"

// minPhoneDigits is the fewest digits a candidate needs to count as a phone
// number. Shorter runs are ages, postcodes or short codes.
const minPhoneDigits = 7

// phonePattern matches an optional "+", then a digit or "(", then digits
// interleaved with spaces, parentheses, dots or hyphens, ending on a digit.
var phonePattern = regexp.MustCompile(`\+?[\d(][\d\s().\-]{6,}\d`)

const phoneLabel = "Sharing phone numbers is not allowed"

// findPhoneNumber returns the first phone-number-shaped substring of text with
// at least minPhoneDigits digits, or "" when there is none.
func findPhoneNumber(text string) string {
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		if countDigits(candidate) >= minPhoneDigits {
			return candidate
		}
	}
	return ""
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
