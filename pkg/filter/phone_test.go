package filter

import "testing"

func TestFindPhoneNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"uk mobile", "call me at 07911 123456", "07911 123456"},
		{"dashes", "ring 555-123-4567 later", "555-123-4567"},
		{"dots", "555.123.4567", "555.123.4567"},
		{"parentheses", "(555) 123-4567", "(555) 123-4567"},
		{"international", "+1 555 123 4567", "+1 555 123 4567"},
		{"plain digits", "07911123456", "07911123456"},
		{"age", "I'm 25", ""},
		{"short code", "code 12-34", ""},
		{"too few digits", "(555) 12", ""},
		{"skips short candidate", "(555) 12, or 07911 123456", "07911 123456"},
		{"no digits", "no numbers here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findPhoneNumber(tt.text); got != tt.want {
				t.Errorf("findPhoneNumber(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
