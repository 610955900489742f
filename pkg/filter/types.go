package filter

import "fmt"

// Category is the coarse classification of a violation, used for moderation
// routing and reporting.
type Category string

const (
	CategorySelfHarm       Category = "self_harm"
	CategoryViolence       Category = "violence"
	CategoryHateSpeech     Category = "hate_speech"
	CategoryProfanity      Category = "profanity"
	CategoryInappropriate  Category = "inappropriate"
	CategoryContactSharing Category = "contact_sharing"
)

// Categories returns every known category.
func Categories() []Category {
	return []Category{
		CategorySelfHarm,
		CategoryViolence,
		CategoryHateSpeech,
		CategoryProfanity,
		CategoryInappropriate,
		CategoryContactSharing,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Severity is the ordinal enforcement tier of a rule.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// Rank orders severities: critical > high > medium. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// ParseSeverity converts a string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q (want critical, high or medium)", s)
	}
	return sev, nil
}

// Rule is a named, categorized set of case-insensitive patterns. Patterns are
// evaluated in declaration order against normalized text.
type Rule struct {
	ID       string   `yaml:"id" json:"id"`
	Label    string   `yaml:"label" json:"label"`
	Category Category `yaml:"category" json:"category"`
	Severity Severity `yaml:"severity" json:"severity"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// clone returns a deep copy of r.
func (r Rule) clone() Rule {
	r.Patterns = append([]string(nil), r.Patterns...)
	return r
}

// Decision is the result of a successful rule match.
type Decision struct {
	// RuleID identifies the rule that matched.
	RuleID string `json:"rule_id"`

	// Category is copied from the matching rule.
	Category Category `json:"category"`

	// Severity is copied from the matching rule.
	Severity Severity `json:"severity"`

	// Label is the human-readable rule description.
	Label string `json:"label"`

	// Match is the substring that triggered the rule. For categorical rules it
	// is taken from the normalized text; for phone numbers it is the original
	// formatted substring.
	Match string `json:"match"`
}
