package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRuleID is returned for rules without an ID.
	ErrEmptyRuleID = errors.New("rule id is required")

	// ErrDuplicateRule is returned when two rules share an ID.
	ErrDuplicateRule = errors.New("duplicate rule id")

	// ErrNoPatterns is returned for rules with no patterns.
	ErrNoPatterns = errors.New("rule has no patterns")

	// ErrUnknownCategory is returned for rules with an unrecognized category.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownSeverity is returned for rules with an unrecognized severity.
	ErrUnknownSeverity = errors.New("unknown severity")

	// ErrEmptyMatch is returned for patterns that match the empty string and
	// would therefore flag every input.
	ErrEmptyMatch = errors.New("pattern matches empty text")

	// ErrUnknownRule is returned when disabling a rule ID that is not in the table.
	ErrUnknownRule = errors.New("unknown rule id")
)

// RuleError describes a rule that could not be compiled into a Filter.
type RuleError struct {
	RuleID  string // ID of the offending rule
	Pattern string // Offending pattern, empty when the rule itself is invalid
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("rule %q: pattern %q: %v", e.RuleID, e.Pattern, e.Cause)
	}
	return fmt.Sprintf("rule %q: %v", e.RuleID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RuleError) Unwrap() error {
	return e.Cause
}
