package filter

import (
	"fmt"
	"regexp"
	"sync"
)

// Filter scans text against an immutable, ordered rule table.
type Filter struct {
	rules          []compiledRule
	phoneDetection bool
}

type compiledRule struct {
	Rule
	patterns []*regexp.Regexp
}

type options struct {
	rules          []Rule
	extra          []Rule
	disabled       []string
	phoneDetection bool
}

// Option configures a Filter built by New.
type Option func(*options)

// WithRules replaces the built-in rule table.
func WithRules(rules ...Rule) Option {
	return func(o *options) {
		o.rules = cloneRules(rules)
	}
}

// WithExtraRules appends rules after the base table. They are evaluated after
// every base rule and before phone detection.
func WithExtraRules(rules ...Rule) Option {
	return func(o *options) {
		o.extra = append(o.extra, cloneRules(rules)...)
	}
}

// WithoutRules removes rules by ID. Disabling RulePhoneNumber turns phone
// detection off.
func WithoutRules(ids ...string) Option {
	return func(o *options) {
		o.disabled = append(o.disabled, ids...)
	}
}

// WithPhoneDetection enables or disables the phone-number detector. It is
// enabled by default.
func WithPhoneDetection(enabled bool) Option {
	return func(o *options) {
		o.phoneDetection = enabled
	}
}

// New compiles a Filter. Without options it uses the built-in rule table with
// phone detection enabled. Invalid rules are reported as *RuleError.
func New(opts ...Option) (*Filter, error) {
	o := &options{
		rules:          BuiltinRules(),
		phoneDetection: true,
	}
	for _, opt := range opts {
		opt(o)
	}

	rules := append(o.rules, o.extra...)

	for _, id := range o.disabled {
		if id == RulePhoneNumber {
			o.phoneDetection = false
			continue
		}
		idx := indexRule(rules, id)
		if idx < 0 {
			return nil, &RuleError{RuleID: id, Cause: ErrUnknownRule}
		}
		rules = append(rules[:idx], rules[idx+1:]...)
	}

	f := &Filter{
		rules:          make([]compiledRule, 0, len(rules)),
		phoneDetection: o.phoneDetection,
	}

	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.ID] {
			return nil, &RuleError{RuleID: r.ID, Cause: ErrDuplicateRule}
		}
		seen[r.ID] = true

		cr, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		f.rules = append(f.rules, cr)
	}

	return f, nil
}

func indexRule(rules []Rule, id string) int {
	for i, r := range rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func compileRule(r Rule) (compiledRule, error) {
	switch {
	case r.ID == "":
		return compiledRule{}, &RuleError{Cause: ErrEmptyRuleID}
	case r.ID == RulePhoneNumber:
		return compiledRule{}, &RuleError{RuleID: r.ID, Cause: fmt.Errorf("%w: reserved for phone detection", ErrDuplicateRule)}
	case !r.Category.Valid():
		return compiledRule{}, &RuleError{RuleID: r.ID, Cause: fmt.Errorf("%w %q", ErrUnknownCategory, r.Category)}
	case !r.Severity.Valid():
		return compiledRule{}, &RuleError{RuleID: r.ID, Cause: fmt.Errorf("%w %q", ErrUnknownSeverity, r.Severity)}
	case len(r.Patterns) == 0:
		return compiledRule{}, &RuleError{RuleID: r.ID, Cause: ErrNoPatterns}
	}

	cr := compiledRule{
		Rule:     r.clone(),
		patterns: make([]*regexp.Regexp, 0, len(r.Patterns)),
	}
	for _, p := range r.Patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return compiledRule{}, &RuleError{RuleID: r.ID, Pattern: p, Cause: err}
		}
		if re.MatchString("") {
			return compiledRule{}, &RuleError{RuleID: r.ID, Pattern: p, Cause: ErrEmptyMatch}
		}
		cr.patterns = append(cr.patterns, re)
	}
	return cr, nil
}

var defaultFilter = sync.OnceValue(func() *Filter {
	f, err := New()
	if err != nil {
		panic(fmt.Sprintf("filter: built-in rules do not compile: %v", err))
	}
	return f
})

// Default returns a shared Filter over the built-in rule table.
func Default() *Filter {
	return defaultFilter()
}

// Scan returns the first violation in text, or nil when the text is clean.
// Rules are tested in table order against the normalized text; the phone
// detector runs against the original text only when no rule matched.
func (f *Filter) Scan(text string) *Decision {
	if f == nil || text == "" {
		return nil
	}

	normalized := Normalize(text)
	for i := range f.rules {
		r := &f.rules[i]
		for _, re := range r.patterns {
			loc := re.FindStringIndex(normalized)
			if loc == nil {
				continue
			}
			return &Decision{
				RuleID:   r.ID,
				Category: r.Category,
				Severity: r.Severity,
				Label:    r.Label,
				Match:    normalized[loc[0]:loc[1]],
			}
		}
	}

	if f.phoneDetection {
		if match := findPhoneNumber(text); match != "" {
			return &Decision{
				RuleID:   RulePhoneNumber,
				Category: CategoryContactSharing,
				Severity: SeverityCritical,
				Label:    phoneLabel,
				Match:    match,
			}
		}
	}

	return nil
}

// Rules returns a copy of the active rule table in evaluation order.
func (f *Filter) Rules() []Rule {
	out := make([]Rule, len(f.rules))
	for i, r := range f.rules {
		out[i] = r.Rule.clone()
	}
	return out
}

// PhoneDetection reports whether the phone-number detector is enabled.
func (f *Filter) PhoneDetection() bool {
	return f.phoneDetection
}
