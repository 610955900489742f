// Package filter classifies free text against an ordered table of content
// rules.
//
// A Filter holds a compiled, immutable rule table. Scan normalizes the input
// (lower-casing, leetspeak substitution, whitespace collapsing), tests every
// rule in priority order and returns the first match as a Decision. When no
// rule matches, an optional phone-number detector runs against the original,
// un-normalized text.
//
// # Rule Priority
//
// Built-in rules are evaluated most severe first:
//
//   - self-harm (critical)
//   - violent-threats (critical)
//   - hate-speech, hate-slurs-ethnic, hate-slurs-lgbt, hate-slurs-ableist (critical)
//   - explicit-profanity (high)
//   - sexual-content (high)
//   - mild-profanity (medium)
//   - phone-number (critical, only when nothing else matched)
//
// The first match wins; a Decision never merges categories.
//
// # Usage
//
//	f := filter.Default()
//	if d := f.Scan(bio); d != nil {
//		log.Warn("bio rejected", "rule_id", d.RuleID, "category", d.Category)
//	}
//
// Custom tables are built with New and functional options:
//
//	f, err := filter.New(
//		filter.WithoutRules("mild-profanity"),
//		filter.WithExtraRules(filter.Rule{...}),
//	)
//
// # Concurrency
//
// Scan has no side effects and reads only the immutable rule table, so one
// Filter can be shared by any number of goroutines. Patterns are compiled
// with Go's RE2 engine, which matches in time linear in the input length.
package filter
