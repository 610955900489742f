// Package policy loads rule-set files and publishes the active content filter.
//
// A rule-set file customizes the built-in rule table without changing how
// the filter scans:
//
//	phone_detection: true
//	disabled_rules: [mild-profanity]
//	rules:
//	  - id: off-platform-trading
//	    label: Arranging trades outside the app
//	    category: contact_sharing
//	    severity: high
//	    patterns: ['\b(?:dm|message)\s+me\s+on\s+(?:discord|telegram|whatsapp)\b']
//
// Rules listed in the file are appended after the built-in table unless
// replace is set, in which case they are the whole table.
//
// The Manager compiles a new immutable *filter.Filter on every load and
// swaps it in atomically, so Current never blocks and in-flight scans keep
// the filter they started with. A failed reload keeps the previous filter.
//
// Package policy/git sources the rule-set file from a Git repository.
package policy
