// Package guard is the moderation service in front of the content filter.
//
// Moderator.Check caps the text length, scans with the current rule set,
// maps the decision to an action, and for violations records a moderation
// record and a strike against the author. Failures in recording never
// change the verdict.
package guard
