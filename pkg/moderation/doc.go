// Package moderation defines the moderation record: the trace a filter
// violation leaves for moderator review.
//
// A record identifies the author, where the text was submitted, which rule
// matched and what the service did about it. The submitted text itself is
// never stored; only its SHA-256 hash and length are kept, and the matched
// substring is truncated and optionally masked.
//
// Subpackages:
//   - storage: memory and SQLite backends implementing Storage
//   - recorder: asynchronous recording from the moderation service
//   - export: JSON and CSV exporters
//   - retention: age and count based pruning on a cron schedule
package moderation
