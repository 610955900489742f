// Package recorder writes moderation records without blocking the caller.
//
// Record builds a moderation.Record from a filter decision (UUID, SHA-256
// text hash, truncated and optionally masked match) and queues it. A single
// worker drains the queue into a moderation.Storage. Close drains pending
// records before returning.
package recorder
