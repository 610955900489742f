package moderation

import (
	"context"
	"io"
	"time"
)

// Action is what the moderation service did with a submission.
type Action string

const (
	// ActionAllow accepts clean text. Allowed submissions are not recorded.
	ActionAllow Action = "allow"

	// ActionFlag accepts the text but queues it for moderator review.
	ActionFlag Action = "flag"

	// ActionReject refuses the submission.
	ActionReject Action = "reject"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionAllow, ActionFlag, ActionReject:
		return true
	}
	return false
}

// Record is a single moderation record.
type Record struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // From the API request, if any

	// Who and where
	Author string `json:"author"` // Submitting user, may be empty
	Source string `json:"source"` // Submission surface, e.g. "profile_bio"

	// Timestamps
	ScannedAt  time.Time `json:"scanned_at"`  // When the text was scanned
	RecordedAt time.Time `json:"recorded_at"` // When the record was written

	// Decision
	RuleID   string `json:"rule_id"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Label    string `json:"label"`
	Match    string `json:"match"` // Truncated, masked when redaction is on
	Action   Action `json:"action"`

	// Submitted text
	TextHash   string `json:"text_hash"`   // SHA-256 of the text
	TextLength int    `json:"text_length"` // Length in runes

	// PolicyVersion is the rule-set version the decision was made under.
	PolicyVersion string `json:"policy_version"`
}

// Sort fields accepted by Query.SortBy.
const (
	SortScannedAt  = "scanned_at"
	SortRecordedAt = "recorded_at"
)

// Query defines filter parameters for moderation records.
type Query struct {
	// Time range on ScannedAt, both inclusive
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	Author   string `json:"author,omitempty"`
	Source   string `json:"source,omitempty"`
	RuleID   string `json:"rule_id,omitempty"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
	Action   Action `json:"action,omitempty"`

	// Pagination. Limit 0 means no limit for storage backends; callers
	// exposed to users apply ApplyQueryDefaults first.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "scanned_at", "recorded_at"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage is implemented by moderation record backends. Implementations must
// be safe for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query returns records matching the query, or an empty slice.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the query filters, ignoring
	// pagination, and returns how many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}

// Exporter writes records in an export format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
