package moderation

import (
	"fmt"

	"trainerpass/guardian/pkg/filter"
)

// ValidateQuery checks a query built from user input. maxLimit caps Limit.
func ValidateQuery(q *Query, maxLimit int) error {
	if q.Limit < 0 {
		return NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		return NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", maxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	switch q.SortBy {
	case "", SortScannedAt, SortRecordedAt:
	default:
		return NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	switch q.SortOrder {
	case "", "asc", "desc":
	default:
		return NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.Category != "" && !filter.Category(q.Category).Valid() {
		return NewQueryError(q, fmt.Errorf("invalid category: %s", q.Category))
	}
	if q.Severity != "" && !filter.Severity(q.Severity).Valid() {
		return NewQueryError(q, fmt.Errorf("invalid severity: %s", q.Severity))
	}
	if q.Action != "" && !q.Action.Valid() {
		return NewQueryError(q, fmt.Errorf("invalid action: %s (must be 'allow', 'flag' or 'reject')", q.Action))
	}

	return nil
}

// ApplyQueryDefaults fills the limit and sorting of a user query. Newest
// records come first.
func ApplyQueryDefaults(q *Query, defaultLimit int) {
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = SortScannedAt
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
