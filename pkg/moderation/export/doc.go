// Package export writes moderation records as JSON or CSV.
package export
