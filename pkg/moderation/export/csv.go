package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"trainerpass/guardian/pkg/moderation"
)

// CSVExporter exports moderation records as CSV, one row per record.
type CSVExporter struct {
	// IncludeHeader writes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

var csvHeader = []string{
	"id", "request_id", "author", "source",
	"scanned_at", "recorded_at",
	"rule_id", "category", "severity", "label", "match", "action",
	"text_hash", "text_length", "policy_version",
}

// Export writes records to w.
func (e *CSVExporter) Export(ctx context.Context, records []*moderation.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return moderation.NewExportError(FormatCSV, len(records), err)
		}
	}

	for i, record := range records {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return moderation.NewExportError(FormatCSV, i, err)
			}
		}
		if err := writer.Write(recordToRow(record)); err != nil {
			return moderation.NewExportError(FormatCSV, i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return moderation.NewExportError(FormatCSV, len(records), err)
	}
	return nil
}

func recordToRow(r *moderation.Record) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}

	return []string{
		r.ID,
		r.RequestID,
		r.Author,
		r.Source,
		formatTime(r.ScannedAt),
		formatTime(r.RecordedAt),
		r.RuleID,
		r.Category,
		r.Severity,
		r.Label,
		r.Match,
		string(r.Action),
		r.TextHash,
		strconv.Itoa(r.TextLength),
		r.PolicyVersion,
	}
}
