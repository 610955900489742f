package export

import (
	"fmt"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/moderation"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// New returns the exporter for format using cfg for format options.
func New(format string, cfg config.ExportConfig) (moderation.Exporter, error) {
	switch format {
	case FormatJSON, "":
		return NewJSONExporter(cfg.JSONPretty), nil
	case FormatCSV:
		return NewCSVExporter(cfg.CSVIncludeHeader), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (expected json or csv)", format)
	}
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}
