// Package logging provides structured logging with PII redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Redaction of emails, phone numbers, IP addresses and tokens
//   - Masking of sensitive attributes such as filter matches
//   - Context-aware logging with request IDs and authors
//
// The redaction happens in a slog.Handler, so installing the logger with
// SetDefault covers every component that logs through slog.Default().
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "submission rejected",
//	    "rule_id", "phone-number",
//	    "match", "07911 123456", // masked
//	)
package logging
