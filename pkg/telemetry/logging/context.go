package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// AuthorKey is the context key for the author of a submission.
	AuthorKey contextKey = "author"

	// SourceKey is the context key for the submission source (bio, comment...).
	SourceKey contextKey = "source"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithAuthor adds a submission author to the context.
func WithAuthor(ctx context.Context, author string) context.Context {
	return context.WithValue(ctx, AuthorKey, author)
}

// GetAuthor retrieves the submission author from the context.
func GetAuthor(ctx context.Context) string {
	if author, ok := ctx.Value(AuthorKey).(string); ok {
		return author
	}
	return ""
}

// WithSource adds a submission source to the context.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, SourceKey, source)
}

// GetSource retrieves the submission source from the context.
func GetSource(ctx context.Context) string {
	if source, ok := ctx.Value(SourceKey).(string); ok {
		return source
	}
	return ""
}

// contextAttrs extracts common fields from context for logging.
func contextAttrs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var fields []any
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if author := GetAuthor(ctx); author != "" {
		fields = append(fields, "author", author)
	}
	if source := GetSource(ctx); source != "" {
		fields = append(fields, "source", source)
	}
	return fields
}
