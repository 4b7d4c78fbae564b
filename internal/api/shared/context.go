package shared

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/phrasify/internal/platform/logger"
)

// Key type for context values
type ContextKey string

const (
	// SubjectContextKey is the context key for the authenticated token subject
	SubjectContextKey ContextKey = "subject"

	// TraceIDHeader carries the trace ID on requests and responses.
	TraceIDHeader = "X-Trace-ID"

	// RequestIDHeader is accepted as an incoming trace ID, so traces can be
	// continued across the remote generator and the server.
	RequestIDHeader = "X-Request-ID"
)

// SetTraceID adds a trace ID to the context. An empty id generates a new one.
func SetTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return logger.WithRequestID(ctx, id)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	return logger.RequestIDFromContext(ctx)
}

// WithSubject stores the authenticated subject in ctx.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, SubjectContextKey, subject)
}

// GetSubject returns the authenticated subject, if the request was
// authenticated.
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectContextKey).(string)
	return subject, ok
}
