package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/phrasify/internal/api/shared"
	"github.com/phrazzld/phrasify/internal/platform/logger"
)

// NewTraceMiddleware returns middleware that gives every request a trace ID
// and a request scoped logger tagged with it. An incoming X-Request-ID is
// reused so a remote generator's trace continues on the server. The ID is
// echoed in the X-Trace-ID response header.
func NewTraceMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithLogger(r.Context(), log)
			ctx = shared.SetTraceID(ctx, r.Header.Get(shared.RequestIDHeader))
			traceID := shared.GetTraceID(ctx)

			w.Header().Set(shared.TraceIDHeader, traceID)

			logger.FromContext(ctx).Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
