package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// logFieldsKey identifies request-scoped logging fields.
type logFieldsKey struct{}

// LoggingMiddleware emits one structured line per request with method, path,
// status, duration and any fields handlers attached with AddLogField.
// Server errors log at error level and client errors at warn.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Attach mutable log fields map to context for handlers to enrich
			fields := make(map[string]string)
			ctxWithFields := context.WithValue(r.Context(), logFieldsKey{}, fields)

			wrapped := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r.WithContext(ctxWithFields))

			attrs := []slog.Attr{
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Int("bytes", wrapped.bytes),
				slog.Duration("duration", time.Since(start)),
			}
			for k, v := range fields {
				attrs = append(attrs, slog.String(k, v))
			}

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctxWithFields, level, "request completed", attrs...)
		})
	}
}

// loggingResponseWriter captures the status code and body size.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *loggingResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *loggingResponseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// AddLogField attaches a key/value to the request-scoped log fields map so LoggingMiddleware can emit it.
// It is safe to call multiple times. No-op if middleware isn't present.
func AddLogField(ctx context.Context, key, value string) {
	if value == "" {
		return
	}
	if fields, ok := ctx.Value(logFieldsKey{}).(map[string]string); ok {
		fields[key] = value
	}
}

// AddError attaches an error message to the request-scoped log fields map so it
// appears in the structured request log emitted by LoggingMiddleware. No-op if
// middleware isn't present or err is nil.
func AddError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	AddLogField(ctx, "error", err.Error())
}
