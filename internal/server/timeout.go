package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds the request context. Handlers observe the deadline
// through ctx; the middleware does not write a response of its own.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
