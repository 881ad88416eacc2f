package server

import (
	"context"
	"net/http"

	"github.com/tjfontaine/feedlot-portal/internal/auth"
)

// credentialKey is the context key for a header-supplied credential.
type credentialKey struct{}

// CredentialMiddleware accepts the role PIN from an "Authorization: Bearer"
// header as an alternative to the pin body field. It never rejects a request:
// a missing or malformed header simply leaves no credential in context, and
// the pipeline reports the authentication failure.
func CredentialMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, err := auth.ExtractCredential(r)
		if err != nil || credential == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), credentialKey{}, credential)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CredentialFromContext returns the header-supplied credential, if any.
func CredentialFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(credentialKey{}).(string); ok {
		return c
	}
	return ""
}
