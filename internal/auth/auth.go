package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

// Authenticator verifies per-role shared secrets (PINs).
type Authenticator struct {
	digests map[domain.Role][sha256.Size]byte // role -> digest of secret
}

// NewAuthenticator creates an authenticator from the configured secrets.
// Secrets are trimmed; roles with an empty secret are left unconfigured and
// every credential for them is rejected.
func NewAuthenticator(secrets map[domain.Role]string) *Authenticator {
	a := &Authenticator{
		digests: make(map[domain.Role][sha256.Size]byte, len(secrets)),
	}
	for role, secret := range secrets {
		secret = strings.TrimSpace(secret)
		if secret == "" {
			continue
		}
		a.digests[role] = sha256.Sum256([]byte(secret))
	}
	return a
}

// Check reports whether credential matches the secret configured for role.
// Both sides are hashed before a constant-time comparison so neither the
// length nor the content of the secret leaks through timing.
func (a *Authenticator) Check(role domain.Role, credential string) bool {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return false
	}

	want, ok := a.digests[role]
	if !ok {
		return false
	}

	got := sha256.Sum256([]byte(credential))
	return subtle.ConstantTimeCompare(got[:], want[:]) == 1
}

// Configured reports whether a secret exists for role.
func (a *Authenticator) Configured(role domain.Role) bool {
	_, ok := a.digests[role]
	return ok
}

// ExtractCredential extracts a credential from the Authorization header
func ExtractCredential(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	// Support "Bearer <pin>" format
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	if strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("unsupported authorization scheme")
	}

	return parts[1], nil
}
