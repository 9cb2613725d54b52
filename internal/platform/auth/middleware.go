package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Header names installed by the edge proxy after session verification.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
	HeaderEdgeToken = "X-Edge-Token"
)

// IdentityOption customises the identity middleware.
type IdentityOption func(*identityConfig)

type identityConfig struct {
	sharedSecret string
}

// WithSharedSecret requires the edge proxy to present the configured token on
// every request. An empty secret disables the check (local development).
func WithSharedSecret(secret string) IdentityOption {
	return func(cfg *identityConfig) {
		cfg.sharedSecret = strings.TrimSpace(secret)
	}
}

// RequireIdentity extracts the forwarded identity headers and rejects requests
// without a user id. The identity is stored on the request context.
func RequireIdentity(opts ...IdentityOption) func(http.Handler) http.Handler {
	var cfg identityConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.sharedSecret != "" {
				token := strings.TrimSpace(r.Header.Get(HeaderEdgeToken))
				if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.sharedSecret)) != 1 {
					respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "edge token missing or invalid")
					return
				}
			}
			identity, ok := identityFromHeaders(r)
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "identity headers missing")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole ensures the request identity carries one of the allowed roles.
// It must be mounted after RequireIdentity.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		role = normaliseRole(role)
		if role == "" {
			continue
		}
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "identity missing from request context")
				return
			}
			if len(allowed) > 0 {
				if _, ok := allowed[normaliseRole(identity.Role)]; !ok {
					respondAuthError(w, http.StatusForbidden, "forbidden", "insufficient role for this resource")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityFromHeaders(r *http.Request) (*Identity, bool) {
	uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if uid == "" {
		return nil, false
	}
	role := normaliseRole(r.Header.Get(HeaderUserRole))
	if role == "" {
		role = RoleStaff
	}
	return &Identity{
		UID:   uid,
		Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		Role:  role,
	}, true
}

func normaliseRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

func respondAuthError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
