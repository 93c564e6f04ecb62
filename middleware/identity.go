// Package middleware adapts the gateway decision engine to net/http.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	authgate "github.com/nuralyx/authgate"
)

type principalContextKey struct{}

// PrincipalFromContext returns the authenticated principal attached by
// [Identity], if any.
func PrincipalFromContext(ctx context.Context) (*authgate.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*authgate.Principal)
	return p, ok
}

// WithPrincipal attaches a principal to ctx. Exposed for handler tests.
func WithPrincipal(ctx context.Context, p *authgate.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// Identity enforces the gateway decision for every request. Public
// routes pass through untouched, authorized requests carry their
// principal in the context, and everything else is rejected with a
// generic 401 before the wrapped handler runs.
func Identity(gate *authgate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate == nil {
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			// CORS preflight carries no credentials.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx := authgate.WithClientIP(r.Context(), clientIP(r))
			ctx = authgate.WithUserAgent(ctx, r.UserAgent())
			principal, decision, err := gate.Authenticate(ctx, r.Method, r.URL.Path, r.Header.Get("Authorization"))

			switch decision {
			case authgate.DecisionPublic:
				next.ServeHTTP(w, r.WithContext(ctx))
			case authgate.DecisionAuthorized:
				next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
			default:
				if errors.Is(err, authgate.ErrMissingToken) {
					writeUnauthorized(w, "Missing authentication token")
					return
				}
				writeUnauthorized(w, "Invalid or expired token")
			}
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
