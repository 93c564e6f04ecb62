package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeaders sets the standard response header set on every
// response, and disables caching on authentication endpoints so that
// tokens and credentials never land in shared caches.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		if isAuthPath(r.URL.Path) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}

		next.ServeHTTP(w, r)
	})
}

func isAuthPath(path string) bool {
	return strings.Contains(path, "/auth/")
}
