package router

import (
	"crypto/subtle"
	"net/http"
)

// HeaderOperatorKey carries the shared operator credential for
// diagnostics-only endpoints.
const HeaderOperatorKey = "X-Operator-Key"

// MiddlewareOperatorKey guards an endpoint with a shared operator credential.
//
// When no key is configured the endpoint is disabled outright; the comparison
// is constant time so the key cannot be probed byte by byte.
func MiddlewareOperatorKey(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
				return
			}

			got := r.Header.Get(HeaderOperatorKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeJSON(w, errorResponse{Message: "Operator credential required"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
