package api

import (
	"crypto/subtle"
	"net/http"
)

// debugTokenHeader carries the operator token for privileged routes.
const debugTokenHeader = "X-Debug-Token"

// debugTokenMiddleware gates privileged routes behind a shared
// operator token. An empty configured token disables the routes
// outright rather than making them open.
func debugTokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeError(w, http.StatusForbidden, "debug routes disabled")
				return
			}
			got := r.Header.Get(debugTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				RecordConnectionRejected("invalid")
				writeError(w, http.StatusForbidden, "bad debug token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
