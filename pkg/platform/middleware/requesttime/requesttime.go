// Package requesttime pins one "now" per HTTP request so every timestamp a
// mutation writes (plan creation, retention expiry, event time) agrees.
package requesttime

import (
	"net/http"
	"time"

	"synapse/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
