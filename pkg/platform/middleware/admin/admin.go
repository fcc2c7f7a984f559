package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/httputil"
	request "synapse/pkg/platform/middleware/request"
)

// HeaderAdminToken carries the bootstrap token.
const HeaderAdminToken = "X-Admin-Token"

// RequireAdminToken guards deployment bootstrap endpoints. An empty expected
// token disables the endpoints entirely.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderAdminToken)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
