// Package httpapi assembles the HTTP surface of the marketplace.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"synapse/internal/platform/metrics"
	"synapse/pkg/platform/httputil"
	adminmw "synapse/pkg/platform/middleware/admin"
	authmw "synapse/pkg/platform/middleware/auth"
	request "synapse/pkg/platform/middleware/request"
	"synapse/pkg/platform/middleware/requesttime"
)

// Module is implemented by each domain handler. Unused groups are no-ops.
type Module interface {
	RegisterPublic(r chi.Router)
	RegisterAuthenticated(r chi.Router)
}

// BootstrapModule mounts endpoints guarded by the admin token.
type BootstrapModule interface {
	RegisterBootstrap(r chi.Router)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Logger      *slog.Logger
	Validator   authmw.JWTValidator
	Revocations authmw.TokenRevocationChecker
	AdminToken  string
	Metrics     *metrics.HTTP
	Gatherer    prometheus.Gatherer
	Health      map[string]HealthCheck
}

// NewRouter wires the middleware chain and mounts every module in three
// groups: public reads, bearer-authenticated writes and admin bootstrap.
func NewRouter(cfg Config, modules []Module, bootstrap []BootstrapModule) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.Logger(cfg.Logger))
	r.Use(requesttime.Middleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", healthHandler(cfg.Health))

	r.Group(func(r chi.Router) {
		for _, m := range modules {
			m.RegisterPublic(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Validator, cfg.Revocations, cfg.Logger))
		for _, m := range modules {
			m.RegisterAuthenticated(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(cfg.AdminToken, cfg.Logger))
		for _, m := range bootstrap {
			m.RegisterBootstrap(r)
		}
	})
	return r
}

const healthTimeout = 2 * time.Second

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": results})
	}
}
