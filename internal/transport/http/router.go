// Package httptransport assembles the chi router: middleware chain, public
// endpoints, and the authenticated API. Handlers stay thin; business logic
// lives in the domain services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "deedledger/internal/audit/handler"
	deedhandler "deedledger/internal/deed/handler"
	"deedledger/internal/platform/metrics"
	"deedledger/internal/platform/middleware"
	userhandler "deedledger/internal/user/handler"
	"deedledger/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router mounts.
type Deps struct {
	Deeds *deedhandler.Handler
	Audit *audithandler.Handler
	Users *userhandler.Handler

	TokenValidator middleware.TokenValidator
	Revocation     middleware.RevocationChecker

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// DocumentDir, when set, is served read-only under /documents/.
	DocumentDir string

	// HealthCheck reports datastore reachability for /healthz. Nil means
	// always healthy.
	HealthCheck func(ctx context.Context) error
}

// NewRouter wires all endpoints. Login and deed verification are public;
// everything else sits behind token authentication.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	if d.Metrics != nil {
		r.Use(middleware.Latency(d.Metrics))
	}

	r.Get("/healthz", handleHealth(d.HealthCheck))
	r.Handle("/metrics", promhttp.Handler())

	d.Users.RegisterPublic(r)
	d.Deeds.RegisterPublic(r)

	if d.DocumentDir != "" {
		fs := http.FileServer(http.Dir(d.DocumentDir))
		r.Handle("/documents/*", http.StripPrefix("/documents/", fs))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.TokenValidator, d.Revocation, d.Logger))
		r.Use(middleware.ContentTypeJSON)
		d.Deeds.Register(r)
		d.Audit.Register(r)
		d.Users.Register(r)
	})

	return r
}

func handleHealth(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
