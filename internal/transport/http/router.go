// Package httptransport assembles the public HTTP surface: middleware chain,
// authenticated API routes and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	brokerhandler "recproxy/internal/broker/handler"
	consenthandler "recproxy/internal/consent/handler"
	credentialhandler "recproxy/internal/credential/handler"
	permissionhandler "recproxy/internal/permission/handler"
	"recproxy/internal/platform/metrics"
	"recproxy/internal/platform/middleware"
	preferencehandler "recproxy/internal/preference/handler"
	scrapehandler "recproxy/internal/scrape/handler"
	"recproxy/internal/transport/http/shared"
)

// Handlers carries every mounted handler plus the middlewares that need
// router-level wiring.
type Handlers struct {
	Consent     *consenthandler.Handler
	Permission  *permissionhandler.Handler
	Credential  *credentialhandler.Handler
	Preference  *preferencehandler.Handler
	Broker      *brokerhandler.Handler
	Scrape      *scrapehandler.Handler
	TokenAuth   func(http.Handler) http.Handler
	JWTAuth     func(http.Handler) http.Handler
	CORSOrigins []string
}

// Ready reports whether the process can serve traffic; wired to /init.
type Ready func() bool

func NewRouter(h Handlers, ready Ready, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.CORS(h.CORSOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/init", func(w http.ResponseWriter, _ *http.Request) {
		if !ready() {
			shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "initializing"})
			return
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// API routes: one-time tokens redeem before the JWT check runs.
	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(h.TokenAuth)
		api.Use(h.JWTAuth)

		h.Consent.Register(api)
		h.Permission.Register(api)
		h.Credential.Register(api)
		h.Preference.Register(api)
		h.Broker.Register(api)
		h.Scrape.Register(api)
	})

	return r
}
