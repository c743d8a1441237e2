package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ConsentChecks    *prometheus.CounterVec
	AccessDenials    *prometheus.CounterVec
	OwnerResolutions *prometheus.CounterVec
	ScrapeRequests   *prometheus.CounterVec
	RequestLatency   *prometheus.HistogramVec
	BypassedChecks   prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ConsentChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recproxy_consent_checks_total",
			Help: "Consent ledger checks by result.",
		}, []string{"result"}),
		AccessDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recproxy_access_denials_total",
			Help: "Denied credential accesses by error code.",
		}, []string{"code"}),
		OwnerResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recproxy_owner_resolutions_total",
			Help: "Owner resolution outcomes by waterfall stage.",
		}, []string{"stage"}),
		ScrapeRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recproxy_scrape_requests_total",
			Help: "Scrape requests by page kind and status.",
		}, []string{"kind", "status"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recproxy_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		BypassedChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recproxy_consent_bypass_total",
			Help: "Consent checks skipped by the development bypass flag.",
		}),
	}
}

// NewForTest creates metrics on a private registry so parallel tests do not
// collide on promauto's default registerer.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		ConsentChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recproxy_consent_checks_total",
			Help: "Consent ledger checks by result.",
		}, []string{"result"}),
		AccessDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recproxy_access_denials_total",
			Help: "Denied credential accesses by error code.",
		}, []string{"code"}),
		OwnerResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recproxy_owner_resolutions_total",
			Help: "Owner resolution outcomes by waterfall stage.",
		}, []string{"stage"}),
		ScrapeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recproxy_scrape_requests_total",
			Help: "Scrape requests by page kind and status.",
		}, []string{"kind", "status"}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recproxy_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		BypassedChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: "recproxy_consent_bypass_total",
			Help: "Consent checks skipped by the development bypass flag.",
		}),
	}
}
