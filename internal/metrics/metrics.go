package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the portal collectors.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Invite metrics
	InvitesCreatedTotal    prometheus.Counter
	InviteValidationsTotal *prometheus.CounterVec
	InvitesSweptTotal      prometheus.Counter
	InvitesStored          prometheus.Gauge

	// Authorization metrics
	GuardDecisionsTotal *prometheus.CounterVec
	IdentityCacheTotal  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil registerer
// leaves them unregistered, which is what tests want.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "zoolip"
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		InvitesCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invite",
				Name:      "created_total",
				Help:      "Total number of invites issued",
			},
		),
		InviteValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invite",
				Name:      "validations_total",
				Help:      "Invite validations by result",
			},
			[]string{"result"}, // ok, token_not_found, token_expired, token_already_used
		),
		InvitesSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invite",
				Name:      "swept_total",
				Help:      "Total number of expired invites removed",
			},
		),
		InvitesStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "invite",
				Name:      "stored",
				Help:      "Invites currently held in memory",
			},
		),
		GuardDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "guard",
				Name:      "decisions_total",
				Help:      "Role guard decisions",
			},
			[]string{"decision"}, // allowed, unauthenticated, forbidden, error
		),
		IdentityCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "identity",
				Name:      "cache_total",
				Help:      "Identity cache lookups",
			},
			[]string{"result"}, // hit, miss
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.HTTPRequestsInFlight,
			m.InvitesCreatedTotal,
			m.InviteValidationsTotal,
			m.InvitesSweptTotal,
			m.InvitesStored,
			m.GuardDecisionsTotal,
			m.IdentityCacheTotal,
		)
	}
	return m
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordInviteValidation(result string) {
	m.InviteValidationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordGuardDecision(decision string) {
	m.GuardDecisionsTotal.WithLabelValues(decision).Inc()
}

func (m *Metrics) RecordIdentityCache(hit bool) {
	if hit {
		m.IdentityCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	m.IdentityCacheTotal.WithLabelValues("miss").Inc()
}
