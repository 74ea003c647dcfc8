package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "farmgate"

var (
	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Total number of tokens issued, labeled by kind.",
		},
		[]string{"kind"},
	)

	TokenDecodeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_decode_failures_total",
			Help:      "Total number of rejected wire tokens, labeled by decode code and path (lenient/strict).",
		},
		[]string{"code", "path"},
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	AuthorizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorizations_total",
			Help:      "Total number of role-gate decisions, labeled by required role and outcome.",
		},
		[]string{"role", "outcome"},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by rate limiting, labeled by scope.",
		},
		[]string{"scope"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP handler latency by route and status.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		TokensIssuedTotal,
		TokenDecodeFailuresTotal,
		LoginsTotal,
		AuthorizationsTotal,
		RateLimitHitsTotal,
		HTTPRequestDurationSeconds,
	)
}
