package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exchange outcome label values.
const (
	OutcomeCommitted           = "committed"
	OutcomeInsufficientBalance = "insufficient_balance"
	OutcomeRateUnavailable     = "rate_unavailable"
	OutcomeError               = "error"
)

type ExchangeMetrics struct {
	// Exchange attempts by outcome
	RequestsTotal *prometheus.CounterVec

	// Provider call latency by result (ok / no_rate)
	ProviderDuration *prometheus.HistogramVec

	RateCacheHits prometheus.Counter

	SessionsPurged prometheus.Counter
}

func NewExchangeMetrics(reg prometheus.Registerer) *ExchangeMetrics {
	f := promauto.With(reg)
	return &ExchangeMetrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fxgate",
			Name:      "exchange_requests_total",
			Help:      "Exchange attempts by outcome.",
		}, []string{"outcome"}),
		ProviderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fxgate",
			Name:      "rate_provider_duration_seconds",
			Help:      "Latency of upstream rate lookups.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		RateCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "fxgate",
			Name:      "rate_cache_hits_total",
			Help:      "Rate lookups served from cache.",
		}),
		SessionsPurged: f.NewCounter(prometheus.CounterOpts{
			Namespace: "fxgate",
			Name:      "sessions_purged_total",
			Help:      "Expired refresh sessions removed by the cleanup job.",
		}),
	}
}
