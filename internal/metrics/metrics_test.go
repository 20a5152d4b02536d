package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewExchangeMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExchangeMetrics(reg)

	m.RequestsTotal.WithLabelValues(OutcomeCommitted).Inc()
	m.RequestsTotal.WithLabelValues(OutcomeCommitted).Inc()
	m.RateCacheHits.Inc()

	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(OutcomeCommitted)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RateCacheHits))

	count, err := testutil.GatherAndCount(reg, "fxgate_exchange_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNewExchangeMetrics_SeparateRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		NewExchangeMetrics(prometheus.NewRegistry())
		NewExchangeMetrics(prometheus.NewRegistry())
	})
}
