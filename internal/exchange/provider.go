package exchange

import (
	"context"
	"time"

	"fxgate/internal/adapters"
	"fxgate/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultProviderTimeout = 10 * time.Second

// RateProvider resolves the rate of a currency into the fixed target currency.
type RateProvider struct {
	client  adapters.RateClient
	cache   adapters.RateCache
	target  string
	timeout time.Duration
	metrics *metrics.ExchangeMetrics
}

// FetchRate returns false when there is no rate: upstream failure, timeout,
// unknown code or a response without the target currency. It never retries.
func (p *RateProvider) FetchRate(ctx context.Context, code string) (decimal.Decimal, bool) {
	if p.cache != nil {
		if rate, ok := p.cache.Get(code); ok {
			p.metrics.RateCacheHits.Inc()
			return rate, true
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	rates, err := p.client.GetExchangeRates(reqCtx, code)
	if err != nil {
		p.metrics.ProviderDuration.WithLabelValues("no_rate").Observe(time.Since(started).Seconds())
		logrus.WithError(err).WithFields(logrus.Fields{"currency_code": code}).Warn("rate provider call failed")
		return decimal.Zero, false
	}

	rate, ok := rates[p.target]
	if !ok {
		p.metrics.ProviderDuration.WithLabelValues("no_rate").Observe(time.Since(started).Seconds())
		logrus.WithFields(logrus.Fields{"currency_code": code, "target": p.target}).Warn("target currency missing in provider response")
		return decimal.Zero, false
	}
	p.metrics.ProviderDuration.WithLabelValues("ok").Observe(time.Since(started).Seconds())

	if p.cache != nil {
		p.cache.Set(code, rate)
	}
	return rate, true
}

// NewRateProvider builds a provider; cache may be nil to disable caching.
func NewRateProvider(client adapters.RateClient, cache adapters.RateCache, target string, timeout time.Duration, m *metrics.ExchangeMetrics) *RateProvider {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &RateProvider{client: client, cache: cache, target: target, timeout: timeout, metrics: m}
}
