package exchange

import (
	"context"
	"errors"
	"fmt"

	"fxgate/internal/adapters"
	"fxgate/internal/domain"
	"fxgate/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusCommitted Status = "committed"
	StatusRejected  Status = "rejected"
)

type RejectReason string

const (
	ReasonInsufficientBalance RejectReason = "insufficient_balance"
	ReasonRateUnavailable     RejectReason = "invalid_currency_or_provider_error"
)

// Outcome is the result of one exchange attempt. Rejections are expected results, not errors.
type Outcome struct {
	Status       Status
	Reason       RejectReason
	CurrencyCode string
	Rate         decimal.Decimal
	Balance      int
}

func (o Outcome) Committed() bool { return o.Status == StatusCommitted }

func rejected(reason RejectReason) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason}
}

type RateFetcher interface {
	FetchRate(ctx context.Context, code string) (decimal.Decimal, bool)
}

type Service struct {
	tx       adapters.Transactor
	balances adapters.BalanceRepository
	records  adapters.ExchangeRepository
	rates    RateFetcher
	cost     int
	metrics  *metrics.ExchangeMetrics
}

// Exchange checks the balance, fetches the rate, then appends the record and debits the
// balance in one transaction. The debit re-checks sufficiency at write time, so a balance
// drained by a concurrent request after the first check still ends in a rejection.
func (s *Service) Exchange(ctx context.Context, userID uuid.UUID, code string) (Outcome, error) {
	balance, err := s.balances.GetByUserID(ctx, userID)
	if err != nil {
		s.observe(metrics.OutcomeError)
		return Outcome{}, err
	}
	if balance.Amount <= 0 || balance.Amount < s.cost {
		s.observe(metrics.OutcomeInsufficientBalance)
		return rejected(ReasonInsufficientBalance), nil
	}

	rate, ok := s.rates.FetchRate(ctx, code)
	if !ok {
		s.observe(metrics.OutcomeRateUnavailable)
		return rejected(ReasonRateUnavailable), nil
	}
	rate = rate.Round(domain.RatePlaces)

	// once started, the commit is not cut short by the caller going away
	commitCtx := context.WithoutCancel(ctx)
	var left int
	err = s.tx.WithinTx(commitCtx, func(txCtx context.Context) error {
		var txErr error
		if left, txErr = s.balances.Decrement(txCtx, userID, s.cost); txErr != nil {
			return txErr
		}
		_, txErr = s.records.Append(txCtx, userID, code, rate)
		return txErr
	})
	if errors.Is(err, domain.ErrInsufficientBalance) {
		s.observe(metrics.OutcomeInsufficientBalance)
		return rejected(ReasonInsufficientBalance), nil
	}
	if errors.Is(err, domain.ErrBalanceNotFound) {
		s.observe(metrics.OutcomeError)
		return Outcome{}, domain.ErrBalanceNotFound
	}
	if err != nil {
		s.observe(metrics.OutcomeError)
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": userID, "currency_code": code}).Error("exchange commit failed")
		return Outcome{}, fmt.Errorf("failed to commit exchange: %w", err)
	}

	s.observe(metrics.OutcomeCommitted)
	return Outcome{
		Status:       StatusCommitted,
		CurrencyCode: code,
		Rate:         rate,
		Balance:      left,
	}, nil
}

func (s *Service) observe(outcome string) {
	s.metrics.RequestsTotal.WithLabelValues(outcome).Inc()
}

func NewService(tx adapters.Transactor, balances adapters.BalanceRepository, records adapters.ExchangeRepository, rates RateFetcher, cost int, m *metrics.ExchangeMetrics) *Service {
	if cost <= 0 {
		cost = 1
	}
	return &Service{tx: tx, balances: balances, records: records, rates: rates, cost: cost, metrics: m}
}
