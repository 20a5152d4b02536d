package exchange

import (
	"context"

	"fxgate/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Testify mocks ---

type MockBalanceRepository struct{ mock.Mock }

func (m *MockBalanceRepository) Create(ctx context.Context, userID uuid.UUID, amount int) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockBalanceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Balance, error) {
	args := m.Called(ctx, userID)
	b, _ := args.Get(0).(domain.Balance)
	return b, args.Error(1)
}

func (m *MockBalanceRepository) Decrement(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	args := m.Called(ctx, userID, amount)
	return args.Int(0), args.Error(1)
}

type MockExchangeRepository struct{ mock.Mock }

func (m *MockExchangeRepository) Append(ctx context.Context, userID uuid.UUID, code string, rate decimal.Decimal) (domain.ExchangeRecord, error) {
	args := m.Called(ctx, userID, code, rate)
	r, _ := args.Get(0).(domain.ExchangeRecord)
	return r, args.Error(1)
}

func (m *MockExchangeRepository) Count(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter) (int, error) {
	args := m.Called(ctx, userID, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockExchangeRepository) Query(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter, limit, offset int) ([]domain.ExchangeRecord, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	records, _ := args.Get(0).([]domain.ExchangeRecord)
	return records, args.Error(1)
}

// MockTransactor runs fn inline; Err, when set, replaces fn's result the way a failed commit would.
type MockTransactor struct {
	Calls int
	Err   error
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return m.Err
}

type MockRateClient struct{ mock.Mock }

func (m *MockRateClient) GetExchangeRates(ctx context.Context, code string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, code)
	rates, _ := args.Get(0).(map[string]decimal.Decimal)
	return rates, args.Error(1)
}

type MockRateCache struct{ mock.Mock }

func (m *MockRateCache) Get(code string) (decimal.Decimal, bool) {
	args := m.Called(code)
	r, _ := args.Get(0).(decimal.Decimal)
	return r, args.Bool(1)
}

func (m *MockRateCache) Set(code string, rate decimal.Decimal) {
	m.Called(code, rate)
}

type MockRateFetcher struct{ mock.Mock }

func (m *MockRateFetcher) FetchRate(ctx context.Context, code string) (decimal.Decimal, bool) {
	args := m.Called(ctx, code)
	r, _ := args.Get(0).(decimal.Decimal)
	return r, args.Bool(1)
}
