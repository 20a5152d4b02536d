package adapters

import (
	"context"
	"time"

	"fxgate/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RateClient interface {
	GetExchangeRates(ctx context.Context, code string) (map[string]decimal.Decimal, error)
}

type RateCache interface {
	Get(code string) (decimal.Decimal, bool)
	Set(code string, rate decimal.Decimal)
}

// Transactor runs fn in one database transaction. Repositories called with the ctx passed to fn
// take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type BalanceRepository interface {
	Create(ctx context.Context, userID uuid.UUID, amount int) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Balance, error)
	Decrement(ctx context.Context, userID uuid.UUID, amount int) (int, error)
}

type ExchangeRepository interface {
	Append(ctx context.Context, userID uuid.UUID, code string, rate decimal.Decimal) (domain.ExchangeRecord, error)
	Count(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter) (int, error)
	Query(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter, limit, offset int) ([]domain.ExchangeRecord, error)
}

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetActive(ctx context.Context, jti uuid.UUID, now time.Time) (domain.Session, error)
	Delete(ctx context.Context, jti uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
