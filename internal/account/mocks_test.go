package account

import (
	"context"
	"time"

	"fxgate/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// --- Testify mocks ---

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(domain.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(domain.User)
	return u, args.Error(1)
}

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

type MockSessionRepository struct{ mock.Mock }

func (m *MockSessionRepository) Create(ctx context.Context, s domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) GetActive(ctx context.Context, jti uuid.UUID, now time.Time) (domain.Session, error) {
	args := m.Called(ctx, jti, now)
	s, _ := args.Get(0).(domain.Session)
	return s, args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, jti uuid.UUID) error {
	args := m.Called(ctx, jti)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

type MockTransactor struct {
	Calls int
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}
