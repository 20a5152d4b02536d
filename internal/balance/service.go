package balance

import (
	"context"

	"fxgate/internal/adapters"
	"fxgate/internal/domain"

	"github.com/google/uuid"
)

type Service struct {
	balances adapters.BalanceRepository
}

func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (domain.Balance, error) {
	return s.balances.GetByUserID(ctx, userID)
}

func NewService(balances adapters.BalanceRepository) *Service {
	return &Service{balances: balances}
}
