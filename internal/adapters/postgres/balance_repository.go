package postgres

import (
	"context"
	"errors"
	"fmt"

	"fxgate/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BalanceRepository struct {
	pool *pgxpool.Pool
}

func (r *BalanceRepository) Create(ctx context.Context, userID uuid.UUID, amount int) error {
	const q = `insert into balances (user_id, amount) values ($1, $2);`

	if _, err := conn(ctx, r.pool).Exec(ctx, q, userID, amount); err != nil {
		return fmt.Errorf("failed to create balance for user %q: %w", userID, err)
	}
	return nil
}

func (r *BalanceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Balance, error) {
	const q = `select user_id, amount from balances where user_id = $1;`

	var b domain.Balance
	if err := conn(ctx, r.pool).QueryRow(ctx, q, userID).Scan(&b.UserID, &b.Amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Balance{}, domain.ErrBalanceNotFound
		}
		return domain.Balance{}, fmt.Errorf("failed to select balance for user %q: %w", userID, err)
	}
	return b, nil
}

// Decrement subtracts amount at write time and only when the result stays non-negative.
// Concurrent callers serialize on the row lock; the condition is re-evaluated against the
// committed value, so the balance can't go below zero.
func (r *BalanceRepository) Decrement(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("decrement amount must be positive, got %d", amount)
	}

	const q = `
		update balances
		set amount = amount - $2
		where user_id = $1 and amount >= $2
		returning amount;
	`

	db := conn(ctx, r.pool)
	var left int
	err := db.QueryRow(ctx, q, userID, amount).Scan(&left)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to decrement balance for user %q: %w", userID, err)
	}

	// nothing updated: either no row or not enough on it
	var exists bool
	if err = db.QueryRow(ctx, `select exists(select 1 from balances where user_id = $1);`, userID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check balance for user %q: %w", userID, err)
	}
	if !exists {
		return 0, domain.ErrBalanceNotFound
	}
	return 0, domain.ErrInsufficientBalance
}

func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}
