package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxgate/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func (r *SessionRepository) Create(ctx context.Context, s domain.Session) error {
	const q = `insert into sessions (jti, user_id, expires_at) values ($1, $2, $3);`

	if _, err := conn(ctx, r.pool).Exec(ctx, q, s.JTI, s.UserID, s.ExpiresAt); err != nil {
		return fmt.Errorf("failed to insert session for user %q: %w", s.UserID, err)
	}
	return nil
}

func (r *SessionRepository) GetActive(ctx context.Context, jti uuid.UUID, now time.Time) (domain.Session, error) {
	const q = `select jti, user_id, expires_at from sessions where jti = $1 and expires_at > $2;`

	var s domain.Session
	if err := conn(ctx, r.pool).QueryRow(ctx, q, jti, now).Scan(&s.JTI, &s.UserID, &s.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to select session %q: %w", jti, err)
	}
	return s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, jti uuid.UUID) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, `delete from sessions where jti = $1;`, jti); err != nil {
		return fmt.Errorf("failed to delete session %q: %w", jti, err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `delete from sessions where expires_at <= $1;`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}
