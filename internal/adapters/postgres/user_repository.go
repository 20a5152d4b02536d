package postgres

import (
	"context"
	"errors"
	"fmt"

	"fxgate/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		insert into users (id, email, first_name, last_name, password_hash)
		values ($1, $2, $3, $4, $5)
		returning created_at;
	`

	err := conn(ctx, r.pool).QueryRow(ctx, q, user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("failed to insert user %q: %w", user.Email, err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `
		select id, email, first_name, last_name, password_hash, created_at
		from users where email = $1;
	`

	var u domain.User
	err := conn(ctx, r.pool).QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to select user %q: %w", email, err)
	}
	return u, nil
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}
