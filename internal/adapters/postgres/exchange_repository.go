package postgres

import (
	"context"
	"fmt"
	"strings"

	"fxgate/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ExchangeRepository struct {
	pool *pgxpool.Pool
}

func (r *ExchangeRepository) Append(ctx context.Context, userID uuid.UUID, code string, rate decimal.Decimal) (domain.ExchangeRecord, error) {
	const q = `
		insert into exchange_records (user_id, currency_code, rate)
		values ($1, $2, $3::numeric)
		returning id, created_at;
	`

	rec := domain.ExchangeRecord{UserID: userID, CurrencyCode: code, Rate: rate.Round(domain.RatePlaces)}
	if err := conn(ctx, r.pool).QueryRow(ctx, q, userID, code, rec.Rate.String()).Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return domain.ExchangeRecord{}, fmt.Errorf("failed to insert exchange record for user %q: %w", userID, err)
	}
	return rec, nil
}

func (r *ExchangeRepository) Count(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter) (int, error) {
	where, args, err := historyWhere(userID, filter)
	if err != nil {
		return 0, err
	}

	var count int
	q := `select count(*) from exchange_records where ` + where + `;`
	if err = conn(ctx, r.pool).QueryRow(ctx, q, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count exchange records for user %q: %w", userID, err)
	}
	return count, nil
}

// Query returns matching records newest first.
func (r *ExchangeRepository) Query(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter, limit, offset int) ([]domain.ExchangeRecord, error) {
	where, args, err := historyWhere(userID, filter)
	if err != nil {
		return nil, err
	}

	args = append(args, limit, offset)
	q := fmt.Sprintf(`
		select id, user_id, currency_code, rate::text, created_at
		from exchange_records
		where %s
		order by created_at desc, id desc
		limit $%d offset $%d;
	`, where, len(args)-1, len(args))

	rows, err := conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange records for user %q: %w", userID, err)
	}
	defer rows.Close()

	records := make([]domain.ExchangeRecord, 0, limit)
	for rows.Next() {
		var rec domain.ExchangeRecord
		var rawRate string
		if err = rows.Scan(&rec.ID, &rec.UserID, &rec.CurrencyCode, &rawRate, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange record: %w", err)
		}
		if rec.Rate, err = decimal.NewFromString(rawRate); err != nil {
			return nil, fmt.Errorf("failed to parse rate %q: %w", rawRate, err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange records: %w", err)
	}
	return records, nil
}

// historyWhere builds the conjunctive filter; absent filters add nothing.
func historyWhere(userID uuid.UUID, filter domain.HistoryFilter) (string, []any, error) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}

	if filter.CurrencyCode != "" {
		args = append(args, filter.CurrencyCode)
		clauses = append(clauses, fmt.Sprintf("currency_code = $%d", len(args)))
	}
	if filter.DateRange != nil {
		from, to := filter.DateRange.Bounds()
		if !from.Before(to) {
			return "", nil, domain.ErrInvalidQuery
		}
		args = append(args, from, to)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d and created_at < $%d", len(args)-1, len(args)))
	}
	return strings.Join(clauses, " and "), args, nil
}

func NewExchangeRepository(pool *pgxpool.Pool) *ExchangeRepository {
	return &ExchangeRepository{pool: pool}
}
