package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fxgate/internal/adapters/postgres"
	"fxgate/internal/domain"
	"fxgate/internal/exchange"
	"fxgate/internal/metrics"
	"fxgate/internal/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgSetupOnce sync.Once

	pgContainer *tcpg.PostgresContainer
	pgConnStr   string
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgSetupOnce.Do(func() {
		startPostgres(t)
	})

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, resetDatabase(ctx, pool))

	return pool
}

func startPostgres(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpg.Run(ctx,
		"postgres:16-alpine",
		tcpg.WithDatabase("postgres"),
		tcpg.WithUsername("postgres"),
		tcpg.WithPassword("postgres"),
	)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	require.Eventually(t, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return sqlDB.PingContext(pingCtx) == nil
	}, 15*time.Second, 500*time.Millisecond)

	require.NoError(t, db.Migrate(ctx, sqlDB))

	pgContainer = pg
	pgConnStr = dsn
}

func resetDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `truncate table sessions, exchange_records, balances, users restart identity cascade`); err != nil {
		return err
	}
	return nil
}

func seedUser(t *testing.T, pool *pgxpool.Pool, email string, balance int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	_, err := pool.Exec(ctx, `insert into users (id, email, first_name, password_hash) values ($1, $2, 'Test', 'x')`, id, email)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `insert into balances (user_id, amount) values ($1, $2)`, id, balance)
	require.NoError(t, err)
	return id
}

func seedRecord(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, code, rate string, createdAt time.Time) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`insert into exchange_records (user_id, currency_code, rate, created_at) values ($1, $2, $3::numeric, $4)`,
		userID, code, rate, createdAt)
	require.NoError(t, err)
}

func balanceOf(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) int {
	t.Helper()
	var amount int
	require.NoError(t, pool.QueryRow(context.Background(), `select amount from balances where user_id = $1`, userID).Scan(&amount))
	return amount
}

func recordsOf(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `select count(*) from exchange_records where user_id = $1`, userID).Scan(&n))
	return n
}

// ---------- BalanceRepository tests ----------

func TestBalanceRepository_GetByUserID_NotFound(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewBalanceRepository(pool)

	_, err := repo.GetByUserID(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrBalanceNotFound)
}

func TestBalanceRepository_CreateAndGet(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewBalanceRepository(pool)
	ctx := context.Background()

	userID := uuid.New()
	_, err := pool.Exec(ctx, `insert into users (id, email, first_name, password_hash) values ($1, 'a@example.com', 'A', 'x')`, userID)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, userID, 1000))

	b, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, userID, b.UserID)
	require.Equal(t, 1000, b.Amount)
}

func TestBalanceRepository_Create_UnknownUserFails(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewBalanceRepository(pool)

	err := repo.Create(context.Background(), uuid.New(), 1000)
	require.Error(t, err)
}

func TestBalanceRepository_Decrement(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewBalanceRepository(pool)
	ctx := context.Background()
	userID := seedUser(t, pool, "a@example.com", 5)

	left, err := repo.Decrement(ctx, userID, 1)
	require.NoError(t, err)
	require.Equal(t, 4, left)

	left, err = repo.Decrement(ctx, userID, 4)
	require.NoError(t, err)
	require.Equal(t, 0, left)
	require.Equal(t, 0, balanceOf(t, pool, userID))
}

func TestBalanceRepository_Decrement_Insufficient(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewBalanceRepository(pool)
	userID := seedUser(t, pool, "a@example.com", 2)

	_, err := repo.Decrement(context.Background(), userID, 3)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	require.Equal(t, 2, balanceOf(t, pool, userID))
}

func TestBalanceRepository_Decrement_NotFound(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewBalanceRepository(pool)

	_, err := repo.Decrement(context.Background(), uuid.New(), 1)
	require.ErrorIs(t, err, domain.ErrBalanceNotFound)
}

func TestBalanceRepository_Decrement_NonPositiveAmount(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewBalanceRepository(pool)
	userID := seedUser(t, pool, "a@example.com", 2)

	_, err := repo.Decrement(context.Background(), userID, 0)
	require.Error(t, err)
	require.Equal(t, 2, balanceOf(t, pool, userID))
}

func TestBalanceRepository_Decrement_ConcurrentNeverNegative(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewBalanceRepository(pool)
	userID := seedUser(t, pool, "a@example.com", 3)

	const attempts = 20
	var ok, insufficient atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Decrement(context.Background(), userID, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientBalance):
				insufficient.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(3), ok.Load())
	require.Equal(t, int32(attempts-3), insufficient.Load())
	require.Equal(t, 0, balanceOf(t, pool, userID))
}

func TestBalanceRepository_DBError(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewBalanceRepository(pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.GetByUserID(ctx, uuid.New())
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrBalanceNotFound)
}

// ---------- Transactor tests ----------

func TestTransactor_CommitsBothEffects(t *testing.T) {
	pool := setupPostgres(t)
	tx := postgres.NewTransactor(pool)
	balances := postgres.NewBalanceRepository(pool)
	exchanges := postgres.NewExchangeRepository(pool)
	userID := seedUser(t, pool, "a@example.com", 5)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := balances.Decrement(ctx, userID, 1); err != nil {
			return err
		}
		_, err := exchanges.Append(ctx, userID, "USD", decimal.RequireFromString("41.09"))
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 4, balanceOf(t, pool, userID))
	require.Equal(t, 1, recordsOf(t, pool, userID))
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	pool := setupPostgres(t)
	tx := postgres.NewTransactor(pool)
	balances := postgres.NewBalanceRepository(pool)
	exchanges := postgres.NewExchangeRepository(pool)
	userID := seedUser(t, pool, "a@example.com", 5)

	boom := errors.New("boom")
	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := balances.Decrement(ctx, userID, 1); err != nil {
			return err
		}
		if _, err := exchanges.Append(ctx, userID, "USD", decimal.RequireFromString("41.09")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 5, balanceOf(t, pool, userID))
	require.Equal(t, 0, recordsOf(t, pool, userID))
}

func TestTransactor_RollsBackWhenAppendFails(t *testing.T) {
	pool := setupPostgres(t)
	tx := postgres.NewTransactor(pool)
	balances := postgres.NewBalanceRepository(pool)
	exchanges := postgres.NewExchangeRepository(pool)
	userID := seedUser(t, pool, "a@example.com", 5)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := balances.Decrement(ctx, userID, 1); err != nil {
			return err
		}
		// longer than varchar(10)
		_, err := exchanges.Append(ctx, userID, "WAYTOOLONGCODE", decimal.RequireFromString("1"))
		return err
	})
	require.Error(t, err)
	require.Equal(t, 5, balanceOf(t, pool, userID))
	require.Equal(t, 0, recordsOf(t, pool, userID))
}

// ---------- Exchange flow tests ----------

type fixedRate struct{ rate decimal.Decimal }

func (f fixedRate) FetchRate(context.Context, string) (decimal.Decimal, bool) {
	return f.rate, true
}

func TestExchangeService_ConcurrentExchangesNeverOverspend(t *testing.T) {
	pool := setupPostgres(t)
	userID := seedUser(t, pool, "a@example.com", 3)

	svc := exchange.NewService(
		postgres.NewTransactor(pool),
		postgres.NewBalanceRepository(pool),
		postgres.NewExchangeRepository(pool),
		fixedRate{rate: decimal.RequireFromString("41.0945")},
		1,
		metrics.NewExchangeMetrics(prometheus.NewRegistry()),
	)

	const attempts = 20
	var committed, insufficient, failed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := svc.Exchange(context.Background(), userID, "USD")
			switch {
			case err != nil:
				failed.Add(1)
			case out.Committed():
				committed.Add(1)
			case out.Reason == exchange.ReasonInsufficientBalance:
				insufficient.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Zero(t, failed.Load())
	require.Equal(t, int32(3), committed.Load())
	require.Equal(t, int32(attempts-3), insufficient.Load())
	require.Equal(t, 0, balanceOf(t, pool, userID))
	require.Equal(t, 3, recordsOf(t, pool, userID))

	var stored []string
	rows, err := pool.Query(context.Background(), `select rate::text from exchange_records where user_id = $1`, userID)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var r string
		require.NoError(t, rows.Scan(&r))
		stored = append(stored, r)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"41.09", "41.09", "41.09"}, stored)
}

// ---------- ExchangeRepository tests ----------

func TestExchangeRepository_Append_RoundsRate(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewExchangeRepository(pool)
	userID := seedUser(t, pool, "a@example.com", 5)

	rec, err := repo.Append(context.Background(), userID, "USD", decimal.RequireFromString("41.0937"))
	require.NoError(t, err)
	require.NotZero(t, rec.ID)
	require.False(t, rec.CreatedAt.IsZero())
	require.Equal(t, "41.09", rec.Rate.StringFixed(2))

	var stored string
	require.NoError(t, pool.QueryRow(context.Background(), `select rate::text from exchange_records where id = $1`, rec.ID).Scan(&stored))
	require.Equal(t, "41.09", stored)
}

func historyFixture(t *testing.T, pool *pgxpool.Pool) (uuid.UUID, uuid.UUID) {
	t.Helper()
	user1 := seedUser(t, pool, "user1@example.com", 1000)
	user2 := seedUser(t, pool, "user2@example.com", 1000)

	at := func(day, hour, minute int) time.Time { return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC) }
	seedRecord(t, pool, user1, "USD", "41.00", at(18, 10, 0))
	seedRecord(t, pool, user1, "EUR", "44.50", at(17, 15, 30))
	seedRecord(t, pool, user1, "GBP", "50.75", at(16, 9, 15))
	seedRecord(t, pool, user1, "USD", "40.75", at(15, 11, 45))
	seedRecord(t, pool, user1, "JPY", "150.25", at(14, 8, 20))
	seedRecord(t, pool, user1, "USD", "41.30", at(13, 14, 50))
	seedRecord(t, pool, user1, "EUR", "44.10", at(12, 10, 0))
	seedRecord(t, pool, user1, "GBP", "50.00", at(11, 17, 30))

	seedRecord(t, pool, user2, "USD", "41.50", at(16, 12, 0))
	seedRecord(t, pool, user2, "EUR", "44.90", at(15, 14, 0))
	return user1, user2
}

func TestExchangeRepository_Query_UserIsolationNewestFirst(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewExchangeRepository(pool)
	ctx := context.Background()
	user1, user2 := historyFixture(t, pool)

	count, err := repo.Count(ctx, user1, domain.HistoryFilter{})
	require.NoError(t, err)
	require.Equal(t, 8, count)

	records, err := repo.Query(ctx, user1, domain.HistoryFilter{}, 100, 0)
	require.NoError(t, err)
	require.Len(t, records, 8)
	for i, rec := range records {
		require.Equal(t, user1, rec.UserID)
		if i > 0 {
			require.True(t, rec.CreatedAt.Before(records[i-1].CreatedAt))
		}
	}
	require.Equal(t, "150.25", records[4].Rate.StringFixed(2))

	count, err = repo.Count(ctx, user2, domain.HistoryFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestExchangeRepository_Query_FilterByCurrency(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewExchangeRepository(pool)
	ctx := context.Background()
	user1, _ := historyFixture(t, pool)

	filter := domain.HistoryFilter{CurrencyCode: "USD"}
	records, err := repo.Query(ctx, user1, filter, 100, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		require.Equal(t, "USD", rec.CurrencyCode)
	}
}

func TestExchangeRepository_Query_FilterByDateRangeInclusive(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewExchangeRepository(pool)
	ctx := context.Background()
	user1, _ := historyFixture(t, pool)

	filter := domain.HistoryFilter{DateRange: &domain.DateRange{
		Start: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}}
	records, err := repo.Query(ctx, user1, filter, 100, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.Contains(t, []int{14, 15}, rec.CreatedAt.UTC().Day())
	}
}

func TestExchangeRepository_Query_FiltersAreConjunctive(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewExchangeRepository(pool)
	ctx := context.Background()
	user1, _ := historyFixture(t, pool)

	filter := domain.HistoryFilter{
		CurrencyCode: "USD",
		DateRange: &domain.DateRange{
			Start: time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}
	count, err := repo.Count(ctx, user1, filter)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestExchangeRepository_Query_LimitOffset(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewExchangeRepository(pool)
	ctx := context.Background()
	user1, _ := historyFixture(t, pool)

	page, err := repo.Query(ctx, user1, domain.HistoryFilter{}, 2, 6)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "EUR", page[0].CurrencyCode)
	require.Equal(t, "GBP", page[1].CurrencyCode)
}

func TestExchangeRepository_Query_InvalidRange(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewExchangeRepository(pool)

	filter := domain.HistoryFilter{DateRange: &domain.DateRange{
		Start: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}}
	_, err := repo.Query(context.Background(), uuid.New(), filter, 10, 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuery)
	_, err = repo.Count(context.Background(), uuid.New(), filter)
	require.ErrorIs(t, err, domain.ErrInvalidQuery)
}

// ---------- UserRepository tests ----------

func TestUserRepository_CreateAndGetByEmail(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewUserRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.User{ID: uuid.New(), Email: "a@example.com", FirstName: "Ann", PasswordHash: "hash"})
	require.NoError(t, err)
	require.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "Ann", got.FirstName)
	require.Equal(t, "hash", got.PasswordHash)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, domain.User{ID: uuid.New(), Email: "a@example.com", FirstName: "A", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.User{ID: uuid.New(), Email: "a@example.com", FirstName: "B", PasswordHash: "y"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewUserRepository(pool)

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

// ---------- SessionRepository tests ----------

func TestSessionRepository_Lifecycle(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSessionRepository(pool)
	ctx := context.Background()
	userID := seedUser(t, pool, "a@example.com", 1000)
	now := time.Now().UTC()

	active := domain.Session{JTI: uuid.New(), UserID: userID, ExpiresAt: now.Add(time.Hour)}
	expired := domain.Session{JTI: uuid.New(), UserID: userID, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, expired))

	got, err := repo.GetActive(ctx, active.JTI, now)
	require.NoError(t, err)
	require.Equal(t, userID, got.UserID)

	_, err = repo.GetActive(ctx, expired.JTI, now)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	require.NoError(t, repo.Delete(ctx, active.JTI))
	_, err = repo.GetActive(ctx, active.JTI, now)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	// deleting twice is fine
	require.NoError(t, repo.Delete(ctx, active.JTI))
}
