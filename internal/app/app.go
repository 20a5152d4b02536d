package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fxgate/internal/account"
	accounthandler "fxgate/internal/account/handler"
	"fxgate/internal/adapters"
	"fxgate/internal/adapters/cache"
	"fxgate/internal/adapters/httpclient"
	"fxgate/internal/adapters/postgres"
	"fxgate/internal/api"
	"fxgate/internal/auth"
	"fxgate/internal/balance"
	balancehandler "fxgate/internal/balance/handler"
	"fxgate/internal/config"
	"fxgate/internal/exchange"
	exchangehandler "fxgate/internal/exchange/handler"
	"fxgate/internal/metrics"
	"fxgate/internal/platform/db"
	httpserver "fxgate/internal/platform/http"
	"fxgate/internal/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const configPath = "config.yaml"

// Run wires the application components, starts HTTP server and scheduler
func Run() error {
	appCfg, err := config.Init(configPath)
	if err != nil {
		return err
	}
	if err = appCfg.Validate(); err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(appCfg.Logging.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect, migrations)
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// DB pool
	pool, err := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return err
	}
	defer pool.Close()
	logrus.Info("✅ Postgres connection successful")

	if err = db.MigratePool(startupCtx, pool); err != nil {
		logrus.WithError(err).Error("Failed to apply migrations")
		return err
	}
	logrus.Info("✅ Migrations applied")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exchangeMetrics := metrics.NewExchangeMetrics(registry)

	// Rate provider: HTTP client with configurable timeout, optional cache
	providerTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if providerTimeout <= 0 {
		providerTimeout = 10 * time.Second
	}
	rateClient := httpclient.NewExchangeRateClient(
		&http.Client{Timeout: providerTimeout},
		fmt.Sprintf("%s/%s/latest", strings.TrimSuffix(appCfg.ExchangeRateAPI.BaseURL, "/"), appCfg.ExchangeRateAPI.APIKey),
	)

	var rateCache adapters.RateCache
	if appCfg.RateCache.TTLSeconds > 0 {
		ristrettoCache, cacheErr := cache.NewRateCache(appCfg.RateCache.MaxItems, time.Duration(appCfg.RateCache.TTLSeconds)*time.Second)
		if cacheErr != nil {
			logrus.WithError(cacheErr).Error("Failed to create rate cache")
			return cacheErr
		}
		defer ristrettoCache.Close()
		rateCache = ristrettoCache
	}
	rateProvider := exchange.NewRateProvider(rateClient, rateCache, appCfg.ExchangeRateAPI.TargetCurrency, providerTimeout, exchangeMetrics)

	// Repositories
	transactor := postgres.NewTransactor(pool)
	userRepo := postgres.NewUserRepository(pool)
	balanceRepo := postgres.NewBalanceRepository(pool)
	exchangeRepo := postgres.NewExchangeRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)

	// Services
	tokens := auth.NewTokenManager(
		appCfg.Auth.JWTSecret,
		appCfg.Auth.Issuer,
		time.Duration(appCfg.Auth.AccessTTLMinutes)*time.Minute,
		time.Duration(appCfg.Auth.RefreshTTLHours)*time.Hour,
	)
	accountService := account.NewService(transactor, userRepo, balanceRepo, sessionRepo, tokens, appCfg.Exchange.StartingBalance)
	balanceService := balance.NewService(balanceRepo)
	exchangeService := exchange.NewService(transactor, balanceRepo, exchangeRepo, rateProvider, appCfg.Exchange.Cost, exchangeMetrics)
	historyService := exchange.NewHistoryService(exchangeRepo, appCfg.History.DefaultPageSize, appCfg.History.MaxPageSize)

	scheduler := account.NewScheduler(sessionRepo, exchangeMetrics, time.Duration(appCfg.Scheduler.SessionCleanupSec)*time.Second)
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	// Start scheduler tied to root context
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.Info("✅ Scheduler activation successful")

	// Rate limiting for credential endpoints
	authRate, err := limiter.NewRateFromFormatted(appCfg.RateLimit.Auth)
	if err != nil {
		return fmt.Errorf("invalid rate_limit.auth %q: %w", appCfg.RateLimit.Auth, err)
	}

	// Handlers and router
	v := validation.New()
	router := api.NewRouter(api.Handlers{
		Account:  accounthandler.NewAccountHandler(v, accountService),
		Balance:  balancehandler.NewBalanceHandler(balanceService),
		Exchange: exchangehandler.NewExchangeHandler(v, exchangeService, historyService),
	}, api.Deps{
		Tokens:      tokens,
		AuthLimiter: limiter.New(memory.NewStore(), authRate),
		Gatherer:    registry,
	})

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop scheduler and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}
