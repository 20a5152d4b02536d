package api

import (
	"net/http"

	_ "fxgate/docs"
	accounthandler "fxgate/internal/account/handler"
	"fxgate/internal/auth"
	balancehandler "fxgate/internal/balance/handler"
	exchangehandler "fxgate/internal/exchange/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swagger "github.com/swaggo/http-swagger"
	"github.com/ulule/limiter/v3"
)

type Handlers struct {
	Account  *accounthandler.Handler
	Balance  *balancehandler.Handler
	Exchange *exchangehandler.Handler
}

type Deps struct {
	Tokens      *auth.TokenManager
	AuthLimiter *limiter.Limiter
	Gatherer    prometheus.Gatherer
}

func NewRouter(h Handlers, deps Deps) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(AccessLog)
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Heartbeat("/healthz"))

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(deps.AuthLimiter))
			r.Post("/register", h.Account.Register)
			r.Post("/auth/token", h.Account.ObtainToken)
		})
		r.Post("/auth/token/refresh", h.Account.RefreshToken)
		r.Post("/auth/logout", h.Account.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(deps.Tokens))
			r.Get("/balance", h.Balance.GetBalance)
			r.Post("/currency", h.Exchange.CreateRecord)
			r.Get("/history", h.Exchange.History)
		})
	})
	return router
}
