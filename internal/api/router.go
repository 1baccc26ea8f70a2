package api

import (
	"net/http"

	"github.com/ayo6706/transfer-saga/internal/api/handler"
	"github.com/ayo6706/transfer-saga/internal/api/middleware"
	"github.com/ayo6706/transfer-saga/internal/api/spec"
	"github.com/ayo6706/transfer-saga/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type Router struct {
	logger      *zap.Logger
	accountSvc  *service.AccountService
	transferSvc *service.TransferService
	health      *handler.HealthHandler

	metrics      bool
	docs         bool
	rateLimitRPS int
}

func NewRouter(logger *zap.Logger, accountSvc *service.AccountService, transferSvc *service.TransferService, health *handler.HealthHandler) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if health == nil {
		health = handler.NewHealthHandler()
	}
	return &Router{
		logger:      logger,
		accountSvc:  accountSvc,
		transferSvc: transferSvc,
		health:      health,
	}
}

// WithMetrics exposes /metrics.
func (api *Router) WithMetrics() *Router {
	api.metrics = true
	return api
}

// WithDocs exposes /openapi.yaml and the Swagger UI under /swagger/.
func (api *Router) WithDocs() *Router {
	api.docs = true
	return api
}

// WithRateLimit limits every client IP to rps requests per second.
func (api *Router) WithRateLimit(rps int) *Router {
	if rps > 0 {
		api.rateLimitRPS = rps
	}
	return api
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	r.Get("/health/live", api.health.Live)
	r.Get("/health/ready", api.health.Ready)
	if api.metrics {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}
	if api.docs {
		r.Get("/openapi.yaml", spec.OpenAPIHandler())
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	}

	accountHandler := handler.NewAccountHandler(api.accountSvc)
	transferHandler := handler.NewTransferHandler(api.transferSvc)

	r.Group(func(r chi.Router) {
		if api.rateLimitRPS > 0 {
			r.Use(middleware.RateLimiter(api.rateLimitRPS))
		}

		r.Post("/accounts", accountHandler.CreateAccount)
		r.Get("/accounts/{id}", accountHandler.GetAccount)
		r.Post("/accounts/{id}/deposit", accountHandler.Deposit)

		r.Post("/transfers", transferHandler.MakeTransfer)
		r.Get("/transfers/{id}", transferHandler.GetTransfer)
	})

	return r
}
