package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_bazar/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Products       *ProductHandler
	Metrics        *metrics.Registry
	Log            *zap.Logger
	RequestTimeout time.Duration
	MaxBodySize    int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(AccessLog(cfg.Log))
	r.Use(Metrics(cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(MaxBodySize(cfg.MaxBodySize))

	health := func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	r.Get("/", health)
	r.Get("/health", health)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/items", cfg.Products.Search)
		r.Get("/items/{id}", cfg.Products.Get)
		r.Post("/create", cfg.Products.Create)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not_found", "route not found")
	})

	return otelhttp.NewHandler(r, "catalog")
}
