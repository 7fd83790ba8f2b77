package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/aiox-platform/shopassist/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Assistant
	Chat        http.HandlerFunc
	QuickChat   http.HandlerFunc
	ResetChat   http.HandlerFunc
	ChatHistory http.HandlerFunc
	ChatEvents  http.HandlerFunc

	// Catalog
	SearchProducts http.HandlerFunc
	GetProduct     http.HandlerFunc
	ProductCtx     func(http.Handler) http.Handler

	// Cart
	GetCart        http.HandlerFunc
	AddCartItem    http.HandlerFunc
	RemoveCartItem http.HandlerFunc

	AuthMiddleware func(http.Handler) http.Handler
}

// Probes are the readiness checks. A nil NATS probe reports "not configured".
type Probes struct {
	Database func(ctx context.Context) error
	Redis    func(ctx context.Context) error
	NATS     func() bool
}

type RouterConfig struct {
	CORSAllowedOrigins []string
	// ChatRateLimiter throttles the endpoints that run a dialogue turn.
	ChatRateLimiter func(http.Handler) http.Handler
}

func NewRouter(probes Probes, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe: always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"redis":    "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if probes.Database != nil {
			if err := probes.Database(r.Context()); err != nil {
				health["database"] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		// The context store fails open, so Redis degrades without failing readiness.
		if probes.Redis != nil {
			if err := probes.Redis(r.Context()); err != nil {
				health["redis"] = "unhealthy"
				health["status"] = "degraded"
			}
		}

		switch {
		case probes.NATS == nil:
			health["nats"] = "not configured"
		case !probes.NATS():
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Route("/chat", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.ChatRateLimiter != nil {
					r.Use(cfg.ChatRateLimiter)
				}
				r.Post("/", h.Chat)
				r.Post("/quick", h.QuickChat)
			})
			r.Post("/reset", h.ResetChat)
			r.Get("/history", h.ChatHistory)
			r.Get("/events", h.ChatEvents)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/search", h.SearchProducts)
			r.Route("/{productID}", func(r chi.Router) {
				r.Use(h.ProductCtx)
				r.Get("/", h.GetProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddCartItem)
			r.Delete("/items/{productID}", h.RemoveCartItem)
		})
	})

	return r
}
