package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Engine   EngineAPI
	Ledger   LedgerAPI
	Oracle   OracleAPI
	Hub      *WebSocketHub
	Renderer BoardRenderer

	// DebugToken gates /api/inject. Empty disables the route.
	DebugToken string

	// AllowedOrigins for CORS. Empty means allow all.
	AllowedOrigins []string

	// RateLimiter guards the public routes. Optional.
	RateLimiter *IPRateLimiter

	// DisableLogging turns off per-request logging (tests).
	DisableLogging bool
}

// OracleAPI mirrors the engine's epoch oracle shape.
type OracleAPI interface {
	CurrentEpoch() (uint32, bool)
}

// NewRouter builds the public API router.
func NewRouter(cfg RouterConfig) http.Handler {
	h := &handlers{
		engine:   cfg.Engine,
		ledger:   cfg.Ledger,
		oracle:   cfg.Oracle,
		hub:      cfg.Hub,
		renderer: cfg.Renderer,
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metricsMiddleware)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", debugTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleState)
		r.Get("/cell", h.handleCell)
		r.Get("/stats", h.handleStats)
		r.Get("/epoch", h.handleEpoch)
		r.Get("/balances", h.handleBalances)
		r.Get("/board.png", h.handleBoardPNG)
		r.Post("/resolve", h.handleResolve)

		r.Group(func(r chi.Router) {
			r.Use(debugTokenMiddleware(cfg.DebugToken))
			r.Post("/inject", h.handleInject)
		})
	})

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.ServeWS)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// metricsMiddleware records latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		RecordRequest(r.Method, endpoint, time.Since(start))
	})
}
