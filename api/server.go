/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID / RealIP
  2. httplog:    Structured request logging (ECS schema)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. secure:     Security headers
  5. CORS:       Cross-origin requests for a frontend
  6. metrics:    Request counts and latency per route pattern

  Export endpoints are additionally rate limited per client IP: one
  export fans out to several RotaCloud calls per employee.

ROUTE GROUPS:
  /api/health, /api/periods/*  Period selection
  /api/exports/*               Preview, download, enqueue (rate limited)
  /api/runs/*                  Run history
  /api/scenarios/*             Demo data sets
  /metrics                     Prometheus

SECURITY NOTE:
  No user authentication. Callers authenticate to RotaCloud with their own
  key; the server only forwards it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/warp/payroll-export/metrics"
)

// RouterConfig tunes the middleware stack.
type RouterConfig struct {
	Logger             *slog.Logger
	Metrics            *metrics.Metrics
	CORSOrigins        []string
	RateLimitPerMinute int // 0 disables the export rate limit
	Production         bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = h.Logger
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !cfg.Production,
	})

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(secureMiddleware.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", APIKeyHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-Run-Id", "X-Run-Digest", "X-Run-Warnings"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(cfg.Metrics.Middleware)

	r.Handle("/metrics", cfg.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/periods", func(r chi.Router) {
			r.Get("/default", h.DefaultPeriod)
			r.Get("/{year}/{month}", h.GetPeriod)
		})

		r.Route("/exports", func(r chi.Router) {
			if cfg.RateLimitPerMinute > 0 {
				r.Use(httprate.Limit(cfg.RateLimitPerMinute, time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						writeError(w, http.StatusTooManyRequests, "Too many export requests", nil)
					}),
				))
			}
			r.Post("/", h.CreateExport)
			r.Post("/preview", h.PreviewExport)
			r.Post("/async", h.EnqueueExport)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Get("/{id}", h.GetRun)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/{id}/preview", h.PreviewScenario)
		})
	})

	return r
}
