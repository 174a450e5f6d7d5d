package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/taxcalc/internal/calculator"
	"github.com/noah-isme/taxcalc/internal/health"
	"github.com/noah-isme/taxcalc/internal/obs"
	"github.com/noah-isme/taxcalc/internal/ratelimit"
	"github.com/noah-isme/taxcalc/internal/security"
)

// Router builds the HTTP handler tree.
func (d *Dependencies) Router() http.Handler {
	cfg := d.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.Obs.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{
		Logger:    d.Logger,
		SkipPaths: []string{"/health/live", "/health/ready", "/metrics"},
		Proxies:   d.Proxies,
	}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.HSTSEnabled}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))

	if d.HTTPMetrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	healthHandler := health.Handler{RedisTimeout: 300 * time.Millisecond}
	if d.Redis != nil {
		healthHandler.Checker = d
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	taxHandler := calculator.NewHandler(calculator.HandlerConfig{Service: d.Calculator, Validator: d.Validator})
	limit := ratelimit.Handler{
		Limiter: d.Limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP("tax:", d.Proxies),
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			d.Logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	r.Route("/api/v1/tax", func(t chi.Router) {
		t.Use(limit.Middleware)
		t.Get("/regimes", taxHandler.Regimes)
		t.Group(func(g chi.Router) {
			g.Use(security.BodyLimit{Max: cfg.RequestBodyLimitBytes}.Middleware)
			g.Post("/compute", taxHandler.Compute)
			g.Post("/compare", taxHandler.Compare)
		})
	})

	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
