package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/noah-isme/taxcalc/internal/calculator"
	"github.com/noah-isme/taxcalc/internal/common"
	"github.com/noah-isme/taxcalc/internal/config"
	"github.com/noah-isme/taxcalc/internal/obs"
	"github.com/noah-isme/taxcalc/internal/ratelimit"
	"github.com/noah-isme/taxcalc/internal/resilience"
)

// Dependencies holds the shared services the HTTP server is built from.
type Dependencies struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Redis       *redis.Client
	Validator   *validator.Validate
	Limiter     ratelimit.Store
	Proxies     common.TrustedProxies
	Registry    *prometheus.Registry
	HTTPMetrics *obs.HTTPMetrics
	TaxMetrics  *obs.TaxMetrics
	Calculator  *calculator.Service
}

// New wires dependencies from cfg. Redis is optional: without REDIS_URL the
// breakdown cache is off and rate limiting falls back to process memory.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	d := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Validator: calculator.NewValidator(),
		Registry:  prometheus.NewRegistry(),
	}
	d.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	proxies, err := common.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	d.Proxies = proxies

	if cfg.RedisURL != "" {
		client, err := NewRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled)
		if err != nil {
			return nil, err
		}
		d.Redis = client
		d.Limiter = ratelimit.RedisSliding{Client: client, Prefix: "ratelimit:"}
	} else {
		d.Limiter = ratelimit.NewMemory("ratelimit")
	}

	if cfg.Obs.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(cfg.Obs.MetricsBucketsMS)
		d.HTTPMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, buckets, d.Registry)
		d.TaxMetrics = obs.NewTaxMetrics(cfg.Obs.MetricsNamespace, d.Registry)
	}

	var cache *calculator.Cache
	if cfg.CacheEnabled() && d.Redis != nil {
		breaker := resilience.NewBreaker("redis_cache", 5, 0.5, 30*time.Second).
			WithLogger(logger.With().Str("component", "breaker").Logger())
		if cfg.Obs.MetricsEnabled {
			breaker.WithMetrics(resilience.NewMetrics(cfg.Obs.MetricsNamespace, d.Registry))
		}
		cache = calculator.NewCache(d.Redis, cfg.TaxCacheTTL).WithBreaker(breaker)
	}
	d.Calculator = calculator.NewService(calculator.ServiceConfig{
		Cache:   cache,
		Metrics: d.TaxMetrics,
		Logger:  logger.With().Str("component", "calculator").Logger(),
		Tracer:  otel.Tracer("calculator"),
	})
	return d, nil
}

// NewRedis connects to url, instruments the client and verifies it answers PING.
func NewRedis(ctx context.Context, url string, metrics bool) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("instrument redis metrics: %w", err)
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Close releases the Redis connection pool if one was opened.
func (d *Dependencies) Close() error {
	if d == nil || d.Redis == nil {
		return nil
	}
	return d.Redis.Close()
}

// PingRedis implements health.Checker.
func (d *Dependencies) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}
