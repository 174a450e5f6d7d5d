// Package calculator exposes the tax engine to transports: it validates inputs,
// caches breakdowns and records metrics and traces around each computation.
package calculator

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/taxcalc/internal/obs"
	"github.com/noah-isme/taxcalc/internal/resilience"
	"github.com/noah-isme/taxcalc/internal/tax"
)

// ServiceConfig wires the optional collaborators of a Service.
type ServiceConfig struct {
	Cache   *Cache
	Metrics *obs.TaxMetrics
	Logger  zerolog.Logger
	Tracer  trace.Tracer
}

// Service computes breakdowns on behalf of the HTTP and CLI front ends.
// It is safe for concurrent use.
type Service struct {
	cache   *Cache
	metrics *obs.TaxMetrics
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewService constructs a Service. Every field of cfg is optional.
func NewService(cfg ServiceConfig) *Service {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("calculator")
	}
	return &Service{
		cache:   cfg.Cache,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		tracer:  tracer,
	}
}

// Compute validates in and returns its breakdown, using the cache when configured.
// Errors wrap tax.ErrInvalidInput or tax.ErrUnknownRegime.
func (s *Service) Compute(ctx context.Context, in tax.TaxInputs) (tax.TaxBreakdown, error) {
	ctx, span := s.tracer.Start(ctx, "calculator.Compute",
		trace.WithAttributes(attribute.String("tax.regime", in.Regime.String())))
	defer span.End()

	if err := in.Validate(); err != nil {
		s.metrics.ObserveComputation(in.Regime.String(), "invalid")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid input")
		return tax.TaxBreakdown{}, err
	}

	b, hit := s.lookup(ctx, in)
	if !hit {
		b = tax.Compute(in)
		if err := s.cache.Set(ctx, in, b); err != nil && !errors.Is(err, resilience.ErrOpenCircuit) {
			obs.LoggerFrom(ctx, s.logger).Warn().Err(err).Str("regime", in.Regime.String()).Msg("store tax breakdown")
		}
	}
	span.SetAttributes(attribute.Bool("tax.cache_hit", hit), attribute.Bool("tax.rebate", b.RebateApplied))

	taxable, _ := b.TaxableIncome.Float64()
	s.metrics.ObserveComputation(in.Regime.String(), "ok")
	s.metrics.ObserveTaxable(in.Regime.String(), taxable)
	return b, nil
}

// Compare computes in under both regimes. in.Regime is ignored.
func (s *Service) Compare(ctx context.Context, in tax.TaxInputs) (tax.Comparison, error) {
	_, span := s.tracer.Start(ctx, "calculator.Compare")
	defer span.End()

	// Any valid regime passes validation; only amounts matter here.
	if err := in.WithRegime(tax.RegimeNew).Validate(); err != nil {
		s.metrics.ObserveComputation("compare", "invalid")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid input")
		return tax.Comparison{}, err
	}
	c := tax.Compare(in)
	span.SetAttributes(attribute.String("tax.recommended", c.Recommended.String()))
	s.metrics.ObserveComputation("compare", "ok")
	return c, nil
}

// Schedules lists the slab schedules of both regimes.
func (s *Service) Schedules() []tax.Schedule {
	return tax.Schedules()
}

func (s *Service) lookup(ctx context.Context, in tax.TaxInputs) (tax.TaxBreakdown, bool) {
	if !s.cache.enabled() {
		return tax.TaxBreakdown{}, false
	}
	b, ok, err := s.cache.Get(ctx, in)
	switch {
	case errors.Is(err, resilience.ErrOpenCircuit):
		s.metrics.ObserveCache("skipped")
		return tax.TaxBreakdown{}, false
	case err != nil:
		s.metrics.ObserveCache("error")
		obs.LoggerFrom(ctx, s.logger).Warn().Err(err).Str("regime", in.Regime.String()).Msg("load tax breakdown")
		return tax.TaxBreakdown{}, false
	case ok:
		s.metrics.ObserveCache("hit")
		return b, true
	default:
		s.metrics.ObserveCache("miss")
		return tax.TaxBreakdown{}, false
	}
}
