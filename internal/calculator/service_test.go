package calculator_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taxcalc/internal/calculator"
	"github.com/noah-isme/taxcalc/internal/obs"
	"github.com/noah-isme/taxcalc/internal/resilience"
	"github.com/noah-isme/taxcalc/internal/tax"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func scenarioInputs() tax.TaxInputs {
	return tax.TaxInputs{
		SalaryIncome: decimal.NewFromInt(900_000),
		Regime:       tax.RegimeOld,
		Deductions: tax.Deductions{
			Section80C: decimal.NewFromInt(150_000),
			Section80D: decimal.NewFromInt(25_000),
		},
	}
}

func TestServiceComputeCachesBreakdown(t *testing.T) {
	mr, client := newRedis(t)
	registry := prometheus.NewRegistry()
	metrics := obs.NewTaxMetrics("test", registry)
	svc := calculator.NewService(calculator.ServiceConfig{
		Cache:   calculator.NewCache(client, time.Minute),
		Metrics: metrics,
	})

	ctx := context.Background()
	first, err := svc.Compute(ctx, scenarioInputs())
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 1)

	second, err := svc.Compute(ctx, scenarioInputs())
	require.NoError(t, err)
	require.True(t, first.TotalTaxPayable.Equal(second.TotalTaxPayable))
	require.True(t, second.TotalTaxPayable.Equal(decimal.NewFromInt(49_400)))
	require.Equal(t, tax.RegimeOld, second.Regime)

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("miss")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit")))
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.Computations.WithLabelValues("old", "ok")))

	mr.FastForward(2 * time.Minute)
	require.Empty(t, mr.Keys())
}

func TestServiceComputeEquivalentAmountsShareKey(t *testing.T) {
	mr, client := newRedis(t)
	svc := calculator.NewService(calculator.ServiceConfig{Cache: calculator.NewCache(client, time.Minute)})

	in := scenarioInputs()
	_, err := svc.Compute(context.Background(), in)
	require.NoError(t, err)

	in.SalaryIncome = decimal.RequireFromString("900000.00")
	_, err = svc.Compute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 1)
}

func TestServiceComputeSurvivesCacheOutage(t *testing.T) {
	mr, client := newRedis(t)
	registry := prometheus.NewRegistry()
	metrics := obs.NewTaxMetrics("test", registry)
	svc := calculator.NewService(calculator.ServiceConfig{
		Cache:   calculator.NewCache(client, time.Minute),
		Metrics: metrics,
	})
	mr.Close()

	b, err := svc.Compute(context.Background(), scenarioInputs())
	require.NoError(t, err)
	require.True(t, b.TotalTaxPayable.Equal(decimal.NewFromInt(49_400)))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("error")))
}

func TestServiceComputeSkipsCacheWhileBreakerOpen(t *testing.T) {
	mr, client := newRedis(t)
	registry := prometheus.NewRegistry()
	metrics := obs.NewTaxMetrics("test", registry)
	breaker := resilience.NewBreaker("redis", 1, 0.5, time.Minute)
	svc := calculator.NewService(calculator.ServiceConfig{
		Cache:   calculator.NewCache(client, time.Minute).WithBreaker(breaker),
		Metrics: metrics,
	})
	mr.Close()

	for i := 0; i < 2; i++ {
		b, err := svc.Compute(context.Background(), scenarioInputs())
		require.NoError(t, err)
		require.True(t, b.TotalTaxPayable.Equal(decimal.NewFromInt(49_400)))
	}
	require.Equal(t, resilience.Open, breaker.State())
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("error")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("skipped")))
}

func TestServiceComputeRejectsInvalidInputs(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewTaxMetrics("test", registry)
	svc := calculator.NewService(calculator.ServiceConfig{Metrics: metrics})

	in := scenarioInputs()
	in.OtherIncome = decimal.NewFromInt(-1)
	_, err := svc.Compute(context.Background(), in)
	require.ErrorIs(t, err, tax.ErrInvalidInput)

	in = scenarioInputs()
	in.Regime = tax.RegimeUnknown
	_, err = svc.Compute(context.Background(), in)
	require.ErrorIs(t, err, tax.ErrUnknownRegime)

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Computations.WithLabelValues("old", "invalid")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Computations.WithLabelValues("unknown", "invalid")))
}

func TestServiceCompare(t *testing.T) {
	svc := calculator.NewService(calculator.ServiceConfig{})
	in := scenarioInputs()
	in.Regime = tax.RegimeUnknown

	c, err := svc.Compare(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, tax.RegimeNew, c.Recommended)
	require.True(t, c.Savings.Equal(decimal.NewFromInt(7_800)))

	in.HRAExemption = decimal.NewFromInt(-10)
	_, err = svc.Compare(context.Background(), in)
	require.ErrorIs(t, err, tax.ErrInvalidInput)

	require.Len(t, svc.Schedules(), 2)
}
