package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taxcalc/internal/resilience"
)

func TestBreakerTransitions(t *testing.T) {
	breaker := resilience.NewBreaker("redis", 2, 0.5, 50*time.Millisecond)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.False(t, breaker.Allow(ctx), "breaker should open after threshold exceeded")
	require.Equal(t, resilience.Open, breaker.State())

	time.Sleep(60 * time.Millisecond)
	require.True(t, breaker.Allow(ctx), "breaker should move to half-open after cool off")
	require.False(t, breaker.Allow(ctx), "only one probe while half-open")
	breaker.Report(ctx, true)
	require.True(t, breaker.Allow(ctx), "breaker should close after successful probe")
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBreakerDoSkipsWhileOpen(t *testing.T) {
	breaker := resilience.NewBreaker("redis", 1, 0.5, time.Minute)
	ctx := context.Background()
	boom := errors.New("connection refused")
	calls := 0
	fail := func(context.Context) error {
		calls++
		return boom
	}

	require.ErrorIs(t, breaker.Do(ctx, fail, nil), boom)
	require.ErrorIs(t, breaker.Do(ctx, fail, nil), resilience.ErrOpenCircuit)
	require.Equal(t, 1, calls)
}

func TestBreakerDoTreatsExpectedErrorsAsSuccess(t *testing.T) {
	breaker := resilience.NewBreaker("redis", 1, 0.5, time.Minute)
	ctx := context.Background()
	miss := errors.New("miss")

	for i := 0; i < 3; i++ {
		err := breaker.Do(ctx, func(context.Context) error { return miss }, func(err error) bool {
			return errors.Is(err, miss)
		})
		require.ErrorIs(t, err, miss)
	}
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestNilBreakerRunsCall(t *testing.T) {
	var breaker *resilience.Breaker
	ran := false
	require.NoError(t, breaker.Do(context.Background(), func(context.Context) error {
		ran = true
		return nil
	}, nil))
	require.True(t, ran)
}

func TestBreakerMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := resilience.NewMetrics("taxcalc", registry)
	require.Same(t, metrics.State, resilience.NewMetrics("taxcalc", registry).State)

	breaker := resilience.NewBreaker("redis", 1, 0.5, time.Minute).WithMetrics(metrics)
	ctx := context.Background()
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.State.WithLabelValues("redis")))

	breaker.Report(ctx, false)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.State.WithLabelValues("redis")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Transitions.WithLabelValues("redis", "closed", "open")))
}
