package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/noah-isme/taxcalc/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("taxcalc", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tax/compute", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/tax/compute"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/tax/compute", "204"))
	if total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}

	samples := testutil.CollectAndCount(metrics.ReqDur)
	if samples == 0 {
		t.Fatalf("expected histogram sample")
	}

	if metrics.InFlight != nil {
		if val := testutil.ToFloat64(metrics.InFlight); val != 0 {
			t.Fatalf("expected no in-flight requests, got %v", val)
		}
	}
}

func TestTaxMetricsReuseRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewTaxMetrics("taxcalc", registry)
	second := obs.NewTaxMetrics("taxcalc", registry)

	second.ObserveComputation("new", "ok")
	second.ObserveTaxable("new", 550_000)
	second.ObserveComputation("old", "invalid")
	second.ObserveCache("hit")

	if got := testutil.ToFloat64(first.Computations.WithLabelValues("new", "ok")); got != 1 {
		t.Fatalf("expected shared counter, got %v", got)
	}
	if got := testutil.CollectAndCount(first.TaxableIncome); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
	if got := testutil.ToFloat64(first.CacheLookups.WithLabelValues("hit")); got != 1 {
		t.Fatalf("expected cache hit counted, got %v", got)
	}

	var nilMetrics *obs.TaxMetrics
	nilMetrics.ObserveCache("miss")
}
