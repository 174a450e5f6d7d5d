package obs

import "github.com/prometheus/client_golang/prometheus"

// TaxMetrics groups collectors describing tax computations.
type TaxMetrics struct {
	// Computations counts computations by regime and result (ok, invalid).
	Computations *prometheus.CounterVec
	// CacheLookups counts breakdown cache lookups by result (hit, miss, error, skipped).
	CacheLookups *prometheus.CounterVec
	// TaxableIncome observes taxable income per regime in rupees.
	TaxableIncome *prometheus.HistogramVec
}

// NewTaxMetrics registers and returns the tax domain collectors.
func NewTaxMetrics(namespace string, reg prometheus.Registerer) *TaxMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &TaxMetrics{
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_computations_total",
			Help:      "Count of tax computations by regime and outcome.",
		}, []string{"regime", "result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_cache_lookups_total",
			Help:      "Count of breakdown cache lookups by outcome.",
		}, []string{"result"}),
		TaxableIncome: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tax_taxable_income_rupees",
			Help:      "Distribution of computed taxable income.",
			Buckets:   []float64{250_000, 500_000, 700_000, 1_000_000, 1_500_000, 2_500_000, 5_000_000},
		}, []string{"regime"}),
	}

	m.Computations = registerCollector(reg, m.Computations)
	m.CacheLookups = registerCollector(reg, m.CacheLookups)
	m.TaxableIncome = registerCollector(reg, m.TaxableIncome)
	return m
}

// ObserveComputation records one computation outcome. A nil receiver is a no-op.
func (m *TaxMetrics) ObserveComputation(regime, result string) {
	if m == nil {
		return
	}
	m.Computations.WithLabelValues(regime, result).Inc()
}

// ObserveTaxable records the taxable income of a successful computation.
func (m *TaxMetrics) ObserveTaxable(regime string, taxable float64) {
	if m == nil {
		return
	}
	m.TaxableIncome.WithLabelValues(regime).Observe(taxable)
}

// ObserveCache records one cache lookup outcome. A nil receiver is a no-op.
func (m *TaxMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
