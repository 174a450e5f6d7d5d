package tax

import "github.com/shopspring/decimal"

// Comparison holds the same inputs computed under both regimes.
type Comparison struct {
	Old         TaxBreakdown    `json:"old"`
	New         TaxBreakdown    `json:"new"`
	Recommended Regime          `json:"recommended"`
	Savings     decimal.Decimal `json:"savings"`
}

// Compare computes in under both regimes, ignoring in.Regime. The regime with the
// lower total is recommended; ties go to the new regime.
func Compare(in TaxInputs) Comparison {
	oldResult := Compute(in.WithRegime(RegimeOld))
	newResult := Compute(in.WithRegime(RegimeNew))

	c := Comparison{Old: oldResult, New: newResult, Recommended: RegimeNew}
	if oldResult.TotalTaxPayable.LessThan(newResult.TotalTaxPayable) {
		c.Recommended = RegimeOld
	}
	c.Savings = oldResult.TotalTaxPayable.Sub(newResult.TotalTaxPayable).Abs()
	return c
}
