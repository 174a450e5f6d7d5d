// Package tax computes personal income tax under the old and new regimes.
//
// Compute is pure: it holds no state, performs no I/O and is safe to call from
// any number of goroutines.
package tax

import "github.com/shopspring/decimal"

// TaxBreakdown is the result of a single computation.
type TaxBreakdown struct {
	Regime          Regime          `json:"regime"`
	GrossIncome     decimal.Decimal `json:"grossIncome"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TaxableIncome   decimal.Decimal `json:"taxableIncome"`
	TaxBeforeCess   decimal.Decimal `json:"taxBeforeCess"`
	Cess            decimal.Decimal `json:"cess"`
	TotalTaxPayable decimal.Decimal `json:"totalTaxPayable"`

	// IgnoredDeductions is the itemised amount supplied but not allowed by the regime.
	IgnoredDeductions decimal.Decimal `json:"ignoredDeductions"`

	// RebateApplied reports whether the rebate zeroed a positive slab tax.
	RebateApplied bool `json:"rebateApplied"`
}

// Compute maps inputs to a tax breakdown. It never fails: negative amounts are
// treated as zero, and RegimeUnknown yields zero deductions and zero tax. Callers
// that accept user input should run TaxInputs.Validate first.
//
// Under the new regime only the standard deduction counts; 80C, 80D, HRA and home
// loan interest are reported in IgnoredDeductions and have no effect.
func Compute(in TaxInputs) TaxBreakdown {
	in = in.normalized()

	gross := in.SalaryIncome.Add(in.OtherIncome)
	deductions, ignored := totalDeductions(in)
	taxable := decimal.Max(decimal.Zero, gross.Sub(deductions))

	tax := decimal.Zero
	rebate := false
	if s, ok := ScheduleFor(in.Regime); ok {
		tax = s.slabTax(taxable)
		// Rebate zeroes the slab result; it is not a zero-rate band.
		if taxable.LessThanOrEqual(s.RebateLimit) {
			rebate = tax.IsPositive()
			tax = decimal.Zero
		}
	}

	cess := tax.Mul(cessRate())
	return TaxBreakdown{
		Regime:            in.Regime,
		GrossIncome:       gross,
		TotalDeductions:   deductions,
		IgnoredDeductions: ignored,
		TaxableIncome:     taxable,
		TaxBeforeCess:     tax,
		Cess:              cess,
		TotalTaxPayable:   tax.Add(cess),
		RebateApplied:     rebate,
	}
}

func totalDeductions(in TaxInputs) (allowed, ignored decimal.Decimal) {
	itemised := in.itemised()
	switch in.Regime {
	case RegimeOld:
		return StandardDeduction().Add(itemised), decimal.Zero
	case RegimeNew:
		return StandardDeduction(), itemised
	default:
		return decimal.Zero, itemised
	}
}
