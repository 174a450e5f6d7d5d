package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const section80CLimit = 150_000

// Section80CLimit returns the maximum 80C deduction accepted by input forms.
// Compute does not enforce it.
func Section80CLimit() decimal.Decimal { return decimal.NewFromInt(section80CLimit) }

// Deductions holds the itemised chapter VI-A deductions. The zero value means none.
type Deductions struct {
	Section80C decimal.Decimal `json:"section80C"`
	Section80D decimal.Decimal `json:"section80D"`
}

// TaxInputs is the full set of figures needed for one computation.
type TaxInputs struct {
	SalaryIncome     decimal.Decimal `json:"salaryIncome"`
	OtherIncome      decimal.Decimal `json:"otherIncome"`
	Regime           Regime          `json:"regime"`
	Deductions       Deductions      `json:"deductions"`
	HRAExemption     decimal.Decimal `json:"hraExemption"`
	HomeLoanInterest decimal.Decimal `json:"homeLoanInterest"`
}

// Validate rejects negative amounts and regimes other than old or new.
func (in TaxInputs) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"salaryIncome", in.SalaryIncome},
		{"otherIncome", in.OtherIncome},
		{"deductions.section80C", in.Deductions.Section80C},
		{"deductions.section80D", in.Deductions.Section80D},
		{"hraExemption", in.HRAExemption},
		{"homeLoanInterest", in.HomeLoanInterest},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, f.name)
		}
	}
	if !in.Regime.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownRegime, in.Regime)
	}
	return nil
}

// WithRegime returns a copy of in computed under r.
func (in TaxInputs) WithRegime(r Regime) TaxInputs {
	in.Regime = r
	return in
}

// itemised sums the deductions only the old regime honours.
func (in TaxInputs) itemised() decimal.Decimal {
	return in.Deductions.Section80C.
		Add(in.Deductions.Section80D).
		Add(in.HomeLoanInterest).
		Add(in.HRAExemption)
}

// normalized clamps negative amounts to zero.
func (in TaxInputs) normalized() TaxInputs {
	in.SalaryIncome = nonNegative(in.SalaryIncome)
	in.OtherIncome = nonNegative(in.OtherIncome)
	in.Deductions.Section80C = nonNegative(in.Deductions.Section80C)
	in.Deductions.Section80D = nonNegative(in.Deductions.Section80D)
	in.HRAExemption = nonNegative(in.HRAExemption)
	in.HomeLoanInterest = nonNegative(in.HomeLoanInterest)
	return in
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
