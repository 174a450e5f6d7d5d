package tax

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := TaxInputs{SalaryIncome: d(900_000), Regime: RegimeOld}
	require.NoError(t, valid.Validate())

	negative := valid
	negative.HRAExemption = d(-1)
	err := negative.Validate()
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), "hraExemption")

	unknown := valid
	unknown.Regime = RegimeUnknown
	require.ErrorIs(t, unknown.Validate(), ErrUnknownRegime)
}

func TestParseRegime(t *testing.T) {
	r, err := ParseRegime(" OLD ")
	require.NoError(t, err)
	require.Equal(t, RegimeOld, r)

	r, err = ParseRegime("new")
	require.NoError(t, err)
	require.Equal(t, RegimeNew, r)

	_, err = ParseRegime("flat")
	require.True(t, errors.Is(err, ErrUnknownRegime))
}

func TestTaxInputsJSON(t *testing.T) {
	var in TaxInputs
	payload := `{"salaryIncome":900000,"otherIncome":"0","regime":"old","deductions":{"section80C":150000,"section80D":25000}}`
	require.NoError(t, json.Unmarshal([]byte(payload), &in))
	require.Equal(t, RegimeOld, in.Regime)
	require.True(t, in.Deductions.Section80C.Equal(d(150_000)))
	require.True(t, in.HRAExemption.IsZero())

	out, err := json.Marshal(Compute(in))
	require.NoError(t, err)
	require.Contains(t, string(out), `"regime":"old"`)
	require.Contains(t, string(out), `"totalTaxPayable":"49400"`)

	require.Error(t, json.Unmarshal([]byte(`{"regime":"flat"}`), &in))
}

func TestSchedulesAreCopies(t *testing.T) {
	s, ok := ScheduleFor(RegimeNew)
	require.True(t, ok)
	require.Len(t, s.Bands, 6)
	s.Bands[0].Rate = d(1)

	fresh, _ := ScheduleFor(RegimeNew)
	require.True(t, fresh.Bands[0].Rate.IsZero())

	_, ok = ScheduleFor(RegimeUnknown)
	require.False(t, ok)
	require.Len(t, Schedules(), 2)

	regimes := Regimes()
	regimes[0] = RegimeUnknown
	require.Equal(t, []Regime{RegimeOld, RegimeNew}, Regimes())
	require.Equal(t, RegimeOld, Schedules()[0].Regime)

	require.True(t, Section80CLimit().Equal(d(150_000)))
	require.True(t, StandardDeduction().Equal(d(50_000)))
}

func TestCompare(t *testing.T) {
	in := TaxInputs{
		SalaryIncome: d(900_000),
		Regime:       RegimeUnknown,
		Deductions:   Deductions{Section80C: d(150_000), Section80D: d(25_000)},
	}
	c := Compare(in)
	// old: 49,400; new: taxable 850,000 → 15,000 + 25,000 = 40,000 + 1,600 cess.
	requireAmount(t, "49400", c.Old.TotalTaxPayable, "old")
	requireAmount(t, "41600", c.New.TotalTaxPayable, "new")
	require.Equal(t, RegimeNew, c.Recommended)
	requireAmount(t, "7800", c.Savings, "savings")

	tie := Compare(TaxInputs{SalaryIncome: d(400_000)})
	require.Equal(t, RegimeNew, tie.Recommended)
	require.True(t, tie.Savings.IsZero())
}
