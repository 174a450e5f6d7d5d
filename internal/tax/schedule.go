package tax

import "github.com/shopspring/decimal"

// Band is one slab of a progressive schedule. An unbounded band absorbs whatever
// income remains.
type Band struct {
	Width     decimal.Decimal `json:"width"`
	Rate      decimal.Decimal `json:"rate"`
	Unbounded bool            `json:"unbounded"`
}

// Schedule describes how a regime taxes income.
type Schedule struct {
	Regime             Regime          `json:"regime"`
	StandardDeduction  decimal.Decimal `json:"standardDeduction"`
	ItemisedDeductions bool            `json:"itemisedDeductions"`
	RebateLimit        decimal.Decimal `json:"rebateLimit"`
	Bands              []Band          `json:"bands"`
}

// standardDeduction is subtracted from gross income under both regimes.
const standardDeduction = 50_000

// cessRate is the health and education cess charged on tax.
func cessRate() decimal.Decimal { return percent(4) }

// StandardDeduction returns the flat deduction allowed under both regimes.
func StandardDeduction() decimal.Decimal { return amount(standardDeduction) }

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func percent(v int64) decimal.Decimal { return decimal.New(v, -2) }

var oldSchedule = Schedule{
	Regime:             RegimeOld,
	StandardDeduction:  amount(standardDeduction),
	ItemisedDeductions: true,
	RebateLimit:        amount(500_000),
	Bands: []Band{
		{Width: amount(250_000), Rate: percent(0)},
		{Width: amount(250_000), Rate: percent(5)},
		{Width: amount(500_000), Rate: percent(20)},
		{Rate: percent(30), Unbounded: true},
	},
}

var newSchedule = Schedule{
	Regime:            RegimeNew,
	StandardDeduction: amount(standardDeduction),
	RebateLimit:       amount(700_000),
	Bands: []Band{
		{Width: amount(300_000), Rate: percent(0)},
		{Width: amount(300_000), Rate: percent(5)},
		{Width: amount(300_000), Rate: percent(10)},
		{Width: amount(300_000), Rate: percent(15)},
		{Width: amount(300_000), Rate: percent(20)},
		{Rate: percent(30), Unbounded: true},
	},
}

// ScheduleFor returns a copy of the schedule for r. ok is false for RegimeUnknown.
func ScheduleFor(r Regime) (Schedule, bool) {
	var s Schedule
	switch r {
	case RegimeOld:
		s = oldSchedule
	case RegimeNew:
		s = newSchedule
	default:
		return Schedule{}, false
	}
	s.Bands = append([]Band(nil), s.Bands...)
	return s, true
}

// Schedules returns copies of every selectable schedule.
func Schedules() []Schedule {
	regimes := Regimes()
	out := make([]Schedule, 0, len(regimes))
	for _, r := range regimes {
		if s, ok := ScheduleFor(r); ok {
			out = append(out, s)
		}
	}
	return out
}

// slabTax accumulates rate × consumed amount band by band until income runs out.
func (s Schedule) slabTax(taxable decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	remaining := taxable
	for _, b := range s.Bands {
		if !remaining.IsPositive() {
			break
		}
		inBand := remaining
		if !b.Unbounded {
			inBand = decimal.Min(b.Width, remaining)
		}
		tax = tax.Add(inBand.Mul(b.Rate))
		remaining = remaining.Sub(inBand)
	}
	return tax
}
