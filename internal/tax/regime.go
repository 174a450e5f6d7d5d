package tax

import (
	"fmt"
	"strings"
)

// Regime selects the slab schedule and deduction rules used for a computation.
type Regime uint8

const (
	// RegimeUnknown is the zero value. Compute applies no deductions and no tax for it.
	RegimeUnknown Regime = iota
	// RegimeOld allows itemised deductions with the older slab schedule.
	RegimeOld
	// RegimeNew allows only the standard deduction with the flatter slab schedule.
	RegimeNew
)

// Regimes lists the selectable regimes in display order.
func Regimes() []Regime { return []Regime{RegimeOld, RegimeNew} }

// ParseRegime converts "old" or "new" (any case) into a Regime.
func ParseRegime(value string) (Regime, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "old":
		return RegimeOld, nil
	case "new":
		return RegimeNew, nil
	default:
		return RegimeUnknown, fmt.Errorf("%w: %q", ErrUnknownRegime, value)
	}
}

func (r Regime) String() string {
	switch r {
	case RegimeOld:
		return "old"
	case RegimeNew:
		return "new"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the selectable regimes.
func (r Regime) Valid() bool {
	return r == RegimeOld || r == RegimeNew
}

// MarshalText implements encoding.TextMarshaler.
func (r Regime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Regime) UnmarshalText(text []byte) error {
	parsed, err := ParseRegime(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
