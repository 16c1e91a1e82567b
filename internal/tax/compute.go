// Package tax decomposes tax-inclusive restaurant prices into their
// tax-exclusive and VAT parts, matching the rounding printed on receipts.
//
// All amounts are int64 euro cents. Rounding to two decimals is therefore
// rounding to an integer, done with math.Round (half up for non-negative
// values) on the per-unit price BEFORE multiplying by quantity. Receipts
// round per unit, so the recap must too, or the two stop reconciling.
//
// This package is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
package tax

import "math"

// LineBreakdown is the VAT decomposition of one order line.
type LineBreakdown struct {
	Rate     Rate
	Quantity int64

	// Per-unit amounts in cents, rounded independently.
	UnitTTC int64
	UnitHT  int64
	UnitTVA int64

	// Line totals: rounded unit values multiplied by quantity.
	TotalTTC int64
	TotalHT  int64
	TotalTVA int64

	// UsedDefaultRate marks lines that carried no usable explicit rate and
	// were computed at the configured default. Callers surface this in logs
	// and telemetry so broken catalog data stays visible.
	UsedDefaultRate bool
}

// ComputeLine decomposes a tax-inclusive unit price into HT and TVA.
//
// rate is the explicit fraction on the line, nil when the catalog item has
// none; defaultRate applies in that case. An explicit but unsupported rate
// also falls back to defaultRate rather than failing the whole period.
func ComputeLine(unitTTC int64, quantity int64, rate *float64, defaultRate Rate) (LineBreakdown, error) {
	if unitTTC < 0 {
		return LineBreakdown{}, ErrNegativePrice
	}
	if quantity < 0 {
		return LineBreakdown{}, ErrNegativeQuantity
	}
	if !defaultRate.Valid() {
		return LineBreakdown{}, ErrUnsupportedRate
	}

	resolved := defaultRate
	usedDefault := true
	if rate != nil {
		if r, ok := RateFromFraction(*rate); ok {
			resolved = r
			usedDefault = false
		}
	}

	unitHT := unitTTC
	if resolved != RateExempt {
		unitHT = int64(math.Round(float64(unitTTC) / (1 + resolved.Fraction())))
	}
	unitTVA := unitTTC - unitHT

	return LineBreakdown{
		Rate:            resolved,
		Quantity:        quantity,
		UnitTTC:         unitTTC,
		UnitHT:          unitHT,
		UnitTVA:         unitTVA,
		TotalTTC:        unitTTC * quantity,
		TotalHT:         unitHT * quantity,
		TotalTVA:        unitTVA * quantity,
		UsedDefaultRate: usedDefault,
	}, nil
}
