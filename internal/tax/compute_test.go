package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestComputeLine_StandardRate(t *testing.T) {
	// 12.00 EUR TTC at 20% -> 10.00 HT + 2.00 TVA
	line, err := ComputeLine(1200, 1, floatPtr(0.20), RateStandard)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), line.UnitHT)
	assert.Equal(t, int64(200), line.UnitTVA)
	assert.Equal(t, RateStandard, line.Rate)
	assert.False(t, line.UsedDefaultRate)
}

func TestComputeLine_UnitRoundingBeforeQuantity(t *testing.T) {
	// 9.99 TTC at 10%: unit HT = round(999/1.1) = round(908.18) = 908.
	// Totals multiply the rounded unit, not the exact quotient.
	line, err := ComputeLine(999, 3, floatPtr(0.10), RateStandard)
	assert.NoError(t, err)
	assert.Equal(t, int64(908), line.UnitHT)
	assert.Equal(t, int64(91), line.UnitTVA)
	assert.Equal(t, int64(2724), line.TotalHT)
	assert.Equal(t, int64(273), line.TotalTVA)
	assert.Equal(t, int64(2997), line.TotalTTC)
}

func TestComputeLine_HTPlusTVAEqualsTTC(t *testing.T) {
	rates := []float64{0, 0.055, 0.10, 0.20}
	for price := int64(0); price <= 5000; price += 7 {
		for _, r := range rates {
			line, err := ComputeLine(price, 1, floatPtr(r), RateStandard)
			assert.NoError(t, err)
			assert.Equal(t, price, line.UnitHT+line.UnitTVA,
				"price=%d rate=%v", price, r)
			assert.GreaterOrEqual(t, line.UnitHT, int64(0))
			assert.GreaterOrEqual(t, line.UnitTVA, int64(0))
		}
	}
}

func TestComputeLine_ExemptRate(t *testing.T) {
	line, err := ComputeLine(850, 2, floatPtr(0), RateStandard)
	assert.NoError(t, err)
	assert.Equal(t, RateExempt, line.Rate)
	assert.Equal(t, int64(850), line.UnitHT)
	assert.Equal(t, int64(0), line.UnitTVA)
	assert.Equal(t, int64(1700), line.TotalHT)
}

func TestComputeLine_ZeroQuantity(t *testing.T) {
	line, err := ComputeLine(1200, 0, floatPtr(0.20), RateStandard)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), line.TotalTTC)
	assert.Equal(t, int64(0), line.TotalHT)
	assert.Equal(t, int64(0), line.TotalTVA)
}

func TestComputeLine_NegativePriceRejected(t *testing.T) {
	_, err := ComputeLine(-1, 1, floatPtr(0.20), RateStandard)
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestComputeLine_NegativeQuantityRejected(t *testing.T) {
	_, err := ComputeLine(100, -2, floatPtr(0.20), RateStandard)
	assert.ErrorIs(t, err, ErrNegativeQuantity)
}

func TestComputeLine_MissingRateFallsBackToDefault(t *testing.T) {
	line, err := ComputeLine(1200, 1, nil, RateStandard)
	assert.NoError(t, err)
	assert.True(t, line.UsedDefaultRate)
	assert.Equal(t, RateStandard, line.Rate)
	assert.Equal(t, int64(1000), line.UnitHT)
}

func TestComputeLine_UnknownRateFallsBackToDefault(t *testing.T) {
	line, err := ComputeLine(1200, 1, floatPtr(0.19), RateStandard)
	assert.NoError(t, err)
	assert.True(t, line.UsedDefaultRate)
	assert.Equal(t, RateStandard, line.Rate)
}

func TestBreakdown_GroupsByRate(t *testing.T) {
	b := NewBreakdown()
	for _, ttc := range []int64{1200, 2400, 600} {
		line, err := ComputeLine(ttc, 1, floatPtr(0.20), RateStandard)
		assert.NoError(t, err)
		b.Add(line)
	}
	reduced, err := ComputeLine(550, 2, floatPtr(0.055), RateStandard)
	assert.NoError(t, err)
	b.Add(reduced)

	std := b.ForRate(RateStandard)
	assert.Equal(t, int64(3500), std.HT)
	assert.Equal(t, int64(700), std.TVA)

	red := b.ForRate(RateReduced)
	assert.Equal(t, int64(1042), red.HT)
	assert.Equal(t, int64(58), red.TVA)

	assert.Equal(t, b.TotalHT()+b.TotalTVA(), b.TotalTTC())
	assert.Equal(t, []Rate{RateReduced, RateStandard}, b.Rates())
	assert.Equal(t, RateTotal{Rate: RateIntermediate}, b.ForRate(RateIntermediate))
}

func TestRateSet_NarrowsToEnabledRates(t *testing.T) {
	set := NewRateSet([]float64{0, 0.20})

	assert.True(t, set.Contains(RateStandard))
	assert.True(t, set.Contains(RateExempt))
	assert.False(t, set.Contains(RateIntermediate))
	assert.False(t, set.Contains(RateReduced))

	enabled := floatPtr(0.20)
	assert.Same(t, enabled, set.Narrow(enabled))
	assert.Nil(t, set.Narrow(floatPtr(0.10)))
	assert.Nil(t, set.Narrow(floatPtr(0.19)))
	assert.Nil(t, set.Narrow(nil))

	// A narrowed line falls back to the default like any missing rate.
	line, err := ComputeLine(1200, 1, set.Narrow(floatPtr(0.10)), RateStandard)
	assert.NoError(t, err)
	assert.True(t, line.UsedDefaultRate)
	assert.Equal(t, RateStandard, line.Rate)
}

func TestRateSet_ZeroValueAcceptsLegalCatalog(t *testing.T) {
	var set RateSet
	for _, r := range SupportedRates() {
		assert.True(t, set.Contains(r))
	}

	p := floatPtr(0.055)
	assert.Same(t, p, set.Narrow(p))
	assert.Nil(t, set.Narrow(floatPtr(0.19)))
}

func TestRateSet_IgnoresUnknownFractions(t *testing.T) {
	set := NewRateSet([]float64{0.19, 0.10})
	assert.True(t, set.Contains(RateIntermediate))
	assert.False(t, set.Contains(RateStandard))
}

func TestRate_ParseAndLabels(t *testing.T) {
	r, ok := RateFromFraction(0.055)
	assert.True(t, ok)
	assert.Equal(t, RateReduced, r)
	assert.Equal(t, "5.5%", r.Percent())
	assert.Equal(t, "20%", RateStandard.Percent())

	_, ok = RateFromFraction(0.21)
	assert.False(t, ok)
}
