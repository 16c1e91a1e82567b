package tax

import (
	"fmt"
	"math"
)

// Rate is a VAT rate in basis points (550 = 5.5%). Using basis points keeps
// rates usable as map keys and comparable without float equality.
type Rate int

// French VAT rates applicable to restaurant activity.
const (
	RateExempt       Rate = 0    // exonéré (0%)
	RateReduced      Rate = 550  // taux réduit (5.5%)
	RateIntermediate Rate = 1000 // taux intermédiaire (10%)
	RateStandard     Rate = 2000 // taux normal (20%)
)

// SupportedRates is the closed set accepted on order lines, ascending.
func SupportedRates() []Rate {
	return []Rate{RateExempt, RateReduced, RateIntermediate, RateStandard}
}

func (r Rate) Valid() bool {
	switch r {
	case RateExempt, RateReduced, RateIntermediate, RateStandard:
		return true
	}
	return false
}

// Fraction returns the rate as a fraction (0.20 for RateStandard).
func (r Rate) Fraction() float64 {
	return float64(r) / 10000
}

// Percent returns a display label such as "5.5%".
func (r Rate) Percent() string {
	pct := float64(r) / 100
	if pct == math.Trunc(pct) {
		return fmt.Sprintf("%.0f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// RateFromFraction maps a fraction (e.g. 0.055) to a supported Rate.
func RateFromFraction(f float64) (Rate, bool) {
	r := Rate(math.Round(f * 10000))
	if !r.Valid() {
		return 0, false
	}
	return r, true
}

// RateSet is the subset of the legal catalog a deployment accepts on order
// lines, built from the policy's rate fractions. The zero value accepts
// every rate in SupportedRates.
type RateSet struct {
	enabled map[Rate]bool
}

// NewRateSet builds a set from policy fractions. Fractions outside the
// legal catalog are ignored; they can never resolve anyway.
func NewRateSet(fractions []float64) RateSet {
	enabled := make(map[Rate]bool, len(fractions))
	for _, f := range fractions {
		if r, ok := RateFromFraction(f); ok {
			enabled[r] = true
		}
	}
	return RateSet{enabled: enabled}
}

func (s RateSet) Contains(r Rate) bool {
	if len(s.enabled) == 0 {
		return r.Valid()
	}
	return s.enabled[r]
}

// Narrow returns rate unchanged when it maps to an enabled rate, nil
// otherwise so ComputeLine falls back to the default (logged and counted
// by the caller, like any other fallback).
func (s RateSet) Narrow(rate *float64) *float64 {
	if rate == nil {
		return nil
	}
	r, ok := RateFromFraction(*rate)
	if !ok || !s.Contains(r) {
		return nil
	}
	return rate
}
