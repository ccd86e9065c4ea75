package cashflow

import "github.com/shopspring/decimal"

// round2 rounds v×100 half away from zero and scales back to cents. The
// product is taken in float64, so 1.005 (100.4999… cents) rounds down.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v * 100).Round(0).Shift(-2).InexactFloat64()
}

// mul returns v×factor computed in decimal, without rounding.
func mul(v float64, factor string) float64 {
	return decimal.NewFromFloat(v).Mul(decimal.RequireFromString(factor)).InexactFloat64()
}
