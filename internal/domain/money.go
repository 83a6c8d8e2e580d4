package domain

import "github.com/shopspring/decimal"

func init() {
	// The storefront client reads prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

var hundred = decimal.NewFromInt(100)

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MinorUnits converts an amount to the smallest currency unit (paise for INR).
func MinorUnits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

// Positive reports whether d is set and greater than zero.
func Positive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}
