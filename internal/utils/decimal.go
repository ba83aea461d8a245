package utils

import "github.com/shopspring/decimal"

// FitsDecimal reports whether d can be stored in a decimal(precision, scale)
// column without rounding
func FitsDecimal(d decimal.Decimal, precision, scale int32) bool {
	if !d.Equal(d.Truncate(scale)) {
		return false
	}
	return d.Abs().LessThan(decimal.New(1, precision-scale))
}
