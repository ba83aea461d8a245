package exchange

import (
	"github.com/fuswap/backend/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BonusMultiplier returns 1 + bonus/100 for a usable voucher and exactly 1
// when the voucher is absent or exhausted.
func BonusMultiplier(v *models.ActiveVoucher) decimal.Decimal {
	if v == nil || v.Exhausted() {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(1).Add(v.Bonus.Div(hundred))
}

// ApplyBonus applies the voucher bonus to base and reports whether it applied
func ApplyBonus(base decimal.Decimal, v *models.ActiveVoucher) (decimal.Decimal, bool) {
	if v == nil || v.Exhausted() {
		return base, false
	}
	return base.Mul(BonusMultiplier(v)), true
}

// BaseAmount converts amount at sendRate into units of receiveRate
func BaseAmount(amount, sendRate, receiveRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(sendRate).Div(receiveRate)
}

// FormatAmount rounds for display: 6 places below 0.01, 4 below 1, 3 below
// 10 and 2 otherwise.
func FormatAmount(x decimal.Decimal) string {
	abs := x.Abs()
	switch {
	case abs.LessThan(decimal.RequireFromString("0.01")):
		return x.StringFixed(6)
	case abs.LessThan(decimal.NewFromInt(1)):
		return x.StringFixed(4)
	case abs.LessThan(decimal.NewFromInt(10)):
		return x.StringFixed(3)
	default:
		return x.StringFixed(2)
	}
}
