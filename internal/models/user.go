package models

import (
	"github.com/shopspring/decimal"
)

// DefaultCommissionRate is the referral commission percentage for new users
var DefaultCommissionRate = decimal.NewFromInt(5)

// User is a registered referrer
type User struct {
	Base
	Username        string          `gorm:"type:varchar(50);not null" json:"username"`
	Email           string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    string          `gorm:"type:varchar(255);not null" json:"-"`
	ReferralCode    string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"referral_code"`
	Referrals       int64           `gorm:"not null;default:0" json:"referrals"`
	TotalCommission decimal.Decimal `gorm:"type:decimal(30,9);not null;default:0" json:"total_commission"`
	CommissionRate  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:5" json:"commission_rate"`
}
