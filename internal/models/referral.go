package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralTransaction is an append-only record of a commission credited to a
// referrer. CommissionRate is the rate in effect when the swap settled.
type ReferralTransaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReferrerID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"referrer_id"`
	ReferralCode   string          `gorm:"type:varchar(64);not null" json:"referral_code"`
	ReferredWallet string          `gorm:"type:varchar(128);index" json:"referred_wallet"`
	Amount         decimal.Decimal `gorm:"type:decimal(30,9);not null" json:"amount"`
	Commission     decimal.Decimal `gorm:"type:decimal(30,9);not null" json:"commission"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_rate"`
	Timestamp      time.Time       `gorm:"index;not null" json:"timestamp"`
}

// BeforeCreate assigns the ID and timestamp when unset
func (r *ReferralTransaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}
