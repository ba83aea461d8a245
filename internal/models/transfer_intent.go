package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IntentStatus tracks a transfer intent through settlement
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusConfirmed IntentStatus = "confirmed"
	IntentStatusFailed    IntentStatus = "failed"
	IntentStatusExpired   IntentStatus = "expired"
)

// TransferIntent is the server-side record of a TON transfer the user has been
// asked to sign. Effects are only applied once the transfer is confirmed.
type TransferIntent struct {
	Base
	Kind          TransactionType `gorm:"type:varchar(16);not null" json:"kind"`
	WalletAddress string          `gorm:"type:varchar(128);index;not null" json:"wallet_address"`
	Destination   string          `gorm:"type:varchar(128);not null" json:"destination"`
	Amount        decimal.Decimal `gorm:"type:decimal(30,9);not null" json:"amount"`
	AmountNano    int64           `gorm:"not null" json:"amount_nano"`
	Reference     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`
	ValidUntil    time.Time       `gorm:"index;not null" json:"valid_until"`
	Status        IntentStatus    `gorm:"type:varchar(16);index;not null" json:"status"`

	// swap
	FromCurrency string          `gorm:"type:varchar(16)" json:"from_currency,omitempty"`
	ToCurrency   string          `gorm:"type:varchar(16)" json:"to_currency,omitempty"`
	SendRate     decimal.Decimal `gorm:"type:decimal(30,12)" json:"send_rate"`
	ReceiveRate  decimal.Decimal `gorm:"type:decimal(30,12)" json:"receive_rate"`
	ReferralCode string          `gorm:"type:varchar(64)" json:"referral_code,omitempty"`

	// voucher purchase
	VoucherRateID *uuid.UUID `gorm:"type:uuid" json:"voucher_rate_id,omitempty"`

	TransferHash  *string    `gorm:"type:varchar(128);uniqueIndex" json:"transfer_hash,omitempty"`
	FailureReason string     `gorm:"type:text" json:"failure_reason,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
}

// Expired reports whether the validity window has passed at now
func (i *TransferIntent) Expired(now time.Time) bool {
	return now.After(i.ValidUntil)
}
