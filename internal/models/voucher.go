package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherRate is a purchasable bonus voucher in the catalog
type VoucherRate struct {
	Base
	Name             string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Bonus            decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"bonus"`
	Price            decimal.Decimal `gorm:"type:decimal(30,9);not null" json:"price"`
	Description      string          `gorm:"type:text" json:"description"`
	TransactionLimit int             `gorm:"not null" json:"transaction_limit"`
}

// ActiveVoucher is a voucher owned by a wallet. Name, bonus and limit are a
// snapshot of the catalog entry at purchase time, so later catalog edits do
// not change vouchers already sold.
type ActiveVoucher struct {
	Base
	WalletAddress    string          `gorm:"type:varchar(128);index;not null" json:"wallet_address"`
	VoucherRateID    uuid.UUID       `gorm:"type:uuid;not null" json:"voucher_rate_id"`
	Name             string          `gorm:"type:varchar(100);not null" json:"name"`
	Bonus            decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"bonus"`
	TransactionLimit int             `gorm:"not null" json:"transaction_limit"`
	UsedTransactions int             `gorm:"not null;default:0" json:"used_transactions"`
	PurchaseTxHash   string          `gorm:"type:varchar(128)" json:"purchase_tx_hash"`
	ExhaustedAt      *time.Time      `json:"exhausted_at,omitempty"`
}

// Exhausted reports whether every bonus-eligible swap has been used
func (v *ActiveVoucher) Exhausted() bool {
	return v.UsedTransactions >= v.TransactionLimit
}

// Remaining returns the number of swaps that can still receive the bonus
func (v *ActiveVoucher) Remaining() int {
	if v.Exhausted() {
		return 0
	}
	return v.TransactionLimit - v.UsedTransactions
}

// StatusText renders the usage shown next to the voucher, e.g. "1/3 used"
func (v *ActiveVoucher) StatusText() string {
	if v.Exhausted() {
		return "Expired"
	}
	return fmt.Sprintf("%d/%d used", v.UsedTransactions, v.TransactionLimit)
}
