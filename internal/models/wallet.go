package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a TON wallet that has connected to the exchange. Address is the
// canonical raw form and ID is that form with non-alphanumeric characters
// removed.
type Wallet struct {
	ID           string          `gorm:"type:varchar(128);primaryKey" json:"id"`
	Address      string          `gorm:"type:varchar(128);uniqueIndex;not null" json:"address"`
	TotalSwapped decimal.Decimal `gorm:"type:decimal(30,9);not null;default:0" json:"total_swapped"`
	LastActive   time.Time       `json:"last_active"`
	CreatedAt    time.Time       `json:"created_at"`
}
