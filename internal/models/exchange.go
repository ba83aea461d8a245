package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known rate pairs
const (
	PairTONUSDT = "TON_USDT"
	PairTONFUS  = "TON_FUS"
)

// ExchangeRate is the admin-managed rate for a currency pair, e.g. TON_USDT
type ExchangeRate struct {
	Pair      string          `gorm:"type:varchar(32);primaryKey" json:"pair"`
	Rate      decimal.Decimal `gorm:"type:decimal(30,12);not null" json:"rate"`
	UpdatedAt time.Time       `json:"updated_at"`
}
