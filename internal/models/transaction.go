package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType distinguishes settled swaps from voucher purchases
type TransactionType string

const (
	TransactionTypeSwap    TransactionType = "swap"
	TransactionTypeVoucher TransactionType = "voucher"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == TransactionTypeSwap || t == TransactionTypeVoucher
}

// ErrInvalidDetails is returned when transaction details do not carry
// exactly one variant.
var ErrInvalidDetails = errors.New("transaction details must hold exactly one of swap or voucher")

// SwapDetails describes a settled swap
type SwapDetails struct {
	FromCurrency  string          `json:"fromCurrency"`
	ToCurrency    string          `json:"toCurrency"`
	SendAmount    decimal.Decimal `json:"sendAmount"`
	ReceiveAmount decimal.Decimal `json:"receiveAmount"`
	SendRate      decimal.Decimal `json:"sendRate"`
	ReceiveRate   decimal.Decimal `json:"receiveRate"`
	VoucherID     *uuid.UUID      `json:"voucherApplied,omitempty"`
	BonusApplied  bool            `json:"bonusApplied"`
	ReferralCode  string          `json:"referralCode,omitempty"`
}

// VoucherPurchaseDetails describes a voucher purchase
type VoucherPurchaseDetails struct {
	VoucherID   uuid.UUID       `json:"voucherId"`
	VoucherName string          `json:"voucherName"`
	Bonus       decimal.Decimal `json:"bonus"`
}

// TransactionDetails holds exactly one of Swap or Voucher. It is stored as a
// JSON document tagged with its kind.
type TransactionDetails struct {
	Swap    *SwapDetails
	Voucher *VoucherPurchaseDetails
}

type detailsEnvelope struct {
	Kind    TransactionType         `json:"kind"`
	Swap    *SwapDetails            `json:"swap,omitempty"`
	Voucher *VoucherPurchaseDetails `json:"voucher,omitempty"`
}

// Kind returns the transaction type implied by the populated variant
func (d TransactionDetails) Kind() TransactionType {
	switch {
	case d.Swap != nil && d.Voucher == nil:
		return TransactionTypeSwap
	case d.Voucher != nil && d.Swap == nil:
		return TransactionTypeVoucher
	default:
		return ""
	}
}

// Validate checks that exactly one variant is set
func (d TransactionDetails) Validate() error {
	if d.Kind() == "" {
		return ErrInvalidDetails
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (d TransactionDetails) MarshalJSON() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(detailsEnvelope{Kind: d.Kind(), Swap: d.Swap, Voucher: d.Voucher})
}

// UnmarshalJSON implements json.Unmarshaler
func (d *TransactionDetails) UnmarshalJSON(data []byte) error {
	var env detailsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	parsed := TransactionDetails{Swap: env.Swap, Voucher: env.Voucher}
	if parsed.Kind() == "" || parsed.Kind() != env.Kind {
		return ErrInvalidDetails
	}
	*d = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (d TransactionDetails) Value() (driver.Value, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (d *TransactionDetails) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return d.UnmarshalJSON(v)
	case string:
		return d.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported transaction details type %T", value)
	}
}

// Transaction is an append-only record of a settled swap or voucher purchase
type Transaction struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	WalletAddress string             `gorm:"type:varchar(128);index;not null" json:"wallet_address"`
	Amount        decimal.Decimal    `gorm:"type:decimal(30,9);not null" json:"amount"`
	Type          TransactionType    `gorm:"type:varchar(16);index;not null" json:"type"`
	Details       TransactionDetails `gorm:"type:text;not null" json:"details"`
	TransferHash  string             `gorm:"type:varchar(128);uniqueIndex;not null" json:"transfer_hash"`
	Timestamp     time.Time          `gorm:"index;not null" json:"timestamp"`
}

// BeforeCreate assigns the ID and timestamp when unset
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	return nil
}
