package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/ton"
	"github.com/fuswap/backend/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrInvalidAddress  = errors.New("invalid wallet address")
	ErrNegativeSwapped = errors.New("swapped amount cannot be negative")
)

// WalletID derives the directory key of an address from its canonical raw
// form. A negative workchain sign becomes "n". Unparseable addresses have no
// id.
func WalletID(address string) string {
	raw, err := ton.Canonical(address)
	if err != nil {
		return ""
	}
	return utils.StripNonAlnum(strings.Replace(raw, "-", "n", 1))
}

// Directory keeps one record per connected wallet
type Directory struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewDirectory creates a wallet directory
func NewDirectory(db *gorm.DB, log *zap.Logger) *Directory {
	return &Directory{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// WithTx returns a copy of the directory bound to tx
func (d *Directory) WithTx(tx *gorm.DB) *Directory {
	clone := *d
	clone.db = tx
	return &clone
}

// Connect records a wallet connection, creating the wallet on first sight
func (d *Directory) Connect(ctx context.Context, address string) (*models.Wallet, error) {
	if err := d.upsert(ctx, address, decimal.Zero); err != nil {
		return nil, err
	}
	return d.Get(ctx, address)
}

// Touch refreshes last_active
func (d *Directory) Touch(ctx context.Context, address string) error {
	return d.upsert(ctx, address, decimal.Zero)
}

// AddSwapped adds amount to the wallet's total_swapped
func (d *Directory) AddSwapped(ctx context.Context, address string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeSwapped
	}
	return d.upsert(ctx, address, amount)
}

func (d *Directory) upsert(ctx context.Context, address string, swapped decimal.Decimal) error {
	raw, err := ton.Canonical(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	id := WalletID(raw)

	now := d.now()
	wallet := &models.Wallet{
		ID:           id,
		Address:      raw,
		TotalSwapped: swapped,
		LastActive:   now,
		CreatedAt:    now,
	}

	updates := map[string]interface{}{"last_active": now}
	if !swapped.IsZero() {
		updates["total_swapped"] = gorm.Expr("wallets.total_swapped + ?", swapped)
	}

	err = d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(wallet).Error
	if err != nil {
		return fmt.Errorf("error saving wallet: %w", err)
	}
	return nil
}

// Get returns a wallet by any encoding of its address
func (d *Directory) Get(ctx context.Context, address string) (*models.Wallet, error) {
	id := WalletID(address)
	if id == "" {
		return nil, ErrInvalidAddress
	}

	var wallet models.Wallet
	err := d.db.WithContext(ctx).First(&wallet, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}
	return &wallet, nil
}

// List returns wallets, most recently active first
func (d *Directory) List(ctx context.Context, limit, offset int) ([]models.Wallet, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var wallets []models.Wallet
	err := d.db.WithContext(ctx).Order("last_active DESC").Limit(limit).Offset(offset).Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("error listing wallets: %w", err)
	}
	return wallets, nil
}

// Count returns the number of known wallets
func (d *Directory) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Wallet{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting wallets: %w", err)
	}
	return count, nil
}
