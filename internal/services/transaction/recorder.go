package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fuswap/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount     = errors.New("transaction amount must be greater than zero")
	ErrMissingWallet     = errors.New("wallet address is required")
	ErrMissingTransfer   = errors.New("transfer hash is required")
	ErrDuplicateTransfer = errors.New("transfer has already been recorded")
)

// DefaultRecentLimit is the number of transactions returned when no limit is given
const (
	DefaultRecentLimit = 5
	maxRecentLimit     = 100
)

// RecordInput describes a settled transfer to append to the log
type RecordInput struct {
	WalletAddress string
	Amount        decimal.Decimal
	Details       models.TransactionDetails
	TransferHash  string
	Timestamp     time.Time
}

// Recorder appends to the transaction log. It never updates or deletes.
type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRecorder creates a transaction recorder
func NewRecorder(db *gorm.DB, log *zap.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// WithTx returns a copy of the recorder bound to tx
func (r *Recorder) WithTx(tx *gorm.DB) *Recorder {
	return &Recorder{db: tx, log: r.log}
}

// Record appends a transaction. The type is taken from the details variant.
func (r *Recorder) Record(ctx context.Context, input RecordInput) (*models.Transaction, error) {
	if strings.TrimSpace(input.WalletAddress) == "" {
		return nil, ErrMissingWallet
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := input.Details.Validate(); err != nil {
		return nil, err
	}
	if input.TransferHash == "" {
		return nil, ErrMissingTransfer
	}

	db := r.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.Transaction{}).Where("transfer_hash = ?", input.TransferHash).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("error checking transfer hash: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateTransfer
	}

	tx := &models.Transaction{
		WalletAddress: input.WalletAddress,
		Amount:        input.Amount,
		Type:          input.Details.Kind(),
		Details:       input.Details,
		TransferHash:  input.TransferHash,
		Timestamp:     input.Timestamp.UTC(),
	}
	if err := db.Create(tx).Error; err != nil {
		return nil, fmt.Errorf("error recording transaction: %w", err)
	}

	r.log.Info("transaction recorded",
		zap.String("id", tx.ID.String()),
		zap.String("type", string(tx.Type)),
		zap.String("wallet", tx.WalletAddress),
		zap.String("amount", tx.Amount.String()))
	return tx, nil
}

// Count returns the number of transactions, optionally of one type
func (r *Recorder) Count(ctx context.Context, kind models.TransactionType) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if kind != "" {
		q = q.Where("type = ?", kind)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting transactions: %w", err)
	}
	return count, nil
}

// TotalVolume sums transaction amounts, optionally of one type
func (r *Recorder) TotalVolume(ctx context.Context, kind models.TransactionType) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).Select("SUM(amount)")
	if kind != "" {
		q = q.Where("type = ?", kind)
	}
	if err := q.Row().Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("error summing transactions: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// Recent returns the newest transactions. limit is clamped to 1..100 and
// defaults to DefaultRecentLimit.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	return r.list(ctx, "", limit)
}

// ForWallet returns the newest transactions of one wallet
func (r *Recorder) ForWallet(ctx context.Context, walletAddress string, limit int) ([]models.Transaction, error) {
	return r.list(ctx, walletAddress, limit)
}

func (r *Recorder) list(ctx context.Context, walletAddress string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	q := r.db.WithContext(ctx).Order("timestamp DESC").Limit(limit)
	if walletAddress != "" {
		q = q.Where("wallet_address = ?", walletAddress)
	}

	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	return txs, nil
}
