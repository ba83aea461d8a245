package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrVoucherNotFound = errors.New("voucher not found")
	ErrInvalidBonus    = errors.New("bonus must be between 0 and 100")
)

var maxBonus = decimal.NewFromInt(100)

// VoucherService manages the voucher catalog and the vouchers owned by wallets
type VoucherService struct {
	db           *gorm.DB
	defaultLimit int
	log          *zap.Logger
}

// NewVoucherService creates a voucher service. defaultLimit is the number of
// bonus swaps a seeded voucher grants.
func NewVoucherService(db *gorm.DB, defaultLimit int, log *zap.Logger) *VoucherService {
	return &VoucherService{db: db, defaultLimit: defaultLimit, log: log}
}

// WithTx returns a copy of the service bound to tx
func (s *VoucherService) WithTx(tx *gorm.DB) *VoucherService {
	clone := *s
	clone.db = tx
	return &clone
}

// Catalog returns every purchasable voucher, cheapest bonus first
func (s *VoucherService) Catalog(ctx context.Context) ([]models.VoucherRate, error) {
	var rates []models.VoucherRate
	if err := s.db.WithContext(ctx).Order("bonus").Order("name").Find(&rates).Error; err != nil {
		return nil, fmt.Errorf("error listing vouchers: %w", err)
	}
	return rates, nil
}

// Get returns a catalog entry by id
func (s *VoucherService) Get(ctx context.Context, id uuid.UUID) (*models.VoucherRate, error) {
	var rate models.VoucherRate
	err := s.db.WithContext(ctx).First(&rate, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding voucher: %w", err)
	}
	return &rate, nil
}

// UpdateBonus changes the bonus percentage of a catalog entry. Vouchers
// already sold keep the bonus they were bought with.
func (s *VoucherService) UpdateBonus(ctx context.Context, id uuid.UUID, bonus decimal.Decimal) (*models.VoucherRate, error) {
	if bonus.IsNegative() || bonus.GreaterThan(maxBonus) {
		return nil, ErrInvalidBonus
	}
	if !utils.FitsDecimal(bonus, 10, 4) {
		return nil, fmt.Errorf("%w: at most 4 decimal places", ErrInvalidBonus)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.VoucherRate{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"bonus":       bonus,
			"description": describe(bonus, current.TransactionLimit),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("error updating voucher bonus: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrVoucherNotFound
	}

	s.log.Info("voucher bonus updated", zap.String("voucher_id", id.String()), zap.String("bonus", bonus.String()))
	return s.Get(ctx, id)
}

// describe renders the catalog blurb of a voucher
func describe(bonus decimal.Decimal, limit int) string {
	noun := "swaps"
	if limit == 1 {
		noun = "swap"
	}
	return fmt.Sprintf("Get %s%% extra on your next %d %s", bonus.String(), limit, noun)
}

// SeedDefaults creates the standard catalog entries that are missing
func (s *VoucherService) SeedDefaults(ctx context.Context) error {
	defaults := []models.VoucherRate{
		{
			Name:             "Standard Bonus",
			Bonus:            decimal.NewFromInt(4),
			Price:            decimal.RequireFromString("0.1"),
			TransactionLimit: s.defaultLimit,
		},
		{
			Name:             "Premium Bonus",
			Bonus:            decimal.RequireFromString("7.5"),
			Price:            decimal.RequireFromString("0.1"),
			TransactionLimit: s.defaultLimit,
		},
	}

	for i := range defaults {
		defaults[i].Description = describe(defaults[i].Bonus, defaults[i].TransactionLimit)

		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&defaults[i]).Error
		if err != nil {
			return fmt.Errorf("error seeding voucher %s: %w", defaults[i].Name, err)
		}
	}
	return nil
}

// Activate gives wallet a voucher snapshotting the catalog entry
func (s *VoucherService) Activate(ctx context.Context, walletAddress string, rate *models.VoucherRate, purchaseTxHash string) (*models.ActiveVoucher, error) {
	active := &models.ActiveVoucher{
		WalletAddress:    walletAddress,
		VoucherRateID:    rate.ID,
		Name:             rate.Name,
		Bonus:            rate.Bonus,
		TransactionLimit: rate.TransactionLimit,
		PurchaseTxHash:   purchaseTxHash,
	}
	if err := s.db.WithContext(ctx).Create(active).Error; err != nil {
		return nil, fmt.Errorf("error activating voucher: %w", err)
	}

	s.log.Info("voucher activated",
		zap.String("wallet", walletAddress),
		zap.String("voucher", rate.Name),
		zap.Int("limit", rate.TransactionLimit))
	return active, nil
}

// Current returns the most recently purchased voucher of a wallet, or nil
// when the wallet never bought one. The voucher may be exhausted.
func (s *VoucherService) Current(ctx context.Context, walletAddress string) (*models.ActiveVoucher, error) {
	var active models.ActiveVoucher
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		Order("created_at DESC").
		First(&active).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding active voucher: %w", err)
	}
	return &active, nil
}

// Consume uses one bonus swap of v. The increment is conditional at the
// storage layer so concurrent swaps can never push usage past the limit.
// It reports false when the voucher was already exhausted. On success v is
// refreshed from the database.
func (s *VoucherService) Consume(ctx context.Context, v *models.ActiveVoucher) (bool, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&models.ActiveVoucher{}).
		Where("id = ? AND used_transactions < transaction_limit", v.ID).
		UpdateColumn("used_transactions", gorm.Expr("used_transactions + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("error consuming voucher: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	now := time.Now().UTC()
	err := db.Model(&models.ActiveVoucher{}).
		Where("id = ? AND used_transactions >= transaction_limit AND exhausted_at IS NULL", v.ID).
		UpdateColumn("exhausted_at", now).Error
	if err != nil {
		return false, fmt.Errorf("error marking voucher exhausted: %w", err)
	}

	if err := db.First(v, "id = ?", v.ID).Error; err != nil {
		return false, fmt.Errorf("error reloading voucher: %w", err)
	}
	if v.Exhausted() {
		s.log.Info("voucher exhausted", zap.String("voucher_id", v.ID.String()), zap.String("wallet", v.WalletAddress))
	}
	return true, nil
}
