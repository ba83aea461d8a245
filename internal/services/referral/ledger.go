package referral

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidAmount         = errors.New("referral amount must be greater than zero")
	ErrInvalidCommissionRate = errors.New("commission rate must be between 0 and 100")
	ErrUserNotFound          = errors.New("user not found")
)

var hundred = decimal.NewFromInt(100)

// Commission returns amount * rate / 100
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// Ledger accrues referral commission to users
type Ledger struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewLedger creates a referral ledger
func NewLedger(db *gorm.DB, log *zap.Logger) *Ledger {
	return &Ledger{db: db, log: log}
}

// WithTx returns a copy of the ledger bound to tx
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx, log: l.log}
}

// Record credits the owner of code with commission on amount. An unknown
// code is not an error: it returns false and writes nothing. Every call with
// a known code accrues; callers own deduplication.
func (l *Ledger) Record(ctx context.Context, code string, amount decimal.Decimal, referredWallet string) (*models.ReferralTransaction, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, false, nil
	}
	if !amount.IsPositive() {
		return nil, false, ErrInvalidAmount
	}

	var record *models.ReferralTransaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("referral_code = ?", code).
			First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error finding referrer: %w", err)
		}

		commission := Commission(amount, user.CommissionRate)

		err = tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"referrals":        gorm.Expr("referrals + 1"),
			"total_commission": gorm.Expr("total_commission + ?", commission),
		}).Error
		if err != nil {
			return fmt.Errorf("error updating referrer totals: %w", err)
		}

		record = &models.ReferralTransaction{
			ReferrerID:     user.ID,
			ReferralCode:   user.ReferralCode,
			ReferredWallet: referredWallet,
			Amount:         amount,
			Commission:     commission,
			CommissionRate: user.CommissionRate,
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("error recording referral transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		l.log.Info("referral code not found", zap.String("code", code))
		return nil, false, nil
	}

	l.log.Info("referral commission recorded",
		zap.String("referrer_id", record.ReferrerID.String()),
		zap.String("wallet", referredWallet),
		zap.String("commission", record.Commission.String()))
	return record, true, nil
}

// UpdateCommissionRate sets the rate used for the user's future referrals
func (l *Ledger) UpdateCommissionRate(ctx context.Context, userID uuid.UUID, rate decimal.Decimal) (*models.User, error) {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return nil, ErrInvalidCommissionRate
	}
	if !utils.FitsDecimal(rate, 5, 2) {
		return nil, fmt.Errorf("%w: at most 2 decimal places", ErrInvalidCommissionRate)
	}

	res := l.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("commission_rate", rate)
	if res.Error != nil {
		return nil, fmt.Errorf("error updating commission rate: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := l.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return &user, nil
}

// History returns a user's referral transactions, newest first
func (l *Ledger) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.ReferralTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var records []models.ReferralTransaction
	err := l.db.WithContext(ctx).
		Where("referrer_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("error listing referral transactions: %w", err)
	}
	return records, nil
}
