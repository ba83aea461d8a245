package referral

import (
	"context"
	"testing"

	"github.com/fuswap/backend/internal/database/dbtest"
	"github.com/fuswap/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const referredWallet = "UQDa2QRkf7Jj3dYqwRdU7XO6s21WvlvkG-NjUs77htjOMcEI"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createReferrer(t *testing.T, db *gorm.DB, code string, rate decimal.Decimal) *models.User {
	t.Helper()
	user := &models.User{
		Username:       "alice",
		Email:          code + "@example.com",
		PasswordHash:   "x",
		ReferralCode:   code,
		CommissionRate: rate,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, "id = ?", id).Error)
	return user
}

func TestRecordUnknownCodeHasNoEffect(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger(db, zap.NewNop())
	user := createReferrer(t, db, "ABC-12345", dec("5"))

	record, ok, err := ledger.Record(context.Background(), "NOPE-00000", dec("2"), referredWallet)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, record)

	after := reload(t, db, user.ID)
	assert.Zero(t, after.Referrals)
	assert.True(t, after.TotalCommission.IsZero())

	var count int64
	require.NoError(t, db.Model(&models.ReferralTransaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordKnownCode(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger(db, zap.NewNop())
	user := createReferrer(t, db, "ABC-12345", dec("5"))

	record, ok, err := ledger.Record(context.Background(), "ABC-12345", dec("2"), referredWallet)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, record.Commission.Equal(dec("0.1")))
	assert.True(t, record.CommissionRate.Equal(dec("5")))
	assert.Equal(t, referredWallet, record.ReferredWallet)
	assert.Equal(t, "ABC-12345", record.ReferralCode)

	after := reload(t, db, user.ID)
	assert.Equal(t, int64(1), after.Referrals)
	assert.True(t, after.TotalCommission.Equal(dec("0.1")), after.TotalCommission.String())
}

func TestRecordDoesNotDeduplicate(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger(db, zap.NewNop())
	user := createReferrer(t, db, "ABC-12345", dec("5"))

	for i := 0; i < 2; i++ {
		_, ok, err := ledger.Record(context.Background(), "ABC-12345", dec("2"), referredWallet)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	after := reload(t, db, user.ID)
	assert.Equal(t, int64(2), after.Referrals)
	assert.True(t, after.TotalCommission.Equal(dec("0.2")), after.TotalCommission.String())
}

func TestCommissionRateIsCapturedAtWriteTime(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger(db, zap.NewNop())
	ctx := context.Background()
	user := createReferrer(t, db, "ABC-12345", dec("5"))

	_, _, err := ledger.Record(ctx, "ABC-12345", dec("10"), referredWallet)
	require.NoError(t, err)

	_, err = ledger.UpdateCommissionRate(ctx, user.ID, dec("10"))
	require.NoError(t, err)

	_, _, err = ledger.Record(ctx, "ABC-12345", dec("10"), referredWallet)
	require.NoError(t, err)

	history, err := ledger.History(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	rates := []string{history[0].CommissionRate.String(), history[1].CommissionRate.String()}
	assert.ElementsMatch(t, []string{"5", "10"}, rates)

	after := reload(t, db, user.ID)
	assert.True(t, after.TotalCommission.Equal(dec("1.5")), after.TotalCommission.String())
}

func TestRecordValidation(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger(db, zap.NewNop())
	createReferrer(t, db, "ABC-12345", dec("5"))

	_, ok, err := ledger.Record(context.Background(), "", dec("2"), referredWallet)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ledger.Record(context.Background(), "ABC-12345", dec("0"), referredWallet)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestUpdateCommissionRateValidation(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger(db, zap.NewNop())
	user := createReferrer(t, db, "ABC-12345", dec("5"))

	_, err := ledger.UpdateCommissionRate(context.Background(), user.ID, dec("101"))
	assert.ErrorIs(t, err, ErrInvalidCommissionRate)
	_, err = ledger.UpdateCommissionRate(context.Background(), user.ID, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidCommissionRate)
	_, err = ledger.UpdateCommissionRate(context.Background(), user.ID, dec("2.125"))
	assert.ErrorIs(t, err, ErrInvalidCommissionRate)
	_, err = ledger.UpdateCommissionRate(context.Background(), uuid.New(), dec("7"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.True(t, stored.CommissionRate.Equal(dec("5")))

	updated, err := ledger.UpdateCommissionRate(context.Background(), user.ID, dec("2.25"))
	require.NoError(t, err)
	assert.True(t, updated.CommissionRate.Equal(dec("2.25")))

	updated, err = ledger.UpdateCommissionRate(context.Background(), user.ID, dec("0"))
	require.NoError(t, err)
	assert.True(t, updated.CommissionRate.IsZero())
}
