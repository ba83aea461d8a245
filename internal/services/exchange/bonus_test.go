package exchange

import (
	"testing"

	"github.com/fuswap/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestApplyBonus(t *testing.T) {
	base := dec("35")

	amount, applied := ApplyBonus(base, nil)
	assert.False(t, applied)
	assert.True(t, amount.Equal(base))

	active := &models.ActiveVoucher{Bonus: dec("4"), TransactionLimit: 3, UsedTransactions: 2}
	amount, applied = ApplyBonus(base, active)
	assert.True(t, applied)
	assert.True(t, amount.Equal(dec("36.4")))

	exhausted := &models.ActiveVoucher{Bonus: dec("4"), TransactionLimit: 3, UsedTransactions: 3}
	amount, applied = ApplyBonus(base, exhausted)
	assert.False(t, applied)
	assert.True(t, amount.Equal(base))
	assert.True(t, BonusMultiplier(exhausted).Equal(dec("1")))
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.005", "0.005000"},
		{"0.00000352", "0.000004"},
		{"0.123456789", "0.1235"},
		{"5", "5.000"},
		{"9.99951", "10.000"},
		{"35", "35.00"},
		{"36.4", "36.40"},
		{"1234.567", "1234.57"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatAmount(dec(tc.in)), tc.in)
	}
}
