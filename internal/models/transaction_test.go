package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionDetailsKind(t *testing.T) {
	swap := &SwapDetails{FromCurrency: "TON", ToCurrency: "USDT"}
	voucher := &VoucherPurchaseDetails{VoucherName: "Standard Bonus"}

	assert.Equal(t, TransactionTypeSwap, TransactionDetails{Swap: swap}.Kind())
	assert.Equal(t, TransactionTypeVoucher, TransactionDetails{Voucher: voucher}.Kind())
	assert.ErrorIs(t, TransactionDetails{}.Validate(), ErrInvalidDetails)
	assert.ErrorIs(t, TransactionDetails{Swap: swap, Voucher: voucher}.Validate(), ErrInvalidDetails)
}

func TestTransactionDetailsJSONIsTagged(t *testing.T) {
	id := uuid.New()
	details := TransactionDetails{Swap: &SwapDetails{
		FromCurrency:  "TON",
		ToCurrency:    "USDT",
		SendAmount:    decimal.NewFromInt(10),
		ReceiveAmount: decimal.RequireFromString("36.4"),
		SendRate:      decimal.RequireFromString("3.5"),
		ReceiveRate:   decimal.NewFromInt(1),
		VoucherID:     &id,
		BonusApplied:  true,
	}}

	raw, err := json.Marshal(details)
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.JSONEq(t, `"swap"`, string(env["kind"]))
	assert.NotContains(t, env, "voucher")

	var decoded TransactionDetails
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded.Swap)
	assert.Equal(t, "36.4", decoded.Swap.ReceiveAmount.String())
	assert.Equal(t, id, *decoded.Swap.VoucherID)
}

func TestTransactionDetailsRejectsMismatchedKind(t *testing.T) {
	var d TransactionDetails
	err := d.Scan(`{"kind":"voucher","swap":{"fromCurrency":"TON"}}`)
	assert.ErrorIs(t, err, ErrInvalidDetails)
}

func TestActiveVoucherStatusText(t *testing.T) {
	v := &ActiveVoucher{TransactionLimit: 3, UsedTransactions: 1}
	assert.Equal(t, "1/3 used", v.StatusText())
	assert.Equal(t, 2, v.Remaining())

	v.UsedTransactions = 3
	assert.True(t, v.Exhausted())
	assert.Equal(t, "Expired", v.StatusText())
	assert.Zero(t, v.Remaining())
}
