package ton

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	receiverNonBounceable = "UQDa2QRkf7Jj3dYqwRdU7XO6s21WvlvkG-NjUs77htjOMcEI"
	receiverBounceable    = "EQDa2QRkf7Jj3dYqwRdU7XO6s21WvlvkG-NjUs77htjOMZzN"
	receiverRaw           = "0:dad904647fb263ddd62ac11754ed73bab36d56be5be41be36352cefb86d8ce31"
)

func TestParseAddressForms(t *testing.T) {
	nb, err := ParseAddress(receiverNonBounceable)
	require.NoError(t, err)
	assert.False(t, nb.Bounceable)
	assert.False(t, nb.Testnet)
	assert.Equal(t, int32(0), nb.Workchain)
	assert.Equal(t, receiverNonBounceable, nb.String())
	assert.Equal(t, receiverRaw, nb.Raw())

	b, err := ParseAddress(receiverBounceable)
	require.NoError(t, err)
	assert.True(t, b.Bounceable)
	assert.Equal(t, receiverBounceable, b.String())

	raw, err := ParseAddress(receiverRaw)
	require.NoError(t, err)

	assert.True(t, nb.Equal(b))
	assert.True(t, nb.Equal(raw))
	assert.True(t, SameAccount(receiverBounceable, receiverRaw))
}

func TestParseAddressRejectsCorruption(t *testing.T) {
	cases := []string{
		"",
		"not-an-address",
		"UQDa2QRkf7Jj3dYqwRdU7XO6s21WvlvkG-NjUs77htjOMcEJ",
		"0:zz",
		"x:dad904647fb263ddd62ac11754ed73bab36d56be5be41be36352cefb86d8ce31",
	}
	for _, c := range cases {
		_, err := ParseAddress(c)
		assert.ErrorIs(t, err, ErrInvalidAddress, c)
	}
	assert.False(t, SameAccount(receiverRaw, "garbage"))
}

func TestCanonical(t *testing.T) {
	for _, in := range []string{receiverNonBounceable, receiverBounceable, receiverRaw, " " + strings.ToUpper(receiverRaw) + " "} {
		got, err := Canonical(in)
		require.NoError(t, err, in)
		assert.Equal(t, receiverRaw, got, in)
	}

	_, err := Canonical("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestMasterchainRoundTrip(t *testing.T) {
	addr := Address{Workchain: -1, Bounceable: true, Testnet: true}
	addr.Hash[0] = 0xAB
	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
}

func TestToNano(t *testing.T) {
	cases := map[string]int64{
		"1.5":                  1_500_000_000,
		"0.1":                  100_000_000,
		"0.000000001":          1,
		"9223372036.854775807": math.MaxInt64,
	}
	for in, want := range cases {
		got, err := ToNano(decimal.RequireFromString(in))
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	assert.Equal(t, "2.5", FromNano(2_500_000_000).String())
}

func TestToNanoRejectsUnrepresentableAmounts(t *testing.T) {
	for _, in := range []string{
		"0.0000000019",
		"18446744073.709551617",
		"9223372036.854775808",
		"-9223372036.854775809",
	} {
		_, err := ToNano(decimal.RequireFromString(in))
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}
