package exchange

import (
	"context"
	"testing"

	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/services/market"
	"github.com/fuswap/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMarket struct {
	coins []market.Coin
}

func (m stubMarket) Coins(ctx context.Context) ([]market.Coin, error) {
	return m.coins, nil
}

func newTestQuoteService(t *testing.T, source MarketSource) *QuoteService {
	rates, _ := newTestRateService(t, false)
	return NewQuoteService(rates, source, zap.NewNop())
}

func TestQuoteWithoutVoucher(t *testing.T) {
	svc := newTestQuoteService(t, nil)

	q, err := svc.Quote(context.Background(), QuoteRequest{From: "TON", To: "USDT", Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, "35.00", q.FormattedAmount)
	assert.False(t, q.BonusApplied)
	assert.True(t, q.SendRate.Equal(dec("3.5")))
	assert.True(t, q.ReceiveRate.Equal(dec("1")))
}

func TestQuoteWithStandardBonus(t *testing.T) {
	svc := newTestQuoteService(t, nil)
	voucher := &models.ActiveVoucher{Name: "Standard Bonus", Bonus: dec("4"), TransactionLimit: 3}

	q, err := svc.Quote(context.Background(), QuoteRequest{From: "ton", To: "usdt", Amount: dec("10"), Voucher: voucher})
	require.NoError(t, err)
	assert.Equal(t, "36.40", q.FormattedAmount)
	assert.True(t, q.BonusApplied)
	assert.True(t, q.BaseAmount.Equal(dec("35")))
	assert.True(t, q.BonusPercent.Equal(dec("4")))
	assert.Equal(t, 0, voucher.UsedTransactions)
}

func TestQuoteToFUS(t *testing.T) {
	svc := newTestQuoteService(t, nil)

	q, err := svc.Quote(context.Background(), QuoteRequest{From: "TON", To: "FUS", Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, "12.00", q.FormattedAmount)
}

func TestCatalogRatesFitStoredScale(t *testing.T) {
	svc := newTestQuoteService(t, stubMarket{coins: []market.Coin{
		{ID: "dust", Symbol: "dust", Name: "Dust", CurrentPrice: dec("0.0000000000004"), MarketCap: dec("9000000")},
		{ID: "long", Symbol: "long", Name: "Long", CurrentPrice: dec("0.01234567890123456789"), MarketCap: dec("9000000")},
	}})

	currencies, err := svc.Currencies(context.Background())
	require.NoError(t, err)
	require.Len(t, currencies, 4)

	fus := currencies[1]
	assert.Equal(t, SymbolFUS, fus.Symbol)
	assert.Equal(t, "2.916666666667", fus.Rate.String())
	assert.Equal(t, "LONG", currencies[3].Symbol)
	assert.Equal(t, "0.012345678901", currencies[3].Rate.String())

	for _, c := range currencies {
		assert.True(t, utils.FitsDecimal(c.Rate, ratePrecision, rateScale), c.Symbol)
	}
}

func TestQuoteValidation(t *testing.T) {
	svc := newTestQuoteService(t, nil)
	ctx := context.Background()

	_, err := svc.Quote(ctx, QuoteRequest{From: "TON", To: "USDT", Amount: dec("0")})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Quote(ctx, QuoteRequest{From: "TON", To: "ton", Amount: dec("1")})
	assert.ErrorIs(t, err, ErrSameCurrency)

	_, err = svc.Quote(ctx, QuoteRequest{From: "TON", To: "DOGE", Amount: dec("1")})
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestCurrenciesListsHighCapMarketCoins(t *testing.T) {
	svc := newTestQuoteService(t, stubMarket{coins: []market.Coin{
		{ID: "the-open-network", Symbol: "ton", Name: "Toncoin", CurrentPrice: dec("6.12"), MarketCap: dec("21053000000")},
		{ID: "notcoin", Symbol: "not", Name: "Notcoin", CurrentPrice: dec("0.0112"), MarketCap: dec("7800000")},
		{ID: "tiny", Symbol: "tiny", Name: "Tiny", CurrentPrice: dec("1"), MarketCap: dec("5000000")},
	}})

	currencies, err := svc.Currencies(context.Background())
	require.NoError(t, err)

	symbols := make([]string, 0, len(currencies))
	for _, c := range currencies {
		symbols = append(symbols, c.Symbol)
	}
	assert.Equal(t, []string{"TON", "FUS", "USDT", "NOT"}, symbols)
	assert.True(t, currencies[0].Rate.Equal(dec("3.5")))

	q, err := svc.Quote(context.Background(), QuoteRequest{From: "TON", To: "NOT", Amount: dec("1")})
	require.NoError(t, err)
	assert.Equal(t, "312.50", q.FormattedAmount)
}
