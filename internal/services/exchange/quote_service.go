package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/services/market"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Base currency symbols
const (
	SymbolTON  = "TON"
	SymbolUSDT = "USDT"
	SymbolFUS  = "FUS"
)

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrSameCurrency    = errors.New("send and receive currency must differ")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
)

// minMarketCap is the market capitalisation a coin needs to be listed
var minMarketCap = decimal.NewFromInt(5_000_000)

// Currency is a tradeable currency priced in USDT
type Currency struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Symbol string          `json:"symbol"`
	Image  string          `json:"image,omitempty"`
	Rate   decimal.Decimal `json:"rate"`
}

// MarketSource supplies TON-ecosystem coins for the currency catalog
type MarketSource interface {
	Coins(ctx context.Context) ([]market.Coin, error)
}

// QuoteRequest describes a swap to price
type QuoteRequest struct {
	From    string
	To      string
	Amount  decimal.Decimal
	Voucher *models.ActiveVoucher
}

// Quote is a priced swap
type Quote struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	SendAmount      decimal.Decimal `json:"send_amount"`
	SendRate        decimal.Decimal `json:"send_rate"`
	ReceiveRate     decimal.Decimal `json:"receive_rate"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	ReceiveAmount   decimal.Decimal `json:"receive_amount"`
	FormattedAmount string          `json:"formatted_amount"`
	BonusApplied    bool            `json:"bonus_applied"`
	BonusPercent    decimal.Decimal `json:"bonus_percent"`
}

// QuoteService prices swaps from the stored rates and market data
type QuoteService struct {
	rates  *RateService
	market MarketSource
	log    *zap.Logger
}

// NewQuoteService creates a quote service. market may be nil, in which case
// only the base currencies are offered.
func NewQuoteService(rates *RateService, market MarketSource, log *zap.Logger) *QuoteService {
	return &QuoteService{rates: rates, market: market, log: log}
}

// Currencies returns the base currencies followed by listed market coins
func (s *QuoteService) Currencies(ctx context.Context) ([]Currency, error) {
	currencies, err := s.baseCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	if s.market == nil {
		return currencies, nil
	}

	coins, err := s.market.Coins(ctx)
	if err != nil {
		s.log.Warn("market coins unavailable", zap.Error(err))
		return currencies, nil
	}

	seen := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		seen[c.Symbol] = true
	}
	for _, coin := range coins {
		symbol := strings.ToUpper(coin.Symbol)
		rate := coin.CurrentPrice.Round(rateScale)
		if seen[symbol] || !coin.MarketCap.GreaterThan(minMarketCap) || !rate.IsPositive() {
			continue
		}
		seen[symbol] = true
		currencies = append(currencies, Currency{
			ID:     coin.ID,
			Name:   coin.Name,
			Symbol: symbol,
			Image:  coin.Image,
			Rate:   rate,
		})
	}
	return currencies, nil
}

// Currency looks up a currency by symbol, case-insensitively
func (s *QuoteService) Currency(ctx context.Context, symbol string) (Currency, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	currencies, err := s.Currencies(ctx)
	if err != nil {
		return Currency{}, err
	}
	for _, c := range currencies {
		if c.Symbol == symbol {
			return c, nil
		}
	}
	return Currency{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, symbol)
}

// Quote prices req. The voucher bonus is applied when req.Voucher is usable;
// the voucher itself is not consumed.
func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if strings.EqualFold(req.From, req.To) {
		return nil, ErrSameCurrency
	}

	from, err := s.Currency(ctx, req.From)
	if err != nil {
		return nil, err
	}
	to, err := s.Currency(ctx, req.To)
	if err != nil {
		return nil, err
	}

	return Price(from, to, req.Amount, req.Voucher), nil
}

// Price computes a quote from already resolved currency rates
func Price(from, to Currency, amount decimal.Decimal, voucher *models.ActiveVoucher) *Quote {
	base := BaseAmount(amount, from.Rate, to.Rate)
	receive, applied := ApplyBonus(base, voucher)

	q := &Quote{
		From:            from.Symbol,
		To:              to.Symbol,
		SendAmount:      amount,
		SendRate:        from.Rate,
		ReceiveRate:     to.Rate,
		BaseAmount:      base,
		ReceiveAmount:   receive,
		FormattedAmount: FormatAmount(receive),
		BonusApplied:    applied,
		BonusPercent:    decimal.Zero,
	}
	if applied {
		q.BonusPercent = voucher.Bonus
	}
	return q
}

func (s *QuoteService) baseCurrencies(ctx context.Context) ([]Currency, error) {
	tonUSDT, err := s.rates.Resolve(ctx, models.PairTONUSDT)
	if err != nil {
		return nil, err
	}
	tonFUS, err := s.rates.Resolve(ctx, models.PairTONFUS)
	if err != nil {
		return nil, err
	}

	// Catalog rates carry the scale a transfer intent stores, so a swap
	// settles at exactly the rates it was quoted at.
	return []Currency{
		{ID: "toncoin", Name: "Toncoin", Symbol: SymbolTON, Rate: tonUSDT.Round(rateScale)},
		{ID: "fus", Name: "FusToken", Symbol: SymbolFUS, Rate: tonUSDT.DivRound(tonFUS, rateScale)},
		{ID: "usdt", Name: "Tether", Symbol: SymbolUSDT, Rate: decimal.NewFromInt(1)},
	}, nil
}
