package handlers

import (
	"net/http"

	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/services/exchange"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExchangeHandler serves currencies and exchange rates
type ExchangeHandler struct {
	rates  *exchange.RateService
	quotes *exchange.QuoteService
	log    *zap.Logger
}

// NewExchangeHandler creates a new exchange handler
func NewExchangeHandler(rates *exchange.RateService, quotes *exchange.QuoteService, log *zap.Logger) *ExchangeHandler {
	return &ExchangeHandler{rates: rates, quotes: quotes, log: log}
}

// GetCurrencies lists tradeable currencies with their USDT price
func (h *ExchangeHandler) GetCurrencies(c *gin.Context) {
	currencies, err := h.quotes.Currencies(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to load currencies")
		return
	}
	c.JSON(http.StatusOK, gin.H{"currencies": currencies})
}

// GetRates returns the effective rate of every well-known pair
func (h *ExchangeHandler) GetRates(c *gin.Context) {
	ctx := c.Request.Context()
	rates := make(map[string]decimal.Decimal)
	for _, pair := range []string{models.PairTONUSDT, models.PairTONFUS} {
		rate, err := h.rates.Resolve(ctx, pair)
		if err != nil {
			respondError(c, h.log, err, "Failed to load exchange rates")
			return
		}
		rates[pair] = rate
	}
	c.JSON(http.StatusOK, gin.H{"rates": rates})
}

// GetRate returns the effective rate of one pair
func (h *ExchangeHandler) GetRate(c *gin.Context) {
	pair, err := exchange.NormalizePair(c.Param("pair"))
	if err != nil {
		respondError(c, h.log, err, "Failed to load exchange rate")
		return
	}
	rate, err := h.rates.Resolve(c.Request.Context(), pair)
	if err != nil {
		respondError(c, h.log, err, "Failed to load exchange rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pair": pair, "rate": rate})
}

// UpdateRate stores a new rate for a pair
func (h *ExchangeHandler) UpdateRate(c *gin.Context) {
	var input struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid rate value")
		return
	}

	record, err := h.rates.Update(c.Request.Context(), c.Param("pair"), input.Rate)
	if err != nil {
		respondError(c, h.log, err, "Failed to update exchange rate")
		return
	}
	c.JSON(http.StatusOK, record)
}
