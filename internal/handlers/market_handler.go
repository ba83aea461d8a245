package handlers

import (
	"net/http"

	"github.com/fuswap/backend/internal/services/market"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MarketHandler serves TON ecosystem market data
type MarketHandler struct {
	market *market.Service
	log    *zap.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(market *market.Service, log *zap.Logger) *MarketHandler {
	return &MarketHandler{market: market, log: log}
}

// GetCoins returns the cached market list
func (h *MarketHandler) GetCoins(c *gin.Context) {
	coins, err := h.market.Coins(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to load market data")
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins})
}
