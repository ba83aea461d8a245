package handlers

import (
	"net/http"

	"github.com/fuswap/backend/internal/middleware"
	"github.com/fuswap/backend/internal/services/exchange"
	"github.com/fuswap/backend/internal/services/settlement"
	"github.com/fuswap/backend/internal/services/voucher"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type swapInput struct {
	From   string          `json:"from" binding:"required"`
	To     string          `json:"to" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// SwapHandler prices swaps and drives transfers to settlement
type SwapHandler struct {
	quotes     *exchange.QuoteService
	vouchers   *voucher.VoucherService
	settlement *settlement.SettlementService
	log        *zap.Logger
}

// NewSwapHandler creates a new swap handler
func NewSwapHandler(quotes *exchange.QuoteService, vouchers *voucher.VoucherService, settlement *settlement.SettlementService, log *zap.Logger) *SwapHandler {
	return &SwapHandler{quotes: quotes, vouchers: vouchers, settlement: settlement, log: log}
}

// Quote prices a swap for the connected wallet, including its voucher bonus
func (h *SwapHandler) Quote(c *gin.Context) {
	sess, _ := middleware.WalletSession(c)

	var input swapInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "from, to and amount are required")
		return
	}

	ctx := c.Request.Context()
	current, err := h.vouchers.Current(ctx, sess.Address)
	if err != nil {
		respondError(c, h.log, err, "Failed to price swap")
		return
	}

	quote, err := h.quotes.Quote(ctx, exchange.QuoteRequest{
		From:    input.From,
		To:      input.To,
		Amount:  input.Amount,
		Voucher: current,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to price swap")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// CreateSwap creates the TON transfer the wallet must sign for a swap
func (h *SwapHandler) CreateSwap(c *gin.Context) {
	sess, _ := middleware.WalletSession(c)

	var input swapInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "from, to and amount are required")
		return
	}

	intent, quote, err := h.settlement.CreateSwapIntent(c.Request.Context(), settlement.SwapRequest{
		WalletAddress: sess.Address,
		From:          input.From,
		To:            input.To,
		Amount:        input.Amount,
		ReferralCode:  sess.ReferralCode,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to create swap")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transfer": transferPayload(intent),
		"quote":    quote,
	})
}

// ConfirmTransfer settles a signed transfer once it is seen on chain
func (h *SwapHandler) ConfirmTransfer(c *gin.Context) {
	sess, _ := middleware.WalletSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid transfer ID")
		return
	}

	result, err := h.settlement.Confirm(c.Request.Context(), id, sess.Address)
	if err != nil {
		respondError(c, h.log, err, "Failed to confirm transfer")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTransfer returns the state of a transfer intent
func (h *SwapHandler) GetTransfer(c *gin.Context) {
	sess, _ := middleware.WalletSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid transfer ID")
		return
	}

	intent, err := h.settlement.Get(c.Request.Context(), id, sess.Address)
	if err != nil {
		respondError(c, h.log, err, "Failed to load transfer")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transfer":       transferPayload(intent),
		"transfer_hash":  intent.TransferHash,
		"failure_reason": intent.FailureReason,
	})
}
