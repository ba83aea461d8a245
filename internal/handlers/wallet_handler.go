package handlers

import (
	"net/http"
	"strings"

	"github.com/fuswap/backend/internal/middleware"
	"github.com/fuswap/backend/internal/services/session"
	"github.com/fuswap/backend/internal/services/transaction"
	"github.com/fuswap/backend/internal/services/user"
	"github.com/fuswap/backend/internal/services/voucher"
	"github.com/fuswap/backend/internal/services/wallet"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WalletHandler handles wallet connections
type WalletHandler struct {
	sessions *session.Store
	wallets  *wallet.Directory
	vouchers *voucher.VoucherService
	recorder *transaction.Recorder
	log      *zap.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(sessions *session.Store, wallets *wallet.Directory, vouchers *voucher.VoucherService, recorder *transaction.Recorder, log *zap.Logger) *WalletHandler {
	return &WalletHandler{
		sessions: sessions,
		wallets:  wallets,
		vouchers: vouchers,
		recorder: recorder,
		log:      log,
	}
}

// Connect registers a TON wallet and opens a session for it. A well-formed
// ?ref= code is kept on the session and credited on every swap.
func (h *WalletHandler) Connect(c *gin.Context) {
	var input struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Wallet address is required")
		return
	}
	address := strings.TrimSpace(input.Address)

	ref := strings.TrimSpace(c.Query("ref"))
	if ref != "" && user.ValidateReferralCode(ref) != nil {
		h.log.Debug("ignoring malformed referral code", zap.String("ref", ref))
		ref = ""
	}

	ctx := c.Request.Context()
	sess, err := h.sessions.Open(ctx, address, ref)
	if err != nil {
		respondError(c, h.log, err, "Failed to connect wallet")
		return
	}

	w, err := h.wallets.Connect(ctx, sess.Address)
	if err != nil {
		respondError(c, h.log, err, "Failed to connect wallet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": sess,
		"wallet":  w,
	})
}

// GetMe returns the connected wallet with its voucher and latest swaps
func (h *WalletHandler) GetMe(c *gin.Context) {
	sess, _ := middleware.WalletSession(c)
	ctx := c.Request.Context()

	w, err := h.wallets.Get(ctx, sess.Address)
	if err != nil {
		respondError(c, h.log, err, "Failed to load wallet")
		return
	}

	current, err := h.vouchers.Current(ctx, sess.Address)
	if err != nil {
		respondError(c, h.log, err, "Failed to load wallet")
		return
	}

	txs, err := h.recorder.ForWallet(ctx, sess.Address, transaction.DefaultRecentLimit)
	if err != nil {
		respondError(c, h.log, err, "Failed to load wallet")
		return
	}

	response := gin.H{
		"wallet":        w,
		"referral_code": sess.ReferralCode,
		"transactions":  txs,
		"voucher":       nil,
	}
	if current != nil {
		response["voucher"] = gin.H{
			"voucher": current,
			"status":  current.StatusText(),
		}
	}
	c.JSON(http.StatusOK, response)
}

// Disconnect ends the wallet session
func (h *WalletHandler) Disconnect(c *gin.Context) {
	sess, _ := middleware.WalletSession(c)
	if err := h.sessions.Close(c.Request.Context(), sess.Token); err != nil {
		respondError(c, h.log, err, "Failed to disconnect wallet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wallet disconnected"})
}
