package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fuswap/backend/internal/security"
	"github.com/fuswap/backend/internal/services/auth"
	"github.com/fuswap/backend/internal/services/referral"
	"github.com/fuswap/backend/internal/services/transaction"
	"github.com/fuswap/backend/internal/services/user"
	"github.com/fuswap/backend/internal/services/wallet"
	"github.com/fuswap/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	adminSubject          = "admin"
	defaultStatsRecent    = 3
	defaultAdminPageSize  = 20
	maxAdminPageSize      = 100
	defaultAdminListLimit = 50
)

// AdminHandler serves the administration API
type AdminHandler struct {
	admin    *auth.AdminAuthenticator
	tokens   *utils.TokenManager
	users    *user.UserService
	ledger   *referral.Ledger
	wallets  *wallet.Directory
	recorder *transaction.Recorder
	guard    *security.LoginProtection
	log      *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	admin *auth.AdminAuthenticator,
	tokens *utils.TokenManager,
	users *user.UserService,
	ledger *referral.Ledger,
	wallets *wallet.Directory,
	recorder *transaction.Recorder,
	guard *security.LoginProtection,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		tokens:   tokens,
		users:    users,
		ledger:   ledger,
		wallets:  wallets,
		recorder: recorder,
		guard:    guard,
		log:      log,
	}
}

// Login issues an admin token for the configured password and TOTP code
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
		TOTPCode string `json:"totp_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "password is required")
		return
	}

	if rejectLockedOut(c, h.guard, adminSubject) {
		return
	}

	err := h.admin.Login(req.Password, req.TOTPCode)
	trackLogin(c, h.guard, adminSubject, err)
	if err != nil {
		if errors.Is(err, auth.ErrTOTPRequired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "require_2fa": true})
			return
		}
		h.log.Warn("admin login failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		respondError(c, h.log, err, "Failed to log in")
		return
	}

	tokens, err := h.tokens.Generate(uuid.Nil, adminSubject, true)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate tokens")
		return
	}

	h.log.Info("admin logged in", zap.String("ip", c.ClientIP()))
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "tokens": tokens})
}

// GetStats returns dashboard totals and the newest transactions
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	recent, _ := strconv.Atoi(c.DefaultQuery("recent", strconv.Itoa(defaultStatsRecent)))

	walletCount, err := h.wallets.Count(ctx)
	if err != nil {
		respondError(c, h.log, err, "Failed to load statistics")
		return
	}
	txCount, err := h.recorder.Count(ctx, "")
	if err != nil {
		respondError(c, h.log, err, "Failed to load statistics")
		return
	}
	volume, err := h.recorder.TotalVolume(ctx, "")
	if err != nil {
		respondError(c, h.log, err, "Failed to load statistics")
		return
	}
	userCount, err := h.users.Count(ctx)
	if err != nil {
		respondError(c, h.log, err, "Failed to load statistics")
		return
	}
	recentTxs, err := h.recorder.Recent(ctx, recent)
	if err != nil {
		respondError(c, h.log, err, "Failed to load statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_wallets":       walletCount,
		"total_transactions":  txCount,
		"total_volume":        volume,
		"total_users":         userCount,
		"recent_transactions": recentTxs,
	})
}

// GetWallets lists connected wallets with pagination
func (h *AdminHandler) GetWallets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultAdminPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxAdminPageSize {
		pageSize = defaultAdminPageSize
	}

	ctx := c.Request.Context()
	total, err := h.wallets.Count(ctx)
	if err != nil {
		respondError(c, h.log, err, "Failed to count wallets")
		return
	}
	wallets, err := h.wallets.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		respondError(c, h.log, err, "Failed to get wallets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallets": wallets,
		"pagination": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// GetTransactions lists the newest transactions
func (h *AdminHandler) GetTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAdminListLimit)))
	txs, err := h.recorder.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to get transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// GetUsers lists registered referrers
func (h *AdminHandler) GetUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to get users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// CreateUser registers a referrer on their behalf
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username, email and password are required")
		return
	}

	u, err := h.users.Register(c.Request.Context(), user.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusCreated, u)
}

// UpdateCommissionRate sets the commission percentage for a user's future referrals
func (h *AdminHandler) UpdateCommissionRate(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var input struct {
		CommissionRate decimal.Decimal `json:"commission_rate"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid commission rate")
		return
	}

	u, err := h.ledger.UpdateCommissionRate(c.Request.Context(), id, input.CommissionRate)
	if err != nil {
		respondError(c, h.log, err, "Failed to update commission rate")
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateReferralCode replaces a user's referral code
func (h *AdminHandler) UpdateReferralCode(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var input struct {
		ReferralCode string `json:"referral_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "referral_code is required")
		return
	}

	u, err := h.users.UpdateReferralCode(c.Request.Context(), id, input.ReferralCode)
	if err != nil {
		respondError(c, h.log, err, "Failed to update referral code")
		return
	}
	c.JSON(http.StatusOK, u)
}

// SetPassword replaces a user's password
func (h *AdminHandler) SetPassword(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "password is required")
		return
	}

	if err := h.users.SetPassword(c.Request.Context(), id, input.Password); err != nil {
		respondError(c, h.log, err, "Failed to update password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func userIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}
