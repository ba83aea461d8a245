package handlers

import (
	"net/http"
	"strconv"

	"github.com/fuswap/backend/internal/middleware"
	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/security"
	"github.com/fuswap/backend/internal/services/referral"
	"github.com/fuswap/backend/internal/services/user"
	"github.com/fuswap/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRequest represents the user registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the user login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserHandler handles referrer accounts
type UserHandler struct {
	users  *user.UserService
	ledger *referral.Ledger
	tokens *utils.TokenManager
	guard  *security.LoginProtection
	log    *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *user.UserService, ledger *referral.Ledger, tokens *utils.TokenManager, guard *security.LoginProtection, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, ledger: ledger, tokens: tokens, guard: guard, log: log}
}

// Register creates a referrer account
func (h *UserHandler) Register(c *gin.Context) {
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
		respondError(c, h.log, err, "Failed to register user")
		return
	}

	tokens, err := h.tokens.Generate(u.ID, u.Email, false)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate tokens")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    u,
		"tokens":  tokens,
	})
}

// Login handles user authentication
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	account := loginAccount(req.Email)
	if rejectLockedOut(c, h.guard, account) {
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	trackLogin(c, h.guard, account, err)
	if err != nil {
		respondError(c, h.log, err, "Failed to log in")
		return
	}

	tokens, err := h.tokens.Generate(u.ID, u.Email, false)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate tokens")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    u,
		"tokens":  tokens,
	})
}

// GetMe returns the authenticated user's referral summary
func (h *UserHandler) GetMe(c *gin.Context) {
	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u)
}

// GetReferrals lists the commissions earned by the authenticated user
func (h *UserHandler) GetReferrals(c *gin.Context) {
	u, ok := h.currentUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.ledger.History(c.Request.Context(), u.ID, limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to load referrals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":    u.ReferralCode,
		"referrals":        u.Referrals,
		"total_commission": u.TotalCommission,
		"commission_rate":  u.CommissionRate,
		"transactions":     records,
	})
}

// UpdateReferralCode lets a user choose their own referral code
func (h *UserHandler) UpdateReferralCode(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input struct {
		ReferralCode string `json:"referral_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "referral_code is required")
		return
	}

	u, err := h.users.UpdateReferralCode(c.Request.Context(), userID, input.ReferralCode)
	if err != nil {
		respondError(c, h.log, err, "Failed to update referral code")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	u, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load user")
		return nil, false
	}
	return u, true
}
