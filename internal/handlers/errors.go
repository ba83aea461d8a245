package handlers

import (
	"errors"
	"net/http"

	"github.com/fuswap/backend/internal/services/auth"
	"github.com/fuswap/backend/internal/services/exchange"
	"github.com/fuswap/backend/internal/services/referral"
	"github.com/fuswap/backend/internal/services/settlement"
	"github.com/fuswap/backend/internal/services/transaction"
	"github.com/fuswap/backend/internal/services/transfer"
	"github.com/fuswap/backend/internal/services/user"
	"github.com/fuswap/backend/internal/services/voucher"
	"github.com/fuswap/backend/internal/services/wallet"
	"github.com/fuswap/backend/internal/ton"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorMapping pairs a domain error with its HTTP status. An empty message
// exposes the error text itself.
type errorMapping struct {
	err     error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{exchange.ErrInvalidRate, http.StatusBadRequest, ""},
	{exchange.ErrInvalidPair, http.StatusBadRequest, ""},
	{exchange.ErrUnknownCurrency, http.StatusBadRequest, ""},
	{exchange.ErrSameCurrency, http.StatusBadRequest, ""},
	{exchange.ErrInvalidAmount, http.StatusBadRequest, ""},
	{voucher.ErrInvalidBonus, http.StatusBadRequest, ""},
	{referral.ErrInvalidAmount, http.StatusBadRequest, ""},
	{referral.ErrInvalidCommissionRate, http.StatusBadRequest, ""},
	{user.ErrInvalidReferralCode, http.StatusBadRequest, ""},
	{user.ErrPasswordTooShort, http.StatusBadRequest, ""},
	{user.ErrInvalidEmail, http.StatusBadRequest, ""},
	{user.ErrInvalidUsername, http.StatusBadRequest, ""},
	{ton.ErrInvalidAddress, http.StatusBadRequest, ""},
	{ton.ErrInvalidAmount, http.StatusBadRequest, ""},
	{wallet.ErrInvalidAddress, http.StatusBadRequest, ""},
	{settlement.ErrOnlyTON, http.StatusBadRequest, ""},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{auth.ErrTOTPRequired, http.StatusUnauthorized, ""},
	{auth.ErrInvalidTOTP, http.StatusUnauthorized, ""},
	{auth.ErrAdminDisabled, http.StatusServiceUnavailable, ""},

	{voucher.ErrVoucherNotFound, http.StatusNotFound, ""},
	{user.ErrUserNotFound, http.StatusNotFound, ""},
	{referral.ErrUserNotFound, http.StatusNotFound, ""},
	{wallet.ErrWalletNotFound, http.StatusNotFound, ""},
	{settlement.ErrIntentNotFound, http.StatusNotFound, ""},

	{user.ErrEmailTaken, http.StatusConflict, ""},
	{user.ErrReferralCodeTaken, http.StatusConflict, ""},
	{settlement.ErrIntentClosed, http.StatusConflict, ""},
	{transaction.ErrDuplicateTransfer, http.StatusConflict, ""},

	{settlement.ErrTransferFailed, http.StatusPaymentRequired, "Transaction failed or was cancelled"},
	{settlement.ErrIntentExpired, http.StatusGone, "Transaction request expired, please try again"},
}

// respondError writes the response for err. Errors without a mapping are
// logged and reported as fallback with status 500.
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	if errors.Is(err, transfer.ErrTransferPending) {
		c.JSON(http.StatusAccepted, gin.H{"status": "pending", "message": "Transfer not confirmed yet"})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			message := m.message
			if message == "" {
				message = m.err.Error()
			}
			c.JSON(m.status, gin.H{"error": message})
			return
		}
	}

	log.Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
