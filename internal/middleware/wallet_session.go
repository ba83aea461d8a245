package middleware

import (
	"errors"
	"net/http"

	"github.com/fuswap/backend/internal/services/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WalletSessionHeader carries the token issued on wallet connect
const WalletSessionHeader = "X-Wallet-Session"

const walletSessionKey = "wallet_session"

// WalletSessionMiddleware requires a live wallet session
func WalletSessionMiddleware(store *session.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(WalletSessionHeader)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet not connected"})
			c.Abort()
			return
		}

		sess, err := store.Get(c.Request.Context(), token)
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet session expired"})
			c.Abort()
			return
		}
		if err != nil {
			log.Error("failed to load wallet session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wallet session"})
			c.Abort()
			return
		}

		c.Set(walletSessionKey, sess)
		c.Next()
	}
}

// WalletSession returns the session attached by WalletSessionMiddleware
func WalletSession(c *gin.Context) (*session.WalletSession, bool) {
	value, exists := c.Get(walletSessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := value.(*session.WalletSession)
	return sess, ok
}
