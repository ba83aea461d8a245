package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fuswap/backend/internal/security"
	"github.com/fuswap/backend/internal/services/auth"
	"github.com/gin-gonic/gin"
)

// rejectLockedOut answers 429 when account or the client IP is locked out
func rejectLockedOut(c *gin.Context, guard *security.LoginProtection, account string) bool {
	if guard == nil {
		return false
	}
	blocked, until := guard.Blocked(account, c.ClientIP())
	if !blocked {
		return false
	}
	retryAfter := int(time.Until(until).Seconds()) + 1
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "Too many failed login attempts. Please try again later.",
		"retry_after": retryAfter,
	})
	return true
}

// trackLogin updates the lockout counters from a login result
func trackLogin(c *gin.Context, guard *security.LoginProtection, account string, err error) {
	if guard == nil {
		return
	}
	switch {
	case err == nil:
		guard.Reset(account)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidTOTP):
		guard.RecordFailure(account, c.ClientIP())
	}
}

func loginAccount(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
