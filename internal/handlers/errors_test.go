package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fuswap/backend/internal/services/exchange"
	"github.com/fuswap/backend/internal/services/settlement"
	"github.com/fuswap/backend/internal/services/transfer"
	"github.com/fuswap/backend/internal/services/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", exchange.ErrInvalidRate, http.StatusBadRequest, "rate must be greater than zero"},
		{"wrapped validation", fmt.Errorf("%w: XYZ", exchange.ErrUnknownCurrency), http.StatusBadRequest, "unknown currency"},
		{"not found", user.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"conflict", user.ErrReferralCodeTaken, http.StatusConflict, "referral code is already in use"},
		{"transfer failed", fmt.Errorf("%w: %v", settlement.ErrTransferFailed, transfer.ErrTransferRejected), http.StatusPaymentRequired, "Transaction failed or was cancelled"},
		{"expired", settlement.ErrIntentExpired, http.StatusGone, "expired"},
		{"pending", transfer.ErrTransferPending, http.StatusAccepted, "pending"},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError, "Failed to do thing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, zap.NewNop(), tt.err, "Failed to do thing")

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}
