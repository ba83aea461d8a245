package handlers

import (
	"net/http"

	"github.com/fuswap/backend/internal/middleware"
	"github.com/fuswap/backend/internal/services/settlement"
	"github.com/fuswap/backend/internal/services/voucher"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VoucherHandler serves the voucher catalog and voucher purchases
type VoucherHandler struct {
	vouchers   *voucher.VoucherService
	settlement *settlement.SettlementService
	log        *zap.Logger
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(vouchers *voucher.VoucherService, settlement *settlement.SettlementService, log *zap.Logger) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers, settlement: settlement, log: log}
}

// GetVouchers lists the purchasable vouchers
func (h *VoucherHandler) GetVouchers(c *gin.Context) {
	catalog, err := h.vouchers.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to load vouchers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": catalog})
}

// PurchaseVoucher creates the transfer that pays for a voucher. The voucher
// is only activated once the transfer is confirmed.
func (h *VoucherHandler) PurchaseVoucher(c *gin.Context) {
	sess, _ := middleware.WalletSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid voucher ID")
		return
	}

	intent, rate, err := h.settlement.CreateVoucherIntent(c.Request.Context(), sess.Address, id)
	if err != nil {
		respondError(c, h.log, err, "Failed to create voucher purchase")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transfer": transferPayload(intent),
		"voucher":  rate,
	})
}

// UpdateVoucher changes the bonus percentage of a catalog voucher
func (h *VoucherHandler) UpdateVoucher(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid voucher ID")
		return
	}

	var input struct {
		Bonus decimal.Decimal `json:"bonus"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid bonus value")
		return
	}

	rate, err := h.vouchers.UpdateBonus(c.Request.Context(), id, input.Bonus)
	if err != nil {
		respondError(c, h.log, err, "Failed to update voucher")
		return
	}
	c.JSON(http.StatusOK, rate)
}
