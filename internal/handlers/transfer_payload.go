package handlers

import (
	"strconv"

	"github.com/fuswap/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// transferPayload is what the wallet needs to build and sign the transfer.
// The amount is in nanotons and the comment must be attached verbatim.
func transferPayload(intent *models.TransferIntent) gin.H {
	return gin.H{
		"intent_id":   intent.ID,
		"kind":        intent.Kind,
		"status":      intent.Status,
		"destination": intent.Destination,
		"amount":      intent.Amount,
		"amount_nano": strconv.FormatInt(intent.AmountNano, 10),
		"comment":     intent.Reference,
		"valid_until": intent.ValidUntil.Unix(),
	}
}
