package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simonwachira/checkout-service/internal/models"
	"github.com/simonwachira/checkout-service/internal/service"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

type WebhookHandler struct {
	confirmation *service.ConfirmationService
}

func NewWebhookHandler(confirmation *service.ConfirmationService) *WebhookHandler {
	return &WebhookHandler{confirmation: confirmation}
}

// MpesaCallback handles the gateway's result callback. The gateway retries
// aggressively on anything but a 200, so every outcome, including a body we
// cannot parse, is acknowledged with 200 after logging.
func (h *WebhookHandler) MpesaCallback(c *gin.Context) {
	var cb models.StkCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		telemetry.Logger.Error("unparseable gateway callback", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
		return
	}

	h.confirmation.HandleCallback(c.Request.Context(), &cb)

	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}
