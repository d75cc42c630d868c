package handler

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	returnsapp "github.com/returns/backend/internal/application/returns"
	"github.com/returns/backend/internal/infrastructure/logger"
)

// maxWebhookBody caps provider webhook payloads
const maxWebhookBody = 1 << 20

// WebhookHandler receives shipment status callbacks from the logistics
// provider
type WebhookHandler struct {
	BaseHandler
	webhooks *returnsapp.WebhookService
	secret   string
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks *returnsapp.WebhookService, secret string) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		secret:   secret,
	}
}

// Receive processes a provider webhook. Authenticated requests always get
// a 200 with {"received": true}: returning an error would make the
// provider retry payloads that will never apply.
// POST /custom/shiprocket/webhook
func (h *WebhookHandler) Receive(c *gin.Context) {
	if !h.authenticated(c) {
		h.Unauthorized(c, "Invalid webhook token")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.FromContext(c.Request.Context()).Warn("malformed webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	h.webhooks.Process(c.Request.Context(), payload)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// authenticated checks the shared webhook secret when one is configured.
// The provider has sent it under different header names over time, so both
// are accepted. An empty configured secret disables the check.
func (h *WebhookHandler) authenticated(c *gin.Context) bool {
	if h.secret == "" {
		return true
	}
	for _, header := range []string{"x-shiprocket-webhook-secret", "x-shiprocket-signature"} {
		provided := c.GetHeader(header)
		if provided != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) == 1 {
			return true
		}
	}
	return false
}
