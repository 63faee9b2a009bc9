package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"storefront/internal/checkout"
	"storefront/internal/service"
	"storefront/pkg/gateway"

	"github.com/gin-gonic/gin"
)

type PaymentWebhookHandler struct {
	ledger PaymentLedger
	store  *checkout.Store
	hub    Broadcaster
	secret string
}

func NewPaymentWebhookHandler(ledger PaymentLedger, store *checkout.Store, hub Broadcaster, secret string) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{ledger: ledger, store: store, hub: hub, secret: secret}
}

// Handle accepts gateway charge notifications. With a secret configured the body must carry
// a hex HMAC-SHA256 in X-Webhook-Signature. A confirmed charge settles the ledger and
// finishes any open session holding the reference, so the customer need not tap Verify.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.secret != "" && !gateway.VerifySignature(h.secret, body, c.GetHeader("X-Webhook-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	ev, err := gateway.ParseWebhook(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if ev.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference required"})
		return
	}
	switch {
	case ev.Succeeded():
		settled, err := h.ledger.Complete(c.Request.Context(), ev.Reference)
		if err != nil && !errors.Is(err, service.ErrPaymentNotFound) {
			log.Printf("[WEBHOOK] complete reference=%s: %v", ev.Reference, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		if sess := h.store.ByReference(ev.Reference); sess != nil && sess.MarkConfirmed(ev.Reference) {
			h.store.Remove(sess.ID())
			if h.hub != nil {
				h.hub.BroadcastToUser(sess.CustomerID(), gin.H{"type": "payment_session", "session": sess.View()})
			}
		}
		log.Printf("[WEBHOOK] reference=%s success settled=%v", ev.Reference, settled)
	case ev.Failed():
		if err := h.ledger.Fail(ev.Reference); err != nil {
			log.Printf("[WEBHOOK] fail reference=%s: %v", ev.Reference, err)
		}
		log.Printf("[WEBHOOK] reference=%s failed status=%q", ev.Reference, ev.Status)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
