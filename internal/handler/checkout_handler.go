package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"storefront/config"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderLookup finds an order placed by a customer.
type OrderLookup interface {
	GetForCustomer(id, customerID uint) (*models.Order, error)
}

// PaymentLedger records charges started and settled by checkout sessions.
type PaymentLedger interface {
	RecordCharge(ctx context.Context, ch checkout.ChargeStarted) error
	Complete(ctx context.Context, reference string) (bool, error)
	Abandon(reference string) error
	Fail(reference string) error
}

// Broadcaster pushes live events to a customer's sockets.
type Broadcaster interface {
	BroadcastToUser(userID uint, payload interface{})
}

type CheckoutHandler struct {
	orders OrderLookup
	store  *checkout.Store
	gw     gateway.Gateway
	ledger PaymentLedger
	hub    Broadcaster
	cfg    config.CheckoutConfig
	clock  checkout.Clock
	newID  func() string
}

func NewCheckoutHandler(orders OrderLookup, store *checkout.Store, gw gateway.Gateway, ledger PaymentLedger, hub Broadcaster, cfg config.CheckoutConfig) *CheckoutHandler {
	return &CheckoutHandler{
		orders: orders,
		store:  store,
		gw:     gw,
		ledger: ledger,
		hub:    hub,
		cfg:    cfg,
		newID:  uuid.NewString,
	}
}

// Open starts a payment session for an unpaid order, replacing any open one.
// POST /api/v1/orders/:id/payment-session
func (h *CheckoutHandler) Open(c *gin.Context) {
	customerID := middleware.GetCustomerID(c)
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.orders.GetForCustomer(uint(orderID), customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order lookup failed"})
		return
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "order already paid"})
		return
	}
	if order.Status == domain.OrderStatusCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "order cancelled"})
		return
	}
	sess := checkout.NewSession(h.gw, checkout.Params{
		ID:          h.newID(),
		OrderID:     order.ID,
		OrderNumber: order.Number,
		CustomerID:  customerID,
		Amount:      order.TotalPesewas,
		Cooldown:    h.cfg.VerifyCooldown,
		SuccessPath: h.cfg.SuccessPath,
		Clock:       h.clock,
		Hooks:       h.hooks(customerID),
	})
	if replaced := h.store.Put(sess); replaced != nil {
		h.abandonCharge(replaced)
	}
	log.Printf("[CHECKOUT] open session=%s order=%d customer=%d amount=%d", sess.ID(), order.ID, customerID, order.TotalPesewas)
	c.JSON(http.StatusCreated, gin.H{"session": sess.View(), "networks": gateway.Networks})
}

// hooks tie a session to the ledger and the customer's live sockets.
func (h *CheckoutHandler) hooks(customerID uint) checkout.Hooks {
	return checkout.Hooks{
		Navigate: func(path string) {
			if h.hub != nil {
				h.hub.BroadcastToUser(customerID, gin.H{"type": "navigate", "path": path})
			}
		},
		OnCharge: func(ctx context.Context, ch checkout.ChargeStarted) {
			if err := h.ledger.RecordCharge(ctx, ch); err != nil {
				log.Printf("[CHECKOUT] record charge session=%s reference=%s: %v", ch.SessionID, ch.Reference, err)
			}
		},
		OnComplete: func(ctx context.Context, done checkout.Completion) {
			if _, err := h.ledger.Complete(ctx, done.Reference); err != nil {
				log.Printf("[CHECKOUT] complete session=%s reference=%s: %v", done.SessionID, done.Reference, err)
			}
		},
	}
}

// Get returns the session's render state.
func (h *CheckoutHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.View()})
}

type confirmRequest struct {
	Phone    string `json:"phone"`
	Provider string `json:"provider"`
}

// Confirm starts the charge. POST /api/v1/payment-sessions/:id/confirm
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	h.respond(c, sess, sess.Confirm(c.Request.Context(), req.Phone, req.Provider))
}

type otpRequest struct {
	OTP string `json:"otp"`
}

// VerifyOTP answers the OTP challenge. POST /api/v1/payment-sessions/:id/otp
func (h *CheckoutHandler) VerifyOTP(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	h.respond(c, sess, sess.VerifyOTP(c.Request.Context(), req.OTP))
}

// ChangeNumber goes back to number entry. POST /api/v1/payment-sessions/:id/change-number
func (h *CheckoutHandler) ChangeNumber(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, sess, sess.ChangeNumber())
}

// Verify asks the gateway whether the charge went through. POST /api/v1/payment-sessions/:id/verify
func (h *CheckoutHandler) Verify(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	err := sess.Done(c.Request.Context())
	if err == nil {
		h.store.Remove(sess.ID())
	}
	h.respond(c, sess, err)
}

// Close reports what closing the dialog should do. Sessions that can close right away
// are dropped. POST /api/v1/payment-sessions/:id/close
func (h *CheckoutHandler) Close(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	decision := sess.RequestClose()
	if decision == checkout.CloseNow {
		h.abandon(sess)
	}
	c.JSON(http.StatusOK, gin.H{"decision": decision.String(), "session": sess.View()})
}

// Cancel abandons the session after the customer confirmed. DELETE /api/v1/payment-sessions/:id
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if sess.RequestClose() == checkout.CloseBlocked {
		c.JSON(http.StatusConflict, gin.H{"error": checkout.ErrBusy.Error(), "session": sess.View()})
		return
	}
	h.abandon(sess)
	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "session": sess.View()})
}

// abandon cancels sess, drops it from the store and marks its unsettled charge abandoned.
func (h *CheckoutHandler) abandon(sess *checkout.Session) {
	sess.Cancel()
	h.store.Remove(sess.ID())
	h.abandonCharge(sess)
}

// abandonCharge marks the charge of a cancelled session abandoned unless it was confirmed.
func (h *CheckoutHandler) abandonCharge(sess *checkout.Session) {
	if sess.Finished() {
		return
	}
	if ref := sess.Reference(); ref != "" {
		if err := h.ledger.Abandon(ref); err != nil {
			log.Printf("[CHECKOUT] abandon session=%s reference=%s: %v", sess.ID(), ref, err)
		}
	}
}

func (h *CheckoutHandler) session(c *gin.Context) (*checkout.Session, bool) {
	sess, err := h.store.Get(c.Param("id"), middleware.GetCustomerID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}

// respond writes the session view with a status matching err.
func (h *CheckoutHandler) respond(c *gin.Context, sess *checkout.Session, err error) {
	view := sess.View()
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"session": view})
		return
	}
	c.JSON(checkoutStatus(err), gin.H{"error": err.Error(), "session": view})
}

func checkoutStatus(err error) int {
	switch {
	case errors.Is(err, checkout.ErrInvalidPhone),
		errors.Is(err, checkout.ErrInvalidNetwork),
		errors.Is(err, checkout.ErrInvalidOTP),
		errors.Is(err, checkout.ErrOTPRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrWrongStep), errors.Is(err, checkout.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrCoolingDown):
		return http.StatusTooManyRequests
	case errors.Is(err, checkout.ErrFinished):
		return http.StatusGone
	case errors.Is(err, checkout.ErrChargeFailed):
		return http.StatusBadGateway
	case errors.Is(err, checkout.ErrPaymentNotFinal):
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}
