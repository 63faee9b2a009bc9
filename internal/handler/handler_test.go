package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/config"
	"storefront/internal/auth"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() { gin.SetMode(gin.TestMode) }

var testJWT = config.JWTConfig{AccessSecret: "test", AccessExpiry: time.Hour, Issuer: "test"}

type fakeOrders struct {
	orders map[uint]*models.Order
	next   uint
}

func newFakeOrders(list ...models.Order) *fakeOrders {
	f := &fakeOrders{orders: map[uint]*models.Order{}}
	for i := range list {
		o := list[i]
		f.orders[o.ID] = &o
		if o.ID > f.next {
			f.next = o.ID
		}
	}
	return f
}

func (f *fakeOrders) Create(o *models.Order) error {
	f.next++
	o.ID = f.next
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrders) GetForCustomer(id, customerID uint) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok || o.CustomerID != customerID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) ListByCustomer(customerID uint, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeLedger struct {
	mu        sync.Mutex
	charges   []checkout.ChargeStarted
	completed []string
	abandoned []string
	failed    []string
}

func (f *fakeLedger) RecordCharge(_ context.Context, ch checkout.ChargeStarted) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges = append(f.charges, ch)
	return nil
}

func (f *fakeLedger) Complete(_ context.Context, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.completed {
		if r == ref {
			return false, nil
		}
	}
	f.completed = append(f.completed, ref)
	return true, nil
}

func (f *fakeLedger) Abandon(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, ref)
	return nil
}

func (f *fakeLedger) Fail(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, ref)
	return nil
}

type fakeHub struct {
	mu   sync.Mutex
	sent []gin.H
}

func (f *fakeHub) BroadcastToUser(_ uint, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload.(gin.H))
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type checkoutFixture struct {
	router *gin.Engine
	ledger *fakeLedger
	hub    *fakeHub
	store  *checkout.Store
	clock  *clock
	token  string
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	store := checkout.NewStore(time.Hour, clk.Now)
	t.Cleanup(store.Close)
	orders := newFakeOrders(
		models.Order{ID: 5, Number: "ORD-5", CustomerID: 7, TotalPesewas: 4550, Status: domain.OrderStatusPlaced, PaymentStatus: domain.PaymentStatusPending},
		models.Order{ID: 6, Number: "ORD-6", CustomerID: 7, TotalPesewas: 100, Status: domain.OrderStatusPlaced, PaymentStatus: domain.PaymentStatusPaid},
		models.Order{ID: 8, Number: "ORD-8", CustomerID: 99, TotalPesewas: 100, Status: domain.OrderStatusPlaced, PaymentStatus: domain.PaymentStatusPending},
	)
	ledger := &fakeLedger{}
	hub := &fakeHub{}
	h := NewCheckoutHandler(orders, store, gateway.StubGateway{}, ledger, hub, config.CheckoutConfig{
		VerifyCooldown: 15 * time.Second,
		SuccessPath:    "/checkout/success",
	})
	h.clock = clk.Now
	ids := 0
	h.newID = func() string {
		ids++
		return "sess-" + string(rune('0'+ids))
	}
	wh := NewPaymentWebhookHandler(ledger, store, hub, "whsec")

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/webhooks/payment", wh.Handle)
	authed := api.Group("", middleware.AuthRequired(&testJWT))
	authed.POST("/orders/:id/payment-session", h.Open)
	authed.GET("/payment-sessions/:id", h.Get)
	authed.POST("/payment-sessions/:id/confirm", h.Confirm)
	authed.POST("/payment-sessions/:id/otp", h.VerifyOTP)
	authed.POST("/payment-sessions/:id/change-number", h.ChangeNumber)
	authed.POST("/payment-sessions/:id/verify", h.Verify)
	authed.POST("/payment-sessions/:id/close", h.Close)
	authed.DELETE("/payment-sessions/:id", h.Cancel)

	tok, err := auth.GenerateAccessToken(&testJWT, 7, "0241234567")
	require.NoError(t, err)
	return &checkoutFixture{router: r, ledger: ledger, hub: hub, store: store, clock: clk, token: tok}
}

type sessionResponse struct {
	Error    string        `json:"error"`
	Decision string        `json:"decision"`
	Session  checkout.View `json:"session"`
}

func (f *checkoutFixture) do(t *testing.T, method, path string, body interface{}) (int, sessionResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var resp sessionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}
