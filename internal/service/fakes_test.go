package service

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/models"

	"gorm.io/gorm"
)

type fakeCustomers struct {
	mu   sync.Mutex
	next uint
	byID map[uint]*models.Customer
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{byID: map[uint]*models.Customer{}}
}

func (f *fakeCustomers) Create(c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	c.ID = f.next
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCustomers) GetByID(id uint) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomers) find(match func(*models.Customer) bool) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCustomers) GetByEmail(email string) (*models.Customer, error) {
	return f.find(func(c *models.Customer) bool { return c.Email != nil && *c.Email == email })
}

func (f *fakeCustomers) GetByPhone(phone string) (*models.Customer, error) {
	return f.find(func(c *models.Customer) bool { return c.Phone != nil && *c.Phone == phone })
}

func (f *fakeCustomers) Update(c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

type fakePayments struct {
	mu    sync.Mutex
	byRef map[string]*models.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{byRef: map[string]*models.Payment{}}
}

func (f *fakePayments) Create(p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uint(len(f.byRef) + 1)
	cp := *p
	f.byRef[p.ProviderRef] = &cp
	return nil
}

func (f *fakePayments) GetByProviderRef(ref string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byRef[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayments) MarkCompleted(ref string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byRef[ref]
	if !ok {
		return false, nil
	}
	switch p.Status {
	case domain.PaymentStatusPending, domain.PaymentStatusAbandoned, domain.PaymentStatusFailed:
	default:
		return false, nil
	}
	p.Status = domain.PaymentStatusCompleted
	p.CompletedAt = &at
	return true, nil
}

func (f *fakePayments) MarkStatus(ref, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byRef[ref]; ok && p.Status == domain.PaymentStatusPending {
		p.Status = status
	}
	return nil
}

func (f *fakePayments) status(ref string) string {
	p, err := f.GetByProviderRef(ref)
	if err != nil {
		return ""
	}
	return p.Status
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[uint]*models.Order
	// markPaidErrs are returned, in order, by the next MarkPaid calls.
	markPaidErrs []error
}

func newFakeOrders(orders ...models.Order) *fakeOrders {
	f := &fakeOrders{orders: map[uint]*models.Order{}}
	for i := range orders {
		o := orders[i]
		f.orders[o.ID] = &o
	}
	return f
}

func (f *fakeOrders) GetByID(id uint) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) MarkPaid(id uint, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.markPaidErrs) > 0 {
		err := f.markPaidErrs[0]
		f.markPaidErrs = f.markPaidErrs[1:]
		return false, err
	}
	o, ok := f.orders[id]
	if !ok || o.PaymentStatus != domain.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = domain.PaymentStatusPaid
	o.PaidAt = &at
	return true, nil
}

type sentNotice struct {
	reference   string
	orderNumber string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (f *fakeNotifier) PaymentConfirmed(_ context.Context, p *models.Payment, orderNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotice{reference: p.ProviderRef, orderNumber: orderNumber})
	return nil
}

type fakeNotificationRepo struct {
	created []models.Notification
}

func (f *fakeNotificationRepo) Create(n *models.Notification) error {
	f.created = append(f.created, *n)
	return nil
}

type broadcast struct {
	userID  uint
	payload interface{}
}

type fakeHub struct {
	sent []broadcast
}

func (f *fakeHub) BroadcastToUser(userID uint, payload interface{}) {
	f.sent = append(f.sent, broadcast{userID: userID, payload: payload})
}

type fakePusher struct {
	tokens []string
	types  []string
}

func (f *fakePusher) SendToCustomer(_ context.Context, token, notifType, _, _ string, _ map[string]interface{}) error {
	f.tokens = append(f.tokens, token)
	f.types = append(f.types, notifType)
	return nil
}
