package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/models"

	"gorm.io/gorm"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentStore interface {
	Create(p *models.Payment) error
	GetByProviderRef(ref string) (*models.Payment, error)
	MarkCompleted(ref string, at time.Time) (bool, error)
	MarkStatus(ref, status string) error
}

type OrderStore interface {
	GetByID(id uint) (*models.Order, error)
	MarkPaid(id uint, at time.Time) (bool, error)
}

// PaymentNotifier is told once per completed payment.
type PaymentNotifier interface {
	PaymentConfirmed(ctx context.Context, p *models.Payment, orderNumber string) error
}

// PaymentService keeps the payments ledger in step with checkout sessions and gateway webhooks.
type PaymentService struct {
	payments PaymentStore
	orders   OrderStore
	notifier PaymentNotifier
	currency string
	now      func() time.Time
}

func NewPaymentService(payments PaymentStore, orders OrderStore, notifier PaymentNotifier, currency string) *PaymentService {
	if currency == "" {
		currency = "GHS"
	}
	return &PaymentService{payments: payments, orders: orders, notifier: notifier, currency: currency, now: time.Now}
}

type chargeMetadata struct {
	SessionID string `json:"session_id"`
}

// RecordCharge stores a PENDING payment for a charge the gateway accepted. A reference
// that is already recorded is left as is.
func (s *PaymentService) RecordCharge(ctx context.Context, ch checkout.ChargeStarted) error {
	if ch.Reference == "" {
		return ErrPaymentNotFound
	}
	_, err := s.payments.GetByProviderRef(ch.Reference)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	meta, _ := json.Marshal(chargeMetadata{SessionID: ch.SessionID})
	p := &models.Payment{
		CustomerID:  ch.CustomerID,
		OrderID:     ch.OrderID,
		AmountCents: ch.Amount,
		Currency:    s.currency,
		Provider:    domain.ProviderMobileMoney,
		Network:     string(ch.Network),
		Phone:       ch.Phone,
		ProviderRef: ch.Reference,
		Status:      domain.PaymentStatusPending,
		Metadata:    string(meta),
	}
	if err := s.payments.Create(p); err != nil {
		log.Printf("[PAYMENT] record charge reference=%s failed: %v", ch.Reference, err)
		return err
	}
	log.Printf("[PAYMENT] pending reference=%s order=%d amount=%d", ch.Reference, ch.OrderID, ch.Amount)
	return nil
}

// Complete settles the payment with reference and marks its order paid. It reports whether
// this call changed anything; repeated calls for a settled reference return false, nil.
// A gateway success overrides an earlier FAILED, and an order left unpaid by a failed
// earlier attempt is marked paid on retry.
func (s *PaymentService) Complete(ctx context.Context, reference string) (bool, error) {
	now := s.now()
	changed, err := s.payments.MarkCompleted(reference, now)
	if err != nil {
		return false, err
	}
	p, err := s.payments.GetByProviderRef(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrPaymentNotFound
		}
		return false, err
	}
	if p.Status != domain.PaymentStatusCompleted {
		log.Printf("[PAYMENT] reference=%s not settled, status=%s", reference, p.Status)
		return false, nil
	}
	paid, err := s.orders.MarkPaid(p.OrderID, now)
	if err != nil {
		return changed, err
	}
	if !changed && !paid {
		log.Printf("[PAYMENT] reference=%s already settled", reference)
		return false, nil
	}
	orderNumber := ""
	if o, err := s.orders.GetByID(p.OrderID); err == nil {
		orderNumber = o.Number
	}
	log.Printf("[PAYMENT] completed reference=%s order=%d", reference, p.OrderID)
	if s.notifier != nil {
		if err := s.notifier.PaymentConfirmed(ctx, p, orderNumber); err != nil {
			log.Printf("[PAYMENT] notify reference=%s failed: %v", reference, err)
		}
	}
	return true, nil
}

// Abandon marks a pending charge the customer walked away from.
func (s *PaymentService) Abandon(reference string) error {
	if reference == "" {
		return nil
	}
	return s.payments.MarkStatus(reference, domain.PaymentStatusAbandoned)
}

// Fail marks a pending charge the gateway reported as failed.
func (s *PaymentService) Fail(reference string) error {
	if reference == "" {
		return nil
	}
	return s.payments.MarkStatus(reference, domain.PaymentStatusFailed)
}

// Lookup returns the payment for reference if it belongs to customerID.
func (s *PaymentService) Lookup(reference string, customerID uint) (*models.Payment, error) {
	p, err := s.payments.GetByProviderRef(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if p.CustomerID != customerID {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}
