package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/models"
	"storefront/pkg/gateway"

	"github.com/stretchr/testify/require"
)

func newPaymentFixture() (*PaymentService, *fakePayments, *fakeOrders, *fakeNotifier) {
	payments := newFakePayments()
	orders := newFakeOrders(models.Order{ID: 5, Number: "ORD-5", CustomerID: 7, TotalPesewas: 2500, PaymentStatus: domain.PaymentStatusPending})
	notifier := &fakeNotifier{}
	return NewPaymentService(payments, orders, notifier, ""), payments, orders, notifier
}

func started(ref string) checkout.ChargeStarted {
	return checkout.ChargeStarted{
		SessionID:  "sess",
		OrderID:    5,
		CustomerID: 7,
		Reference:  ref,
		Network:    gateway.NetworkMTN,
		Phone:      "0241234567",
		Amount:     2500,
	}
}

func TestPaymentService_RecordCharge(t *testing.T) {
	svc, payments, _, _ := newPaymentFixture()
	ctx := context.Background()

	require.NoError(t, svc.RecordCharge(ctx, started("r1")))
	p, err := payments.GetByProviderRef("r1")
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPending, p.Status)
	require.Equal(t, int64(2500), p.AmountCents)
	require.Equal(t, "GHS", p.Currency)
	require.Equal(t, domain.ProviderMobileMoney, p.Provider)
	require.JSONEq(t, `{"session_id":"sess"}`, p.Metadata)

	// same reference again is a no-op
	require.NoError(t, svc.RecordCharge(ctx, started("r1")))
	require.Len(t, payments.byRef, 1)

	require.ErrorIs(t, svc.RecordCharge(ctx, started("")), ErrPaymentNotFound)
}

func TestPaymentService_CompleteIsIdempotent(t *testing.T) {
	svc, payments, orders, notifier := newPaymentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RecordCharge(ctx, started("r1")))

	done, err := svc.Complete(ctx, "r1")
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, domain.PaymentStatusCompleted, payments.status("r1"))
	o, _ := orders.GetByID(5)
	require.Equal(t, domain.PaymentStatusPaid, o.PaymentStatus)
	require.NotNil(t, o.PaidAt)

	done, err = svc.Complete(ctx, "r1")
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, []sentNotice{{reference: "r1", orderNumber: "ORD-5"}}, notifier.sent)
}

func TestPaymentService_CompleteUnknownReference(t *testing.T) {
	svc, _, _, notifier := newPaymentFixture()
	_, err := svc.Complete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrPaymentNotFound)
	require.Empty(t, notifier.sent)
}

func TestPaymentService_AbandonThenLateConfirmation(t *testing.T) {
	svc, payments, orders, _ := newPaymentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RecordCharge(ctx, started("r1")))

	require.NoError(t, svc.Abandon("r1"))
	require.Equal(t, domain.PaymentStatusAbandoned, payments.status("r1"))

	// the customer approved on the phone after closing the dialog
	done, err := svc.Complete(ctx, "r1")
	require.NoError(t, err)
	require.True(t, done)
	o, _ := orders.GetByID(5)
	require.Equal(t, domain.PaymentStatusPaid, o.PaymentStatus)
}

func TestPaymentService_FailLeavesSettledAlone(t *testing.T) {
	svc, payments, _, _ := newPaymentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RecordCharge(ctx, started("r1")))
	_, err := svc.Complete(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, svc.Fail("r1"))
	require.Equal(t, domain.PaymentStatusCompleted, payments.status("r1"))
	require.NoError(t, svc.Fail(""))
}

func TestPaymentService_GatewaySuccessOverridesEarlierFailure(t *testing.T) {
	svc, payments, orders, notifier := newPaymentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RecordCharge(ctx, started("r1")))

	// a declined webhook arrives before the customer approves and taps Verify
	require.NoError(t, svc.Fail("r1"))
	require.Equal(t, domain.PaymentStatusFailed, payments.status("r1"))

	done, err := svc.Complete(ctx, "r1")
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, domain.PaymentStatusCompleted, payments.status("r1"))
	o, _ := orders.GetByID(5)
	require.Equal(t, domain.PaymentStatusPaid, o.PaymentStatus)
	require.Len(t, notifier.sent, 1)
}

func TestPaymentService_RetryMarksOrderPaidAfterFailedUpdate(t *testing.T) {
	svc, payments, orders, notifier := newPaymentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RecordCharge(ctx, started("r1")))
	deadlock := errors.New("deadlock found when trying to get lock")
	orders.markPaidErrs = []error{deadlock}

	done, err := svc.Complete(ctx, "r1")
	require.ErrorIs(t, err, deadlock)
	require.True(t, done)
	require.Equal(t, domain.PaymentStatusCompleted, payments.status("r1"))
	o, _ := orders.GetByID(5)
	require.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
	require.Empty(t, notifier.sent)

	// webhook redelivery or a second Verify repairs the order
	done, err = svc.Complete(ctx, "r1")
	require.NoError(t, err)
	require.True(t, done)
	o, _ = orders.GetByID(5)
	require.Equal(t, domain.PaymentStatusPaid, o.PaymentStatus)
	require.Len(t, notifier.sent, 1)

	done, err = svc.Complete(ctx, "r1")
	require.NoError(t, err)
	require.False(t, done)
	require.Len(t, notifier.sent, 1)
}

func TestPaymentService_Lookup(t *testing.T) {
	svc, _, _, _ := newPaymentFixture()
	require.NoError(t, svc.RecordCharge(context.Background(), started("r1")))

	p, err := svc.Lookup("r1", 7)
	require.NoError(t, err)
	require.Equal(t, uint(5), p.OrderID)

	_, err = svc.Lookup("r1", 8)
	require.ErrorIs(t, err, ErrPaymentNotFound)
	_, err = svc.Lookup("nope", 7)
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestNotificationService_PaymentConfirmed(t *testing.T) {
	customers := newFakeCustomers()
	phone := "0241234567"
	require.NoError(t, customers.Create(&models.Customer{Phone: &phone, FCMToken: "device-1"}))
	repo := &fakeNotificationRepo{}
	hub := &fakeHub{}
	push := &fakePusher{}
	svc := NewNotificationService(repo, customers, hub, push)

	p := &models.Payment{CustomerID: 1, OrderID: 5, AmountCents: 2500, ProviderRef: "r1"}
	require.NoError(t, svc.PaymentConfirmed(context.Background(), p, "ORD-5"))

	require.Len(t, repo.created, 1)
	require.Equal(t, NotifPaymentConfirmed, repo.created[0].Type)
	require.Equal(t, "We received GHS 25.00 for order ORD-5.", repo.created[0].Body)
	require.Contains(t, repo.created[0].Data, `"reference":"r1"`)
	require.Len(t, hub.sent, 1)
	require.Equal(t, uint(1), hub.sent[0].userID)
	require.Equal(t, []string{"device-1"}, push.tokens)
}

func TestNotificationService_NoTokenSkipsPush(t *testing.T) {
	customers := newFakeCustomers()
	require.NoError(t, customers.Create(&models.Customer{}))
	push := &fakePusher{}
	svc := NewNotificationService(nil, customers, nil, push)
	require.NoError(t, svc.Notify(context.Background(), 1, "X", "t", "b", nil))
	require.Empty(t, push.tokens)
}
