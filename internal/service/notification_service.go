package service

import (
	"context"
	"encoding/json"
	"log"

	"storefront/internal/models"
	"storefront/pkg/gateway"
)

const NotifPaymentConfirmed = "PAYMENT_CONFIRMED"

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Create(n *models.Notification) error
}

// Broadcaster delivers a live event to a customer's open sockets.
type Broadcaster interface {
	BroadcastToUser(userID uint, payload interface{})
}

// Pusher delivers a device push.
type Pusher interface {
	SendToCustomer(ctx context.Context, fcmToken, notifType, title, body string, data map[string]interface{}) error
}

type NotificationService struct {
	repo      NotificationStore
	customers CustomerStore
	hub       Broadcaster
	push      Pusher
}

// NewNotificationService wires the notification channels. hub and push may be nil.
func NewNotificationService(repo NotificationStore, customers CustomerStore, hub Broadcaster, push Pusher) *NotificationService {
	return &NotificationService{repo: repo, customers: customers, hub: hub, push: push}
}

// Notify stores the notification, sends it to live sockets and pushes it to the device.
func (s *NotificationService) Notify(ctx context.Context, customerID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	if s.repo != nil {
		err := s.repo.Create(&models.Notification{
			CustomerID: customerID,
			Type:       notifType,
			Title:      title,
			Body:       body,
			Data:       dataJSON,
		})
		if err != nil {
			return err
		}
	}
	if s.hub != nil {
		s.hub.BroadcastToUser(customerID, map[string]interface{}{"type": notifType, "title": title, "body": body, "data": data})
	}
	s.sendPush(ctx, customerID, notifType, title, body, data)
	return nil
}

func (s *NotificationService) sendPush(ctx context.Context, customerID uint, notifType, title, body string, data map[string]interface{}) {
	if s.push == nil || s.customers == nil {
		return
	}
	c, err := s.customers.GetByID(customerID)
	if err != nil || c == nil || c.FCMToken == "" {
		return
	}
	if err := s.push.SendToCustomer(ctx, c.FCMToken, notifType, title, body, data); err != nil {
		log.Printf("[NOTIFY] push to customer=%d failed: %v", customerID, err)
	}
}

// PaymentConfirmed tells the customer their order is paid.
func (s *NotificationService) PaymentConfirmed(ctx context.Context, p *models.Payment, orderNumber string) error {
	body := "We received GHS " + gateway.FormatCedis(p.AmountCents) + " for order " + orderNumber + "."
	return s.Notify(ctx, p.CustomerID, NotifPaymentConfirmed, "Payment confirmed", body, map[string]interface{}{
		"order_id":       p.OrderID,
		"order_number":   orderNumber,
		"amount_pesewas": p.AmountCents,
		"reference":      p.ProviderRef,
	})
}
