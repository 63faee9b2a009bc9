package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is one mobile-money charge attempt against an order.
type Payment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CustomerID  uint           `gorm:"not null;index" json:"customer_id"`
	OrderID     uint           `gorm:"not null;index" json:"order_id"`
	AmountCents int64          `gorm:"not null" json:"amount_pesewas"`
	Currency    string         `gorm:"size:3;default:'GHS'" json:"currency"`
	Provider    string         `gorm:"size:50;not null" json:"provider"`
	Network     string         `gorm:"size:20" json:"network"`
	Phone       string         `gorm:"size:16" json:"phone"`
	ProviderRef string         `gorm:"size:255;uniqueIndex" json:"reference"`
	Status      string         `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, FAILED, ABANDONED
	Metadata    string         `gorm:"type:text" json:"metadata"`             // JSON
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
