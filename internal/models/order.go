package models

import (
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Number             string         `gorm:"size:64;uniqueIndex;not null" json:"number"` // sent to the gateway as orderId
	CustomerID         uint           `gorm:"not null;index" json:"customer_id"`
	BranchID           uint           `gorm:"not null;index" json:"branch_id"`
	SubtotalPesewas    int64          `gorm:"not null" json:"subtotal_pesewas"`
	DeliveryFeePesewas int64          `gorm:"not null;default:0" json:"delivery_fee_pesewas"`
	TotalPesewas       int64          `gorm:"not null" json:"total_pesewas"`
	Currency           string         `gorm:"size:3;default:'GHS'" json:"currency"`
	DeliveryLatitude   float64        `json:"delivery_latitude"`
	DeliveryLongitude  float64        `json:"delivery_longitude"`
	DeliveryAddress    string         `gorm:"size:255" json:"delivery_address"`
	DistanceKm         float64        `json:"distance_km"`
	Status             string         `gorm:"size:20;not null;index" json:"status"`         // PLACED | CANCELLED
	PaymentStatus      string         `gorm:"size:20;not null;index" json:"payment_status"` // PENDING | PAID
	PaidAt             *time.Time     `json:"paid_at"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Branch Branch `gorm:"foreignKey:BranchID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}
