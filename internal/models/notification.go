package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is the in-app copy of a push sent to a customer.
type Notification struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CustomerID uint           `gorm:"not null;index" json:"customer_id"`
	Type       string         `gorm:"size:50;not null;index" json:"type"`
	Title      string         `gorm:"size:255" json:"title"`
	Body       string         `gorm:"type:text" json:"body"`
	Data       string         `gorm:"type:text" json:"data"` // JSON payload
	ReadAt     *time.Time     `json:"read_at"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
