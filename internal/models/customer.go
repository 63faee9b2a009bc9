package models

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:128" json:"name"`
	Email        *string        `gorm:"uniqueIndex;size:255" json:"email,omitempty"` // nil for phone signups
	Phone        *string        `gorm:"uniqueIndex;size:16" json:"phone,omitempty"`  // 0XXXXXXXXX
	PasswordHash string         `gorm:"size:255" json:"-"`
	FCMToken     string         `gorm:"size:512" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// Login returns the identifier the customer signs in with.
func (c *Customer) Login() string {
	if c.Email != nil && *c.Email != "" {
		return *c.Email
	}
	if c.Phone != nil {
		return *c.Phone
	}
	return ""
}
