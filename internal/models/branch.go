package models

import (
	"time"

	"gorm.io/gorm"
)

// Branch is one physical outlet of a vendor shop.
type Branch struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ShopID       uint           `gorm:"not null;index" json:"shop_id"`
	ShopName     string         `gorm:"size:128;not null" json:"shop_name"`
	Name         string         `gorm:"size:128;not null" json:"name"`
	Vertical     string         `gorm:"size:20;not null;index" json:"vertical"` // RESTAURANT | GROCERY | PHARMACY
	Latitude     float64        `gorm:"index" json:"latitude"`
	Longitude    float64        `gorm:"index" json:"longitude"`
	Address      string         `gorm:"size:255" json:"address"`
	OpeningHours string         `gorm:"size:255" json:"opening_hours"` // e.g. "Mon-Fri 08:00-22:00; Sat-Sun 10:00-20:00"
	ImageURL     string         `gorm:"size:512" json:"image_url"`
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Branch) TableName() string {
	return "branches"
}
