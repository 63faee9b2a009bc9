package repository

import (
	"time"

	"storefront/internal/domain"
	"storefront/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetForCustomer returns the order only if customerID placed it.
func (r *OrderRepository) GetForCustomer(id, customerID uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Where("id = ? AND customer_id = ?", id, customerID).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByCustomer(customerID uint, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Where("customer_id = ?", customerID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// MarkPaid flips a pending order to paid. It reports false when the order was already paid.
func (r *OrderRepository) MarkPaid(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, domain.PaymentStatusPending).
		Updates(map[string]interface{}{"payment_status": domain.PaymentStatusPaid, "paid_at": at})
	return res.RowsAffected > 0, res.Error
}
