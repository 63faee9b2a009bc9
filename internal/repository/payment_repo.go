package repository

import (
	"time"

	"storefront/internal/domain"
	"storefront/internal/models"

	"gorm.io/gorm"
)

// settleableStatuses may still become COMPLETED when the gateway confirms the charge.
var settleableStatuses = []string{domain.PaymentStatusPending, domain.PaymentStatusAbandoned, domain.PaymentStatusFailed}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByProviderRef(ref string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("provider_ref = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkCompleted moves an unsettled charge (pending, abandoned or failed) to COMPLETED.
// False means it was already completed or does not exist.
func (r *PaymentRepository) MarkCompleted(ref string, at time.Time) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("provider_ref = ? AND status IN ?", ref, settleableStatuses).
		Updates(map[string]interface{}{"status": domain.PaymentStatusCompleted, "completed_at": at})
	return res.RowsAffected > 0, res.Error
}

// MarkStatus sets status on a pending charge; settled charges are left alone.
func (r *PaymentRepository) MarkStatus(ref, status string) error {
	return r.db.Model(&models.Payment{}).
		Where("provider_ref = ? AND status = ?", ref, domain.PaymentStatusPending).
		Update("status", status).Error
}
