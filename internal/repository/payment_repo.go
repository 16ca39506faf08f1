package repository

import (
	"context"
	"time"

	"payflow/internal/domain"
	"payflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PaymentRepository) GetByIDForMerchant(ctx context.Context, id, merchantID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).Take(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// LockForMerchant reads the payment with a row lock. Must run inside a transaction.
func (r *PaymentRepository) LockForMerchant(ctx context.Context, id, merchantID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		Take(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Settlement is the outcome applied to a pending payment.
type Settlement struct {
	Success          bool
	ErrorCode        string
	ErrorDescription string
}

// Settle applies the outcome only if the payment is still pending. It reports false when another
// delivery already settled it.
func (r *PaymentRepository) Settle(ctx context.Context, id string, s Settlement, now time.Time) (bool, error) {
	updates := map[string]interface{}{"updated_at": now}
	if s.Success {
		updates["status"] = domain.PaymentStatusSuccess
		updates["captured"] = true
	} else {
		updates["status"] = domain.PaymentStatusFailed
		updates["error_code"] = s.ErrorCode
		updates["error_description"] = s.ErrorDescription
	}
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusPending).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// Capture flags a successful, uncaptured payment as captured.
func (r *PaymentRepository) Capture(ctx context.Context, id, merchantID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND merchant_id = ? AND status = ? AND captured = ?", id, merchantID, domain.PaymentStatusSuccess, false).
		Update("captured", true)
	return res.RowsAffected > 0, res.Error
}
