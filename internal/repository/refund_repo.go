package repository

import (
	"context"
	"time"

	"payflow/internal/domain"
	"payflow/internal/models"

	"gorm.io/gorm"
)

type RefundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) WithTx(tx *gorm.DB) *RefundRepository {
	return &RefundRepository{db: tx}
}

func (r *RefundRepository) Create(ctx context.Context, rf *models.Refund) error {
	return r.db.WithContext(ctx).Create(rf).Error
}

func (r *RefundRepository) GetByID(ctx context.Context, id string) (*models.Refund, error) {
	var rf models.Refund
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rf).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rf, nil
}

func (r *RefundRepository) GetByIDForMerchant(ctx context.Context, id, merchantID string) (*models.Refund, error) {
	var rf models.Refund
	err := r.db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).Take(&rf).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rf, nil
}

// TotalForPayment sums every refund recorded against the payment, pending or processed.
func (r *RefundRepository) TotalForPayment(ctx context.Context, paymentID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("payment_id = ?", paymentID).
		Scan(&total).Error
	return total, err
}

func (r *RefundRepository) MarkProcessed(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("id = ? AND status = ?", id, domain.RefundStatusPending).
		Updates(map[string]interface{}{
			"status":       domain.RefundStatusProcessed,
			"processed_at": now,
			"updated_at":   now,
		})
	return res.RowsAffected > 0, res.Error
}
