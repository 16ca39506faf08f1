package repository

import (
	"context"
	"time"

	"payflow/internal/domain"
	"payflow/internal/models"

	"gorm.io/gorm"
)

type WebhookLogRepository struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

func (r *WebhookLogRepository) WithTx(tx *gorm.DB) *WebhookLogRepository {
	return &WebhookLogRepository{db: tx}
}

func (r *WebhookLogRepository) Create(ctx context.Context, l *models.WebhookLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *WebhookLogRepository) GetByID(ctx context.Context, id string) (*models.WebhookLog, error) {
	var l models.WebhookLog
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&l).Error
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *WebhookLogRepository) GetByIDForMerchant(ctx context.Context, id, merchantID string) (*models.WebhookLog, error) {
	var l models.WebhookLog
	err := r.db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).Take(&l).Error
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

// ListByMerchant returns one page of logs, newest first, and the merchant's total.
func (r *WebhookLogRepository) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]models.WebhookLog, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&models.WebhookLog{}).Where("merchant_id = ?", merchantID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	logs := make([]models.WebhookLog, 0, limit)
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&logs).Error
	return logs, total, err
}

// ClaimAttempt starts delivery attempt number attempt+1 under token. Only the task that carries
// the log's current attempt count can claim it, so stale or duplicated tasks get false.
func (r *WebhookLogRepository) ClaimAttempt(ctx context.Context, id string, attempt int, token string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("id = ? AND status = ? AND attempts = ?", id, domain.WebhookStatusPending, attempt).
		Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + 1"),
			"claim_token":     token,
			"last_attempt_at": now,
			"next_retry_at":   nil,
			"updated_at":      now,
		})
	return res.RowsAffected > 0, res.Error
}

// ResumeAttempt takes over attempt number attempts when it was claimed but never recorded.
func (r *WebhookLogRepository) ResumeAttempt(ctx context.Context, id string, attempts int, token string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("id = ? AND status = ? AND attempts = ? AND next_retry_at IS NULL", id, domain.WebhookStatusPending, attempts).
		Updates(map[string]interface{}{
			"claim_token":     token,
			"last_attempt_at": now,
			"updated_at":      now,
		})
	return res.RowsAffected > 0, res.Error
}

// AttemptResult is what one delivery attempt left behind.
type AttemptResult struct {
	Status       string
	ResponseCode int
	ResponseBody string
	NextRetryAt  *time.Time
}

// RecordAttempt writes the outcome of the attempt claimed with token. It reports false when the
// log moved on in the meantime, for example through a manual retry.
func (r *WebhookLogRepository) RecordAttempt(ctx context.Context, id, token string, res AttemptResult, now time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("id = ? AND status = ? AND claim_token = ?", id, domain.WebhookStatusPending, token).
		Updates(map[string]interface{}{
			"status":        res.Status,
			"response_code": res.ResponseCode,
			"response_body": res.ResponseBody,
			"next_retry_at": res.NextRetryAt,
			"claim_token":   nil,
			"updated_at":    now,
		})
	return tx.RowsAffected > 0, tx.Error
}

// ResetForRetry puts a log of the merchant back to a fresh pending state.
func (r *WebhookLogRepository) ResetForRetry(ctx context.Context, id, merchantID string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		Updates(map[string]interface{}{
			"status":        domain.WebhookStatusPending,
			"attempts":      0,
			"claim_token":   nil,
			"next_retry_at": now,
			"updated_at":    now,
		})
	return res.RowsAffected > 0, res.Error
}
