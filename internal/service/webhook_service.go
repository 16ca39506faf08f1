package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"payflow/internal/apperr"
	"payflow/internal/domain"
	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrWebhookNotFound = apperr.NotFoundErr("Webhook log not found")

type WebhookService struct {
	db      *gorm.DB
	q       *queue.Queue
	logRepo *repository.WebhookLogRepository
	log     logrus.FieldLogger
}

func NewWebhookService(db *gorm.DB, q *queue.Queue, logRepo *repository.WebhookLogRepository, log logrus.FieldLogger) *WebhookService {
	return &WebhookService{db: db, q: q, logRepo: logRepo, log: log}
}

// Emit writes a pending webhook log for event and enqueues its first delivery through tx.
// Merchants without a webhook URL get nothing and a nil log.
func (s *WebhookService) Emit(ctx context.Context, tx *gorm.DB, merchant *models.Merchant, event string, data interface{}) (*models.WebhookLog, error) {
	if !merchant.HasWebhook() {
		s.log.WithFields(logrus.Fields{"merchant_id": merchant.ID, "event": event}).Info("merchant has no webhook url, skipping")
		return nil, nil
	}
	now := s.q.Now()
	payload, err := json.Marshal(domain.Event{Event: event, Timestamp: now.Unix(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	l := &models.WebhookLog{
		ID:         uuid.NewString(),
		MerchantID: merchant.ID,
		Event:      event,
		Payload:    datatypes.JSON(payload),
		Status:     domain.WebhookStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.logRepo.WithTx(tx).Create(ctx, l); err != nil {
		return nil, err
	}
	task := domain.WebhookTask{LogID: l.ID, MerchantID: merchant.ID, Attempt: 0, Payload: payload}
	if _, err := s.q.Enqueue(ctx, domain.TopicWebhook, task, queue.WithTx(tx)); err != nil {
		return nil, err
	}
	return l, nil
}

// Retry schedules an immediate fresh delivery of a log, whatever its current state.
func (s *WebhookService) Retry(ctx context.Context, merchantID, logID string) (*models.WebhookLog, error) {
	var l *models.WebhookLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		logs := s.logRepo.WithTx(tx)
		found, err := logs.GetByIDForMerchant(ctx, logID, merchantID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWebhookNotFound
		}
		if err != nil {
			return err
		}
		now := s.q.Now()
		if _, err := logs.ResetForRetry(ctx, logID, merchantID, now); err != nil {
			return err
		}
		task := domain.WebhookTask{LogID: found.ID, MerchantID: merchantID, Attempt: 0, Payload: json.RawMessage(found.Payload)}
		if _, err := s.q.Enqueue(ctx, domain.TopicWebhook, task, queue.WithTx(tx)); err != nil {
			return err
		}
		found.Status = domain.WebhookStatusPending
		found.Attempts = 0
		found.NextRetryAt = &now
		l = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"log_id": logID, "merchant_id": merchantID}).Info("webhook retry scheduled")
	return l, nil
}

func (s *WebhookService) List(ctx context.Context, merchantID string, limit, offset int) ([]models.WebhookLog, int64, error) {
	return s.logRepo.ListByMerchant(ctx, merchantID, limit, offset)
}
