package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"payflow/config"
	"payflow/internal/domain"
	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repository"
	"payflow/pkg/webhook"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxResponseBody is how much of a merchant's reply is kept on the log.
const maxResponseBody = 1000

type WebhookWorker struct {
	db          *gorm.DB
	q           *queue.Queue
	logs        *repository.WebhookLogRepository
	merchants   *repository.MerchantRepository
	client      *http.Client
	schedule    webhook.Schedule
	maxAttempts int
	log         logrus.FieldLogger
}

func NewWebhookWorker(db *gorm.DB, q *queue.Queue, cfg config.WebhookConfig, log logrus.FieldLogger) *WebhookWorker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = webhook.MaxAttempts
	}
	return &WebhookWorker{
		db:          db,
		q:           q,
		logs:        repository.NewWebhookLogRepository(db),
		merchants:   repository.NewMerchantRepository(db),
		client:      &http.Client{Timeout: timeout},
		schedule:    webhook.NewSchedule(cfg.TestIntervals),
		maxAttempts: maxAttempts,
		log:         log.WithField("worker", domain.TopicWebhook),
	}
}

func (w *WebhookWorker) Handle(ctx context.Context, job *queue.Job) error {
	var task domain.WebhookTask
	if err := job.Decode(&task); err != nil {
		w.log.WithField("job_id", job.ID).WithError(err).Error("malformed webhook task, dropping")
		return nil
	}
	entry := w.log.WithFields(logrus.Fields{"log_id": task.LogID, "attempt": task.Attempt + 1, "job_id": job.ID})

	l, err := w.logs.GetByID(ctx, task.LogID)
	if errors.Is(err, repository.ErrNotFound) {
		entry.Warn("webhook log not found, dropping task")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load webhook log %s: %w", task.LogID, err)
	}
	merchant, err := w.merchants.GetByID(ctx, l.MerchantID)
	if errors.Is(err, repository.ErrNotFound) {
		entry.Warn("merchant not found, dropping task")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load merchant %s: %w", l.MerchantID, err)
	}

	token := uuid.NewString()
	claimed, err := w.logs.ClaimAttempt(ctx, l.ID, task.Attempt, token, w.q.Now())
	if err != nil {
		return fmt.Errorf("claim webhook attempt: %w", err)
	}
	if !claimed && interruptedAttempt(job, l, task) {
		claimed, err = w.logs.ResumeAttempt(ctx, l.ID, task.Attempt+1, token, w.q.Now())
		if err != nil {
			return fmt.Errorf("resume webhook attempt: %w", err)
		}
	}
	if !claimed {
		entry.WithFields(logrus.Fields{"status": l.Status, "attempts": l.Attempts}).Info("stale webhook task, dropping")
		return nil
	}
	attempts := task.Attempt + 1

	payload := []byte(task.Payload)
	if len(payload) == 0 {
		payload = l.Payload
	}
	code, body, derr := w.deliver(ctx, merchant, payload)

	now := w.q.Now()
	result := repository.AttemptResult{ResponseCode: code, ResponseBody: body}
	var retryDelay time.Duration
	switch {
	case derr == nil:
		result.Status = domain.WebhookStatusSuccess
	case attempts >= w.maxAttempts:
		result.Status = domain.WebhookStatusFailed
	default:
		result.Status = domain.WebhookStatusPending
		retryDelay = w.schedule.Backoff(attempts)
		next := now.Add(retryDelay)
		result.NextRetryAt = &next
	}

	// The attempt is already spent, so its outcome is written even during shutdown.
	persistCtx := context.WithoutCancel(ctx)
	recorded := false
	err = w.db.WithContext(persistCtx).Transaction(func(tx *gorm.DB) error {
		ok, err := w.logs.WithTx(tx).RecordAttempt(persistCtx, l.ID, token, result, now)
		if err != nil {
			return err
		}
		recorded = ok
		if !recorded || result.Status != domain.WebhookStatusPending {
			return nil
		}
		next := domain.WebhookTask{LogID: l.ID, MerchantID: l.MerchantID, Attempt: attempts, Payload: payload}
		_, err = w.q.Enqueue(persistCtx, domain.TopicWebhook, next, queue.WithTx(tx), queue.WithDelay(retryDelay))
		return err
	})
	if err != nil {
		return fmt.Errorf("record webhook attempt: %w", err)
	}
	if !recorded {
		entry.WithField("response_code", code).Info("webhook log was reset during the attempt, outcome discarded")
		return nil
	}

	entry = entry.WithFields(logrus.Fields{"status": result.Status, "response_code": code})
	switch result.Status {
	case domain.WebhookStatusSuccess:
		entry.Info("webhook delivered")
	case domain.WebhookStatusFailed:
		entry.WithError(derr).Warn("webhook delivery failed permanently")
	default:
		entry.WithError(derr).WithField("retry_in", retryDelay).Info("webhook delivery failed, retry scheduled")
	}
	return nil
}

// interruptedAttempt reports whether a redelivered job finds the attempt it had claimed before
// its worker died, with no outcome recorded.
func interruptedAttempt(job *queue.Job, l *models.WebhookLog, task domain.WebhookTask) bool {
	return job.Attempts > 1 &&
		l.Status == domain.WebhookStatusPending &&
		l.Attempts == task.Attempt+1 &&
		l.NextRetryAt == nil
}

// deliver POSTs the signed payload. A nil error means a 2xx reply. code is 0 when no response
// arrived.
func (w *WebhookWorker) deliver(ctx context.Context, merchant *models.Merchant, payload []byte) (int, string, error) {
	if !merchant.HasWebhook() {
		return 0, "", errors.New("merchant has no webhook url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *merchant.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(merchant.WebhookSecret, payload))

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxResponseBody))
	body := truncate(string(raw), maxResponseBody)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, body, fmt.Errorf("merchant responded %d", resp.StatusCode)
	}
	return resp.StatusCode, body, nil
}

// truncate cuts s to at most n bytes and drops byte sequences that are not UTF-8, including a
// rune split by the cut.
func truncate(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	return strings.ToValidUTF8(s, "")
}
