// Package worker holds the queue consumers that settle payments and refunds and deliver
// webhooks. Every handler re-reads state and moves it with conditional updates, so a task that
// is delivered twice has no second effect.
package worker

import (
	"context"
	"time"

	"payflow/config"
	"payflow/internal/domain"
	"payflow/internal/queue"
	"payflow/internal/repository"
	"payflow/internal/service"
	"payflow/pkg/payment"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Set bundles the three workers so processes can register them together.
type Set struct {
	Payment *PaymentWorker
	Refund  *RefundWorker
	Webhook *WebhookWorker
}

// NewSet builds the production workers: simulated settlement and HTTP webhook delivery.
func NewSet(cfg *config.Config, db *gorm.DB, q *queue.Queue, log logrus.FieldLogger) *Set {
	webhooks := service.NewWebhookService(db, q, repository.NewWebhookLogRepository(db), log)
	return &Set{
		Payment: NewPaymentWorker(db, q, webhooks, payment.NewSimulatedProvider(cfg.Settlement), log),
		Refund:  NewRefundWorker(q, repository.NewRefundRepository(db), cfg.Settlement.RefundDelay, log),
		Webhook: NewWebhookWorker(db, q, cfg.Webhook, log),
	}
}

// Register binds each worker to its topic on r.
func (s *Set) Register(r *queue.Runner) {
	r.Handle(domain.TopicPayment, s.Payment.Handle)
	r.Handle(domain.TopicRefund, s.Refund.Handle)
	r.Handle(domain.TopicWebhook, s.Webhook.Handle)
}
