package worker

import (
	"context"
	"errors"
	"fmt"

	"payflow/internal/domain"
	"payflow/internal/queue"
	"payflow/internal/repository"
	"payflow/internal/service"
	"payflow/pkg/payment"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PaymentWorker struct {
	db        *gorm.DB
	q         *queue.Queue
	payments  *repository.PaymentRepository
	orders    *repository.OrderRepository
	merchants *repository.MerchantRepository
	webhooks  *service.WebhookService
	provider  payment.Provider
	log       logrus.FieldLogger
	sleep     Sleeper
}

func NewPaymentWorker(db *gorm.DB, q *queue.Queue, webhooks *service.WebhookService, provider payment.Provider, log logrus.FieldLogger) *PaymentWorker {
	return &PaymentWorker{
		db:        db,
		q:         q,
		payments:  repository.NewPaymentRepository(db),
		orders:    repository.NewOrderRepository(db),
		merchants: repository.NewMerchantRepository(db),
		webhooks:  webhooks,
		provider:  provider,
		log:       log.WithField("worker", domain.TopicPayment),
		sleep:     sleepCtx,
	}
}

// WithSleeper replaces the processing-delay wait.
func (w *PaymentWorker) WithSleeper(s Sleeper) *PaymentWorker {
	w.sleep = s
	return w
}

func (w *PaymentWorker) Handle(ctx context.Context, job *queue.Job) error {
	var task domain.PaymentTask
	if err := job.Decode(&task); err != nil {
		w.log.WithField("job_id", job.ID).WithError(err).Error("malformed payment task, dropping")
		return nil
	}
	entry := w.log.WithFields(logrus.Fields{"payment_id": task.PaymentID, "job_id": job.ID})

	p, err := w.payments.GetByID(ctx, task.PaymentID)
	if errors.Is(err, repository.ErrNotFound) {
		entry.Warn("payment not found, dropping task")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payment %s: %w", task.PaymentID, err)
	}
	if p.Status != domain.PaymentStatusPending {
		entry.WithField("status", p.Status).Info("payment already settled")
		return nil
	}

	if err := w.sleep(ctx, w.provider.ProcessingDelay()); err != nil {
		return err
	}
	outcome, err := w.provider.Settle(ctx, payment.SettlementRequest{
		PaymentID: p.ID,
		Method:    p.Method,
		Amount:    p.Amount,
		Currency:  p.Currency,
	})
	if err != nil {
		return fmt.Errorf("settle payment %s: %w", p.ID, err)
	}

	settled := false
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := w.payments.WithTx(tx)
		ok, err := payments.Settle(ctx, p.ID, repository.Settlement{
			Success:          outcome.Success,
			ErrorCode:        outcome.ErrorCode,
			ErrorDescription: outcome.ErrorDescription,
		}, w.q.Now())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		settled = true
		event := domain.EventPaymentFailed
		if outcome.Success {
			event = domain.EventPaymentSuccess
			if _, err := w.orders.WithTx(tx).MarkPaid(ctx, p.OrderID); err != nil {
				return err
			}
		}
		snapshot, err := payments.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		merchant, err := w.merchants.WithTx(tx).GetByID(ctx, p.MerchantID)
		if err != nil {
			return fmt.Errorf("load merchant %s: %w", p.MerchantID, err)
		}
		_, err = w.webhooks.Emit(ctx, tx, merchant, event, map[string]interface{}{"payment": snapshot})
		return err
	})
	if err != nil {
		return fmt.Errorf("apply settlement of %s: %w", p.ID, err)
	}
	if !settled {
		entry.Info("payment settled by another delivery")
		return nil
	}
	entry.WithField("success", outcome.Success).Info("payment settled")
	return nil
}
