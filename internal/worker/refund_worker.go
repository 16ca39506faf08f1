package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payflow/internal/domain"
	"payflow/internal/queue"
	"payflow/internal/repository"

	"github.com/sirupsen/logrus"
)

type RefundWorker struct {
	q       *queue.Queue
	refunds *repository.RefundRepository
	delay   time.Duration
	log     logrus.FieldLogger
	sleep   Sleeper
}

func NewRefundWorker(q *queue.Queue, refunds *repository.RefundRepository, delay time.Duration, log logrus.FieldLogger) *RefundWorker {
	return &RefundWorker{
		q:       q,
		refunds: refunds,
		delay:   delay,
		log:     log.WithField("worker", domain.TopicRefund),
		sleep:   sleepCtx,
	}
}

func (w *RefundWorker) WithSleeper(s Sleeper) *RefundWorker {
	w.sleep = s
	return w
}

// Handle marks a pending refund processed after the simulated processing delay. No webhook is
// sent for refunds.
func (w *RefundWorker) Handle(ctx context.Context, job *queue.Job) error {
	var task domain.RefundTask
	if err := job.Decode(&task); err != nil {
		w.log.WithField("job_id", job.ID).WithError(err).Error("malformed refund task, dropping")
		return nil
	}
	entry := w.log.WithFields(logrus.Fields{"refund_id": task.RefundID, "job_id": job.ID})

	r, err := w.refunds.GetByID(ctx, task.RefundID)
	if errors.Is(err, repository.ErrNotFound) {
		entry.Warn("refund not found, dropping task")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load refund %s: %w", task.RefundID, err)
	}
	if r.Status != domain.RefundStatusPending {
		entry.WithField("status", r.Status).Info("refund already processed")
		return nil
	}
	if err := w.sleep(ctx, w.delay); err != nil {
		return err
	}
	ok, err := w.refunds.MarkProcessed(ctx, r.ID, w.q.Now())
	if err != nil {
		return fmt.Errorf("process refund %s: %w", r.ID, err)
	}
	if ok {
		entry.Info("refund processed")
	}
	return nil
}
