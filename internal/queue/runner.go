package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HandlerFunc processes one job. A nil return completes the job; an error hands it to Fail.
type HandlerFunc func(ctx context.Context, job *Job) error

// Runner runs a fixed pool of consumers per registered topic.
type Runner struct {
	q           *Queue
	log         logrus.FieldLogger
	concurrency int
	visibility  time.Duration
	handlers    map[string]HandlerFunc
	id          string
}

func NewRunner(q *Queue, log logrus.FieldLogger, concurrency int, visibility time.Duration) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		q:           q,
		log:         log.WithField("component", "runner"),
		concurrency: concurrency,
		visibility:  visibility,
		handlers:    make(map[string]HandlerFunc),
		id:          uuid.NewString()[:8],
	}
}

func (r *Runner) Handle(topic string, h HandlerFunc) {
	r.handlers[topic] = h
}

func (r *Runner) Topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		topics = append(topics, t)
	}
	return topics
}

// Run blocks until ctx is cancelled and every consumer has returned.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.handlers) == 0 {
		return errors.New("runner: no handlers registered")
	}
	var wg sync.WaitGroup
	for topic, h := range r.handlers {
		for i := 0; i < r.concurrency; i++ {
			workerID := fmt.Sprintf("%s-%s-%d", r.id, topic, i)
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.consume(ctx, topic, workerID, h)
			}()
		}
	}
	if r.visibility > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.reclaim(ctx)
		}()
	}
	r.log.WithFields(logrus.Fields{"topics": r.Topics(), "concurrency": r.concurrency}).Info("workers started")
	wg.Wait()
	r.log.Info("workers stopped")
	return nil
}

// ProcessNext claims one job of topic and runs its handler synchronously. It reports false when
// nothing was available.
func (r *Runner) ProcessNext(ctx context.Context, topic string) (bool, error) {
	h, ok := r.handlers[topic]
	if !ok {
		return false, fmt.Errorf("runner: no handler for topic %q", topic)
	}
	job, err := r.q.Claim(ctx, topic, fmt.Sprintf("%s-sync-%s", r.id, uuid.NewString()[:8]))
	if errors.Is(err, ErrEmpty) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, r.dispatch(ctx, job, h)
}

func (r *Runner) consume(ctx context.Context, topic, workerID string, h HandlerFunc) {
	for {
		job, err := r.q.Consume(ctx, topic, workerID)
		if err != nil {
			return
		}
		if err := r.dispatch(ctx, job, h); err != nil {
			r.log.WithFields(logrus.Fields{"topic": topic, "job_id": job.ID}).WithError(err).Error("job bookkeeping failed")
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, job *Job, h HandlerFunc) error {
	entry := r.log.WithFields(logrus.Fields{"topic": job.Topic, "job_id": job.ID, "attempt": job.Attempts})
	herr := safeCall(ctx, job, h)
	// Bookkeeping must land even when shutdown cancelled the handler.
	bg := context.WithoutCancel(ctx)
	var err error
	switch {
	case herr != nil && ctx.Err() != nil:
		entry.Info("shutdown during job, releasing")
		err = r.q.Release(bg, job)
	case herr != nil:
		entry.WithError(herr).Warn("job failed")
		err = r.q.Fail(bg, job, herr)
	default:
		err = r.q.Complete(bg, job)
	}
	if errors.Is(err, ErrLostClaim) {
		entry.Warn("job was reclaimed while running, result left to the new owner")
		return nil
	}
	return err
}

func safeCall(ctx context.Context, job *Job, h HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return h(ctx, job)
}

func (r *Runner) reclaim(ctx context.Context) {
	interval := r.visibility / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.q.ReclaimStale(ctx, r.visibility)
			if err != nil {
				if ctx.Err() == nil {
					r.log.WithError(err).Error("reclaim stale jobs")
				}
				continue
			}
			if n > 0 {
				r.log.WithField("count", n).Warn("reclaimed stale jobs")
			}
		}
	}
}
