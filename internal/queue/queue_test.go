package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"payflow/config"
	"payflow/internal/logger"
	"payflow/internal/queue"
	"payflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQueue(t *testing.T) (*queue.Queue, *gorm.DB, *testutil.Clock) {
	db := testutil.OpenDB(t)
	clock := testutil.NewClock()
	q := queue.New(db, logger.Discard(), config.QueueConfig{
		PollInterval: 10 * time.Millisecond,
		MaxAttempts:  3,
		RetryDelay:   5 * time.Second,
	}, queue.WithClock(clock.Now))
	return q, db, clock
}

func TestEnqueueAndClaim(t *testing.T) {
	q, _, _ := newQueue(t)
	ctx := context.Background()

	job, err := q.Enqueue(ctx, "payment", map[string]string{"payment_id": "pay_1"})
	require.NoError(t, err)
	assert.Equal(t, queue.StatusWaiting, job.Status)

	claimed, err := q.Claim(ctx, "payment", "w1")
	require.NoError(t, err)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, queue.StatusActive, claimed.Status)
	assert.Equal(t, 1, claimed.Attempts)

	var payload struct {
		PaymentID string `json:"payment_id"`
	}
	require.NoError(t, claimed.Decode(&payload))
	assert.Equal(t, "pay_1", payload.PaymentID)

	_, err = q.Claim(ctx, "payment", "w2")
	assert.ErrorIs(t, err, queue.ErrEmpty)
}

func TestClaimIsScopedToTopic(t *testing.T) {
	q, _, _ := newQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "refund", map[string]string{"refund_id": "rfnd_1"})
	require.NoError(t, err)

	_, err = q.Claim(ctx, "payment", "w1")
	assert.ErrorIs(t, err, queue.ErrEmpty)

	job, err := q.Claim(ctx, "refund", "w1")
	require.NoError(t, err)
	assert.Equal(t, "refund", job.Topic)
}

func TestDelayedJobBecomesVisible(t *testing.T) {
	q, _, clock := newQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "webhook", map[string]int{"attempt": 1}, queue.WithDelay(time.Minute))
	require.NoError(t, err)

	_, err = q.Claim(ctx, "webhook", "w1")
	assert.ErrorIs(t, err, queue.ErrEmpty)

	counts, err := q.Counts(ctx, "webhook")
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Waiting)
	assert.Equal(t, int64(1), counts.Delayed)

	clock.Advance(time.Minute)
	job, err := q.Claim(ctx, "webhook", "w1")
	require.NoError(t, err)
	assert.Equal(t, "webhook", job.Topic)
}

func TestClaimOrdersByRunAt(t *testing.T) {
	q, _, clock := newQueue(t)
	ctx := context.Background()

	late, err := q.Enqueue(ctx, "payment", map[string]string{"payment_id": "late"}, queue.WithDelay(2*time.Second))
	require.NoError(t, err)
	early, err := q.Enqueue(ctx, "payment", map[string]string{"payment_id": "early"})
	require.NoError(t, err)
	clock.Advance(3 * time.Second)

	first, err := q.Claim(ctx, "payment", "w1")
	require.NoError(t, err)
	second, err := q.Claim(ctx, "payment", "w1")
	require.NoError(t, err)
	assert.Equal(t, early.ID, first.ID)
	assert.Equal(t, late.ID, second.ID)
}

func TestCompleteAndCounts(t *testing.T) {
	q, _, _ := newQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "payment", map[string]string{"payment_id": "a"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "payment", map[string]string{"payment_id": "b"})
	require.NoError(t, err)

	job, err := q.Claim(ctx, "payment", "w1")
	require.NoError(t, err)

	counts, err := q.Counts(ctx, "payment")
	require.NoError(t, err)
	assert.Equal(t, queue.Counts{Waiting: 1, Active: 1}, counts)

	require.NoError(t, q.Complete(ctx, job))
	counts, err = q.Counts(ctx, "payment")
	require.NoError(t, err)
	assert.Equal(t, queue.Counts{Waiting: 1, Completed: 1}, counts)
}

func TestFailRetriesThenParks(t *testing.T) {
	q, _, clock := newQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "payment", map[string]string{"payment_id": "a"})
	require.NoError(t, err)

	for attempt := 1; attempt <= 3; attempt++ {
		job, err := q.Claim(ctx, "payment", "w1")
		require.NoError(t, err, "attempt %d", attempt)
		assert.Equal(t, attempt, job.Attempts)
		require.NoError(t, q.Fail(ctx, job, errors.New("db unavailable")))

		if attempt < 3 {
			assert.Equal(t, queue.StatusWaiting, job.Status)
			_, err = q.Claim(ctx, "payment", "w1")
			assert.ErrorIs(t, err, queue.ErrEmpty, "retry must wait for its delay")
			clock.Advance(time.Duration(attempt) * 5 * time.Second)
		} else {
			assert.Equal(t, queue.StatusFailed, job.Status)
		}
	}

	counts, err := q.Counts(ctx, "payment")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Failed)
	assert.Equal(t, int64(0), counts.Waiting+counts.Delayed)

	failed, err := q.List(ctx, "payment", queue.StatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "db unavailable", *failed[0].LastError)

	require.NoError(t, q.Retry(ctx, failed[0].ID))
	job, err := q.Claim(ctx, "payment", "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, job.Attempts)
}

func TestReclaimStale(t *testing.T) {
	q, _, clock := newQueue(t)
	ctx := context.Background()

	enq, err := q.Enqueue(ctx, "refund", map[string]string{"refund_id": "r"})
	require.NoError(t, err)
	_, err = q.Claim(ctx, "refund", "crashed-worker")
	require.NoError(t, err)

	n, err := q.ReclaimStale(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	clock.Advance(2 * time.Minute)
	n, err = q.ReclaimStale(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	job, err := q.Claim(ctx, "refund", "w2")
	require.NoError(t, err)
	assert.Equal(t, enq.ID, job.ID)
	assert.Equal(t, 2, job.Attempts)
}

func TestEnqueueWithTxRollsBack(t *testing.T) {
	q, db, _ := newQueue(t)
	ctx := context.Background()

	sentinel := errors.New("state change rejected")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := q.Enqueue(ctx, "payment", map[string]string{"payment_id": "x"}, queue.WithTx(tx)); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	counts, err := q.Counts(ctx, "payment")
	require.NoError(t, err)
	assert.Equal(t, queue.Counts{}, counts)
}

func TestReleaseKeepsAttemptBudget(t *testing.T) {
	q, _, _ := newQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "payment", map[string]string{"payment_id": "a"})
	require.NoError(t, err)
	job, err := q.Claim(ctx, "payment", "w1")
	require.NoError(t, err)
	require.NoError(t, q.Release(ctx, job))

	again, err := q.Claim(ctx, "payment", "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Attempts)
}

func TestReclaimedJobBelongsToNewOwner(t *testing.T) {
	q, _, clock := newQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "payment", map[string]string{"payment_id": "slow"})
	require.NoError(t, err)
	slow, err := q.Claim(ctx, "payment", "slow-worker")
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)
	n, err := q.ReclaimStale(ctx, 2*time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	fresh, err := q.Claim(ctx, "payment", "fresh-worker")
	require.NoError(t, err)
	require.Equal(t, slow.ID, fresh.ID)

	assert.ErrorIs(t, q.Complete(ctx, slow), queue.ErrLostClaim)
	assert.ErrorIs(t, q.Fail(ctx, slow, errors.New("late")), queue.ErrLostClaim)
	assert.ErrorIs(t, q.Release(ctx, slow), queue.ErrLostClaim)

	require.NoError(t, q.Fail(ctx, fresh, errors.New("db blip")))
	job, err := q.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusWaiting, job.Status)
	assert.Equal(t, 2, job.Attempts)
	require.NotNil(t, job.LastError)
	assert.Equal(t, "db blip", *job.LastError)
}
