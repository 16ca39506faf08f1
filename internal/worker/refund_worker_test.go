package worker

import (
	"context"
	"testing"

	"payflow/internal/domain"
	"payflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefundWorkerProcesses(t *testing.T) {
	f := newFixture(t, "")
	p := f.createPayment(t, 1000)
	require.True(t, f.process(t, domain.TopicPayment))

	r, err := f.refunds.Create(context.Background(), f.merchant.ID, p.ID, 400, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusPending, r.Status)

	require.True(t, f.process(t, domain.TopicRefund))

	var got models.Refund
	require.NoError(t, f.db.First(&got, "id = ?", r.ID).Error)
	assert.Equal(t, domain.RefundStatusProcessed, got.Status)
	require.NotNil(t, got.ProcessedAt)
	assert.True(t, got.ProcessedAt.Equal(f.clock.Now()))

	// Redelivery leaves it untouched and refunds emit no webhook.
	_, err = f.q.Enqueue(context.Background(), domain.TopicRefund, domain.RefundTask{RefundID: r.ID})
	require.NoError(t, err)
	require.True(t, f.process(t, domain.TopicRefund))
	assert.Empty(t, f.webhookLogs(t))
}

func TestRefundWorkerDropsMissingRefund(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.q.Enqueue(context.Background(), domain.TopicRefund, domain.RefundTask{RefundID: "rfnd_missing"})
	require.NoError(t, err)
	require.True(t, f.process(t, domain.TopicRefund))
	assert.Equal(t, int64(1), f.counts(t, domain.TopicRefund).Completed)
}
