package worker

import (
	"context"
	"encoding/json"
	"testing"

	"payflow/internal/domain"
	"payflow/internal/models"
	"payflow/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentWorkerSettlesSuccess(t *testing.T) {
	f := newFixture(t, "http://merchant.test/webhook")
	p := f.createPayment(t, 50000)

	require.True(t, f.process(t, domain.TopicPayment))

	var got models.Payment
	require.NoError(t, f.db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	assert.True(t, got.Captured)
	assert.Nil(t, got.ErrorCode)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", p.OrderID).Error)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)

	logs := f.webhookLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.EventPaymentSuccess, logs[0].Event)
	assert.Equal(t, domain.WebhookStatusPending, logs[0].Status)
	assert.Equal(t, 0, logs[0].Attempts)

	var event struct {
		Event     string `json:"event"`
		Timestamp int64  `json:"timestamp"`
		Data      struct {
			Payment models.Payment `json:"payment"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(logs[0].Payload, &event))
	assert.Equal(t, domain.EventPaymentSuccess, event.Event)
	assert.Equal(t, f.clock.Now().Unix(), event.Timestamp)
	assert.Equal(t, p.ID, event.Data.Payment.ID)
	assert.Equal(t, domain.PaymentStatusSuccess, event.Data.Payment.Status)

	assert.Equal(t, queue.Counts{Waiting: 1}, f.counts(t, domain.TopicWebhook))
	assert.Equal(t, int64(1), f.counts(t, domain.TopicPayment).Completed)
}

func TestPaymentWorkerSettlesFailure(t *testing.T) {
	f := newFixture(t, "http://merchant.test/webhook")
	f.provider.Succeed = false
	p := f.createPayment(t, 1000)

	require.True(t, f.process(t, domain.TopicPayment))

	var got models.Payment
	require.NoError(t, f.db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, domain.PaymentStatusFailed, got.Status)
	assert.False(t, got.Captured)
	require.NotNil(t, got.ErrorCode)
	assert.Equal(t, "PAYMENT_FAILED", *got.ErrorCode)
	require.NotNil(t, got.ErrorDescription)
	assert.Equal(t, "Processing failed", *got.ErrorDescription)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", p.OrderID).Error)
	assert.Equal(t, domain.OrderStatusCreated, order.Status)

	logs := f.webhookLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.EventPaymentFailed, logs[0].Event)
}

func TestPaymentWorkerRedeliveryIsNoop(t *testing.T) {
	f := newFixture(t, "http://merchant.test/webhook")
	p := f.createPayment(t, 1000)
	require.True(t, f.process(t, domain.TopicPayment))

	// A second copy of the same task, as a crash-redelivery would produce.
	_, err := f.q.Enqueue(context.Background(), domain.TopicPayment, domain.PaymentTask{PaymentID: p.ID})
	require.NoError(t, err)
	f.provider.Succeed = false
	require.True(t, f.process(t, domain.TopicPayment))

	var got models.Payment
	require.NoError(t, f.db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	assert.Len(t, f.webhookLogs(t), 1)
	assert.Equal(t, int64(2), f.counts(t, domain.TopicPayment).Completed)
}

func TestPaymentWorkerDropsMissingPayment(t *testing.T) {
	f := newFixture(t, "http://merchant.test/webhook")
	_, err := f.q.Enqueue(context.Background(), domain.TopicPayment, domain.PaymentTask{PaymentID: "pay_doesnotexist00"})
	require.NoError(t, err)

	require.True(t, f.process(t, domain.TopicPayment))
	c := f.counts(t, domain.TopicPayment)
	assert.Equal(t, int64(1), c.Completed)
	assert.Equal(t, int64(0), c.Waiting+c.Delayed+c.Failed)
	assert.Empty(t, f.webhookLogs(t))
}

func TestPaymentWorkerSkipsWebhookWithoutURL(t *testing.T) {
	f := newFixture(t, "")
	p := f.createPayment(t, 1000)
	require.True(t, f.process(t, domain.TopicPayment))

	var got models.Payment
	require.NoError(t, f.db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	assert.Empty(t, f.webhookLogs(t))
	assert.Equal(t, queue.Counts{}, f.counts(t, domain.TopicWebhook))
}
