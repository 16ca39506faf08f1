package worker

import (
	"context"
	"testing"
	"time"

	"payflow/config"
	"payflow/internal/domain"
	"payflow/internal/logger"
	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repository"
	"payflow/internal/service"
	"payflow/internal/testutil"
	"payflow/pkg/payment"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	clock    *testutil.Clock
	q        *queue.Queue
	runner   *queue.Runner
	merchant *models.Merchant
	orders   *service.OrderService
	payments *service.PaymentService
	refunds  *service.RefundService
	webhooks *service.WebhookService
	provider *payment.StubProvider
}

func newFixture(t *testing.T, webhookURL string) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	clock := testutil.NewClock()
	log := logger.Discard()
	q := queue.New(db, log, config.QueueConfig{MaxAttempts: 3, RetryDelay: time.Second}, queue.WithClock(clock.Now))

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	webhooks := service.NewWebhookService(db, q, repository.NewWebhookLogRepository(db), log)

	provider := &payment.StubProvider{Succeed: true}
	noWait := func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	set := &Set{
		Payment: NewPaymentWorker(db, q, webhooks, provider, log).WithSleeper(noWait),
		Refund:  NewRefundWorker(q, refundRepo, 2*time.Second, log).WithSleeper(noWait),
		Webhook: NewWebhookWorker(db, q, config.WebhookConfig{Timeout: 2 * time.Second, MaxAttempts: 5}, log),
	}
	runner := queue.NewRunner(q, log, 1, 0)
	set.Register(runner)

	return &fixture{
		db:       db,
		clock:    clock,
		q:        q,
		runner:   runner,
		merchant: testutil.SeedMerchant(t, db, webhookURL),
		orders:   service.NewOrderService(orderRepo),
		payments: service.NewPaymentService(db, q, orderRepo, paymentRepo, log),
		refunds:  service.NewRefundService(db, q, paymentRepo, refundRepo, log),
		webhooks: webhooks,
		provider: provider,
	}
}

// createPayment makes an order and a pending UPI payment for it.
func (f *fixture) createPayment(t *testing.T, amount int64) *models.Payment {
	t.Helper()
	ctx := context.Background()
	o, err := f.orders.Create(ctx, f.merchant.ID, service.CreateOrderInput{Amount: amount})
	require.NoError(t, err)
	p, err := f.payments.Create(ctx, f.merchant.ID, service.CreatePaymentInput{OrderID: o.ID, Method: domain.MethodUPI, VPA: "user@paytm"})
	require.NoError(t, err)
	return p
}

func (f *fixture) process(t *testing.T, topic string) bool {
	t.Helper()
	ok, err := f.runner.ProcessNext(context.Background(), topic)
	require.NoError(t, err)
	return ok
}

func (f *fixture) counts(t *testing.T, topic string) queue.Counts {
	t.Helper()
	c, err := f.q.Counts(context.Background(), topic)
	require.NoError(t, err)
	return c
}

func (f *fixture) webhookLogs(t *testing.T) []models.WebhookLog {
	t.Helper()
	var logs []models.WebhookLog
	require.NoError(t, f.db.Order("created_at").Find(&logs).Error)
	return logs
}
