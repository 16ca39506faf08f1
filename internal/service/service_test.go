package service

import (
	"context"
	"testing"
	"time"

	"payflow/config"
	"payflow/internal/apperr"
	"payflow/internal/domain"
	"payflow/internal/logger"
	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repository"
	"payflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type services struct {
	db       *gorm.DB
	q        *queue.Queue
	merchant *models.Merchant
	orders   *OrderService
	payments *PaymentService
	refunds  *RefundService
}

func newServices(t *testing.T) *services {
	db := testutil.OpenDB(t)
	clock := testutil.NewClock()
	log := logger.Discard()
	q := queue.New(db, log, config.QueueConfig{MaxAttempts: 3}, queue.WithClock(clock.Now))
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	return &services{
		db:       db,
		q:        q,
		merchant: testutil.SeedMerchant(t, db, ""),
		orders:   NewOrderService(orderRepo),
		payments: NewPaymentService(db, q, orderRepo, paymentRepo, log),
		refunds:  NewRefundService(db, q, paymentRepo, repository.NewRefundRepository(db), log),
	}
}

// settledPayment creates a payment and marks it successful directly in the store.
func (s *services) settledPayment(t *testing.T, amount int64) *models.Payment {
	ctx := context.Background()
	o, err := s.orders.Create(ctx, s.merchant.ID, CreateOrderInput{Amount: amount})
	require.NoError(t, err)
	p, err := s.payments.Create(ctx, s.merchant.ID, CreatePaymentInput{OrderID: o.ID, Method: domain.MethodUPI, VPA: "user@okaxis"})
	require.NoError(t, err)
	ok, err := repository.NewPaymentRepository(s.db).Settle(ctx, p.ID, repository.Settlement{Success: true}, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)
	return p
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	ae, ok := apperr.As(err)
	require.True(t, ok, "expected an API error, got %v", err)
	assert.Equal(t, code, ae.Code)
}

func TestOrderCreateValidation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	_, err := s.orders.Create(ctx, s.merchant.ID, CreateOrderInput{Amount: 99})
	assertCode(t, err, domain.CodeBadRequest)

	o, err := s.orders.Create(ctx, s.merchant.ID, CreateOrderInput{Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, "INR", o.Currency)
	assert.Equal(t, domain.OrderStatusCreated, o.Status)
	assert.Regexp(t, `^order_[a-z0-9]{16}$`, o.ID)

	_, err = s.orders.Get(ctx, "another-merchant", o.ID)
	assertCode(t, err, domain.CodeNotFound)
}

func TestPaymentCreateEnqueuesTask(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	o, err := s.orders.Create(ctx, s.merchant.ID, CreateOrderInput{Amount: 50000})
	require.NoError(t, err)

	p, err := s.payments.Create(ctx, s.merchant.ID, CreatePaymentInput{OrderID: o.ID, Method: domain.MethodUPI, VPA: "user@paytm"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, int64(50000), p.Amount)
	assert.Regexp(t, `^pay_[a-z0-9]{16}$`, p.ID)

	job, err := s.q.Claim(ctx, domain.TopicPayment, "test")
	require.NoError(t, err)
	var task domain.PaymentTask
	require.NoError(t, job.Decode(&task))
	assert.Equal(t, p.ID, task.PaymentID)
}

func TestPaymentCreateValidation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	o, err := s.orders.Create(ctx, s.merchant.ID, CreateOrderInput{Amount: 1000})
	require.NoError(t, err)

	cases := []struct {
		name string
		in   CreatePaymentInput
		code string
	}{
		{"bad vpa", CreatePaymentInput{OrderID: o.ID, Method: "upi", VPA: "nobank"}, domain.CodeInvalidVPA},
		{"luhn", CreatePaymentInput{OrderID: o.ID, Method: "card", Card: &CardInput{Number: "4111111111111112", ExpiryMonth: "12", ExpiryYear: "2030"}}, domain.CodeInvalidCard},
		{"expired", CreatePaymentInput{OrderID: o.ID, Method: "card", Card: &CardInput{Number: "4111111111111111", ExpiryMonth: "12", ExpiryYear: "25"}}, domain.CodeExpiredCard},
		{"bad month", CreatePaymentInput{OrderID: o.ID, Method: "card", Card: &CardInput{Number: "4111111111111111", ExpiryMonth: "13", ExpiryYear: "2030"}}, domain.CodeExpiredCard},
		{"no card", CreatePaymentInput{OrderID: o.ID, Method: "card"}, domain.CodeBadRequest},
		{"method", CreatePaymentInput{OrderID: o.ID, Method: "netbanking"}, domain.CodeBadRequest},
		{"order", CreatePaymentInput{OrderID: "order_missing", Method: "upi", VPA: "a@b"}, domain.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.payments.Create(ctx, s.merchant.ID, tc.in)
			assertCode(t, err, tc.code)
		})
	}

	c, err := s.q.Counts(ctx, domain.TopicPayment)
	require.NoError(t, err)
	assert.Equal(t, queue.Counts{}, c, "rejected payments never reach the queue")

	p, err := s.payments.Create(ctx, s.merchant.ID, CreatePaymentInput{
		OrderID: o.ID, Method: "card",
		Card: &CardInput{Number: "5555 5555 5555 4444", ExpiryMonth: "01", ExpiryYear: "2027"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mastercard", *p.CardNetwork)
	assert.Equal(t, "4444", *p.CardLast4)
}

func TestRefundCap(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	p := s.settledPayment(t, 1000)

	_, err := s.refunds.Create(ctx, s.merchant.ID, p.ID, 600, nil)
	require.NoError(t, err)

	_, err = s.refunds.Create(ctx, s.merchant.ID, p.ID, 500, nil)
	assert.ErrorIs(t, err, ErrRefundExceedsAvailable)

	r, err := s.refunds.Create(ctx, s.merchant.ID, p.ID, 400, nil)
	require.NoError(t, err)
	assert.Regexp(t, `^rfnd_[a-z0-9]{16}$`, r.ID)

	_, err = s.refunds.Create(ctx, s.merchant.ID, p.ID, 1, nil)
	assert.ErrorIs(t, err, ErrRefundExceedsAvailable)

	c, err := s.q.Counts(ctx, domain.TopicRefund)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Waiting)
}

func TestRefundRejectsUnsettledPayment(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	o, err := s.orders.Create(ctx, s.merchant.ID, CreateOrderInput{Amount: 1000})
	require.NoError(t, err)
	p, err := s.payments.Create(ctx, s.merchant.ID, CreatePaymentInput{OrderID: o.ID, Method: "upi", VPA: "a@b"})
	require.NoError(t, err)

	_, err = s.refunds.Create(ctx, s.merchant.ID, p.ID, 100, nil)
	assert.ErrorIs(t, err, ErrPaymentNotRefundable)

	_, err = s.refunds.Create(ctx, s.merchant.ID, "pay_missing", 100, nil)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = s.refunds.Create(ctx, s.merchant.ID, p.ID, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidRefundAmount)
}

func TestCapture(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	o, err := s.orders.Create(ctx, s.merchant.ID, CreateOrderInput{Amount: 1000})
	require.NoError(t, err)
	p, err := s.payments.Create(ctx, s.merchant.ID, CreatePaymentInput{OrderID: o.ID, Method: "upi", VPA: "a@b"})
	require.NoError(t, err)

	_, err = s.payments.Capture(ctx, s.merchant.ID, p.ID)
	assert.ErrorIs(t, err, ErrPaymentNotCapturable)

	require.NoError(t, s.db.Model(&models.Payment{}).Where("id = ?", p.ID).Update("status", domain.PaymentStatusSuccess).Error)
	got, err := s.payments.Capture(ctx, s.merchant.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Captured)

	_, err = s.payments.Capture(ctx, s.merchant.ID, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyCaptured)

	_, err = s.payments.Capture(ctx, s.merchant.ID, "pay_missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
