package service

import (
	"context"
	"errors"

	"payflow/internal/apperr"
	"payflow/internal/domain"
	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrRefundNotFound         = apperr.NotFoundErr("Refund not found")
	ErrPaymentNotRefundable   = apperr.BadRequest("Payment not in refundable state")
	ErrRefundExceedsAvailable = apperr.BadRequest("Refund amount exceeds available amount")
	ErrInvalidRefundAmount    = apperr.BadRequest("Refund amount must be positive")
)

type RefundService struct {
	db          *gorm.DB
	q           *queue.Queue
	paymentRepo *repository.PaymentRepository
	refundRepo  *repository.RefundRepository
	log         logrus.FieldLogger
}

func NewRefundService(db *gorm.DB, q *queue.Queue, paymentRepo *repository.PaymentRepository, refundRepo *repository.RefundRepository, log logrus.FieldLogger) *RefundService {
	return &RefundService{db: db, q: q, paymentRepo: paymentRepo, refundRepo: refundRepo, log: log}
}

// Create records a pending refund and its task. The payment row is locked while the refunded
// total is read, so concurrent refunds cannot together exceed the payment amount.
func (s *RefundService) Create(ctx context.Context, merchantID, paymentID string, amount int64, reason *string) (*models.Refund, error) {
	if amount <= 0 {
		return nil, ErrInvalidRefundAmount
	}
	var refund *models.Refund
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.paymentRepo.WithTx(tx).LockForMerchant(ctx, paymentID, merchantID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		if p.Status != domain.PaymentStatusSuccess {
			return ErrPaymentNotRefundable
		}
		refunds := s.refundRepo.WithTx(tx)
		refunded, err := refunds.TotalForPayment(ctx, p.ID)
		if err != nil {
			return err
		}
		if refunded+amount > p.Amount {
			return ErrRefundExceedsAvailable
		}
		refund = &models.Refund{
			ID:         newID(domain.PrefixRefund),
			PaymentID:  p.ID,
			MerchantID: merchantID,
			Amount:     amount,
			Reason:     reason,
			Status:     domain.RefundStatusPending,
		}
		if err := refunds.Create(ctx, refund); err != nil {
			return err
		}
		_, err = s.q.Enqueue(ctx, domain.TopicRefund, domain.RefundTask{RefundID: refund.ID}, queue.WithTx(tx))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"refund_id": refund.ID, "payment_id": paymentID, "amount": amount}).Info("refund created")
	return refund, nil
}

func (s *RefundService) Get(ctx context.Context, merchantID, id string) (*models.Refund, error) {
	r, err := s.refundRepo.GetByIDForMerchant(ctx, id, merchantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRefundNotFound
	}
	return r, err
}
