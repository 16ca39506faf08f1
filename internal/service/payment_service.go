package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"payflow/internal/apperr"
	"payflow/internal/domain"
	"payflow/internal/models"
	"payflow/internal/queue"
	"payflow/internal/repository"
	"payflow/pkg/paymentmethod"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound      = apperr.NotFoundErr("Payment not found")
	ErrPaymentNotCapturable = apperr.BadRequest("Payment not in capturable state")
	ErrAlreadyCaptured      = apperr.BadRequest("Payment already captured")
	ErrOrderAlreadyPaid     = apperr.BadRequest("Order already paid")
)

type PaymentService struct {
	db          *gorm.DB
	q           *queue.Queue
	orderRepo   *repository.OrderRepository
	paymentRepo *repository.PaymentRepository
	log         logrus.FieldLogger
}

func NewPaymentService(db *gorm.DB, q *queue.Queue, orderRepo *repository.OrderRepository, paymentRepo *repository.PaymentRepository, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{db: db, q: q, orderRepo: orderRepo, paymentRepo: paymentRepo, log: log}
}

type CardInput struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	HolderName  string
}

type CreatePaymentInput struct {
	OrderID string
	Method  string
	VPA     string
	Card    *CardInput
}

// Create validates the instrument, then writes the pending payment and its settlement task in
// one transaction. An empty merchantID means the hosted checkout, where the order decides.
func (s *PaymentService) Create(ctx context.Context, merchantID string, in CreatePaymentInput) (*models.Payment, error) {
	if in.OrderID == "" {
		return nil, apperr.BadRequest("order_id is required")
	}
	var (
		order *models.Order
		err   error
	)
	if merchantID == "" {
		order, err = s.orderRepo.GetByID(ctx, in.OrderID)
	} else {
		order, err = s.orderRepo.GetByIDForMerchant(ctx, in.OrderID, merchantID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderStatusPaid {
		return nil, ErrOrderAlreadyPaid
	}

	p := &models.Payment{
		ID:         newID(domain.PrefixPayment),
		OrderID:    order.ID,
		MerchantID: order.MerchantID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Method:     in.Method,
		Status:     domain.PaymentStatusPending,
	}
	if err := s.applyMethod(p, in); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		_, err := s.q.Enqueue(ctx, domain.TopicPayment, domain.PaymentTask{PaymentID: p.ID}, queue.WithTx(tx))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"payment_id": p.ID, "order_id": p.OrderID, "method": p.Method}).Info("payment created")
	return p, nil
}

func (s *PaymentService) applyMethod(p *models.Payment, in CreatePaymentInput) error {
	switch in.Method {
	case domain.MethodUPI:
		if !paymentmethod.ValidVPA(in.VPA) {
			return apperr.Validation(domain.CodeInvalidVPA, "VPA format invalid")
		}
		vpa := in.VPA
		p.VPA = &vpa
	case domain.MethodCard:
		if in.Card == nil {
			return apperr.BadRequest("card details are required")
		}
		if !paymentmethod.ValidLuhn(in.Card.Number) {
			return apperr.Validation(domain.CodeInvalidCard, "Card validation failed")
		}
		month, merr := strconv.Atoi(strings.TrimSpace(in.Card.ExpiryMonth))
		year, yerr := strconv.Atoi(strings.TrimSpace(in.Card.ExpiryYear))
		if merr != nil || yerr != nil || !paymentmethod.ValidExpiry(month, year, s.q.Now()) {
			return apperr.Validation(domain.CodeExpiredCard, "Card expiry date invalid")
		}
		network := paymentmethod.Network(in.Card.Number)
		last4 := paymentmethod.Last4(in.Card.Number)
		p.CardNetwork = &network
		p.CardLast4 = &last4
	default:
		return apperr.BadRequest("method must be upi or card")
	}
	return nil
}

func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.paymentRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// Capture marks a successful payment as captured. It fails for payments that are not
// successful or were captured already.
func (s *PaymentService) Capture(ctx context.Context, merchantID, id string) (*models.Payment, error) {
	p, err := s.paymentRepo.GetByIDForMerchant(ctx, id, merchantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentStatusSuccess {
		return nil, ErrPaymentNotCapturable
	}
	if p.Captured {
		return nil, ErrAlreadyCaptured
	}
	ok, err := s.paymentRepo.Capture(ctx, id, merchantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyCaptured
	}
	p.Captured = true
	return p, nil
}
