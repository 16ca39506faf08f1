package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"payflow/internal/apperr"
	"payflow/internal/domain"
	"payflow/internal/models"
	"payflow/internal/repository"

	"gorm.io/datatypes"
)

var ErrOrderNotFound = apperr.NotFoundErr("Order not found")

type OrderService struct {
	orderRepo *repository.OrderRepository
}

func NewOrderService(orderRepo *repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

type CreateOrderInput struct {
	Amount   int64
	Currency string
	Receipt  *string
	Notes    json.RawMessage
}

func (s *OrderService) Create(ctx context.Context, merchantID string, in CreateOrderInput) (*models.Order, error) {
	if in.Amount < domain.MinOrderAmount {
		return nil, apperr.BadRequest("amount must be at least 100")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, apperr.BadRequest("currency must be a 3 letter code")
	}
	o := &models.Order{
		ID:         newID(domain.PrefixOrder),
		MerchantID: merchantID,
		Amount:     in.Amount,
		Currency:   currency,
		Receipt:    in.Receipt,
		Status:     domain.OrderStatusCreated,
	}
	if len(in.Notes) > 0 && string(in.Notes) != "null" {
		o.Notes = datatypes.JSON(in.Notes)
	}
	if err := s.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, merchantID, id string) (*models.Order, error) {
	o, err := s.orderRepo.GetByIDForMerchant(ctx, id, merchantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// GetPublic is used by the hosted checkout page, which has no merchant credentials.
func (s *OrderService) GetPublic(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (s *OrderService) List(ctx context.Context, merchantID string, limit, offset int) ([]models.OrderSummary, error) {
	return s.orderRepo.ListSummaries(ctx, merchantID, limit, offset)
}
