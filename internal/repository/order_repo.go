package repository

import (
	"context"

	"payflow/internal/domain"
	"payflow/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *OrderRepository) GetByIDForMerchant(ctx context.Context, id, merchantID string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).Take(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// ListSummaries returns the merchant's orders, newest first, each with the id of its successful
// payment and the total refunded against it.
func (r *OrderRepository) ListSummaries(ctx context.Context, merchantID string, limit, offset int) ([]models.OrderSummary, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.OrderSummary, 0, len(orders))
	if len(orders) == 0 {
		return out, nil
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	var payments []models.Payment
	err = r.db.WithContext(ctx).
		Where("order_id IN ? AND status = ?", ids, domain.PaymentStatusSuccess).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	paymentByOrder := make(map[string]string, len(payments))
	paymentIDs := make([]string, 0, len(payments))
	for _, p := range payments {
		paymentByOrder[p.OrderID] = p.ID
		paymentIDs = append(paymentIDs, p.ID)
	}

	refunded := make(map[string]int64)
	if len(paymentIDs) > 0 {
		var sums []struct {
			PaymentID string
			Total     int64
		}
		err = r.db.WithContext(ctx).Model(&models.Refund{}).
			Select("payment_id, COALESCE(SUM(amount), 0) AS total").
			Where("payment_id IN ?", paymentIDs).
			Group("payment_id").
			Scan(&sums).Error
		if err != nil {
			return nil, err
		}
		for _, s := range sums {
			refunded[s.PaymentID] = s.Total
		}
	}

	for _, o := range orders {
		s := models.OrderSummary{Order: o}
		if pid, ok := paymentByOrder[o.ID]; ok {
			id := pid
			s.PaymentID = &id
			s.RefundedAmount = refunded[pid]
		}
		out = append(out, s)
	}
	return out, nil
}

// MarkPaid moves the order from created to paid. It reports whether this call made the change.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, domain.OrderStatusCreated).
		Update("status", domain.OrderStatusPaid)
	return res.RowsAffected > 0, res.Error
}
