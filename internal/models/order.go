package models

import (
	"time"

	"gorm.io/datatypes"
)

type Order struct {
	ID         string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	MerchantID string         `gorm:"type:varchar(36);not null;index" json:"merchant_id"`
	Amount     int64          `gorm:"not null" json:"amount"` // minor units
	Currency   string         `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Receipt    *string        `gorm:"size:255" json:"receipt"`
	Notes      datatypes.JSON `json:"notes"`
	Status     string         `gorm:"size:20;not null;index" json:"status"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderSummary is an order row joined with its successful payment and refunded total.
type OrderSummary struct {
	Order
	PaymentID      *string `json:"payment_id"`
	RefundedAmount int64   `json:"refunded_amount"`
}
