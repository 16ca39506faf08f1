package models

import (
	"time"

	"payflow/internal/domain"
)

type Payment struct {
	ID               string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	OrderID          string    `gorm:"type:varchar(64);not null;index" json:"order_id"`
	MerchantID       string    `gorm:"type:varchar(36);not null;index" json:"merchant_id"`
	Amount           int64     `gorm:"not null" json:"amount"`
	Currency         string    `gorm:"size:3;not null" json:"currency"`
	Method           string    `gorm:"size:10;not null" json:"method"` // upi | card
	Status           string    `gorm:"size:20;not null;index" json:"status"`
	Captured         bool      `gorm:"not null;default:false" json:"captured"`
	VPA              *string   `gorm:"size:255" json:"vpa"`
	CardNetwork      *string   `gorm:"size:20" json:"card_network"`
	CardLast4        *string   `gorm:"size:4" json:"card_last4"`
	ErrorCode        *string   `gorm:"size:64" json:"error_code"`
	ErrorDescription *string   `gorm:"size:255" json:"error_description"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) IsSettled() bool {
	return p.Status != domain.PaymentStatusPending
}
