package models

import "time"

type Refund struct {
	ID          string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	PaymentID   string     `gorm:"type:varchar(64);not null;index" json:"payment_id"`
	MerchantID  string     `gorm:"type:varchar(36);not null;index" json:"merchant_id"`
	Amount      int64      `gorm:"not null" json:"amount"`
	Reason      *string    `gorm:"size:255" json:"reason"`
	Status      string     `gorm:"size:20;not null;index" json:"status"` // pending | processed
	ProcessedAt *time.Time `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Refund) TableName() string {
	return "refunds"
}
