package models

import (
	"time"

	"gorm.io/datatypes"
)

type IdempotencyKey struct {
	Key            string         `gorm:"size:255;primaryKey" json:"key"`
	MerchantID     string         `gorm:"type:varchar(36);primaryKey" json:"merchant_id"`
	ResponseStatus int            `gorm:"not null" json:"response_status"`
	ResponseBody   datatypes.JSON `gorm:"type:text;not null" json:"response_body"`
	ExpiresAt      time.Time      `gorm:"not null;index" json:"expires_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}
