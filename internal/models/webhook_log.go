package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookLog is the delivery history of one event to one merchant.
type WebhookLog struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	MerchantID    string         `gorm:"type:varchar(36);not null;index" json:"merchant_id"`
	Event         string         `gorm:"size:64;not null" json:"event"`
	Payload       datatypes.JSON `gorm:"type:text;not null" json:"payload"` // exact bytes that get signed
	Status        string         `gorm:"size:20;not null;index" json:"status"`
	Attempts      int            `gorm:"not null;default:0" json:"attempts"`
	LastAttemptAt *time.Time     `json:"last_attempt_at"`
	NextRetryAt   *time.Time     `json:"next_retry_at"`
	ResponseCode  *int           `json:"response_code"`
	ResponseBody  *string        `gorm:"type:text" json:"response_body"`
	ClaimToken    *string        `gorm:"size:36" json:"-"` // identifies the attempt in flight
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}
