package models

import "time"

type Merchant struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	APIKey        string    `gorm:"size:64;uniqueIndex;not null" json:"api_key"`
	APISecretHash string    `gorm:"size:255;not null" json:"-"`
	WebhookURL    *string   `gorm:"size:512" json:"webhook_url"`
	WebhookSecret string    `gorm:"size:128;not null" json:"-"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Merchant) TableName() string {
	return "merchants"
}

// HasWebhook reports whether the merchant registered an endpoint for event delivery.
func (m *Merchant) HasWebhook() bool {
	return m.WebhookURL != nil && *m.WebhookURL != ""
}
