package database

import (
	"payflow/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Credentials of the merchant seeded for local development and tests.
const (
	TestMerchantID            = "550e8400-e29b-41d4-a716-446655440000"
	TestMerchantEmail         = "test@example.com"
	TestMerchantAPIKey        = "key_test_abc123"
	TestMerchantAPISecret     = "secret_test_xyz789"
	TestMerchantWebhookSecret = "whsec_test_abc123"
)

// SeedTestMerchant creates the test merchant if missing and returns it. An empty
// webhookURL leaves the merchant without an endpoint.
func SeedTestMerchant(db *gorm.DB, webhookURL string) (*models.Merchant, error) {
	var existing []models.Merchant
	if err := db.Where("email = ?", TestMerchantEmail).Limit(1).Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(TestMerchantAPISecret), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	m := models.Merchant{
		ID:            TestMerchantID,
		Name:          "Test Merchant",
		Email:         TestMerchantEmail,
		APIKey:        TestMerchantAPIKey,
		APISecretHash: string(hash),
		WebhookSecret: TestMerchantWebhookSecret,
		IsActive:      true,
	}
	if webhookURL != "" {
		m.WebhookURL = &webhookURL
	}
	if err := db.Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
