package repository

import (
	"context"

	"payflow/internal/models"

	"gorm.io/gorm"
)

type MerchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

func (r *MerchantRepository) WithTx(tx *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: tx}
}

func (r *MerchantRepository) Create(ctx context.Context, m *models.Merchant) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*models.Merchant, error) {
	var m models.Merchant
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *MerchantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.Merchant, error) {
	var m models.Merchant
	err := r.db.WithContext(ctx).Where("api_key = ? AND is_active = ?", apiKey, true).Take(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *MerchantRepository) GetByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	var m models.Merchant
	err := r.db.WithContext(ctx).Where("email = ? AND is_active = ?", email, true).Take(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// SetWebhookURL changes or clears (empty url) the merchant's endpoint.
func (r *MerchantRepository) SetWebhookURL(ctx context.Context, id, url string) error {
	var value interface{}
	if url != "" {
		value = url
	}
	res := r.db.WithContext(ctx).Model(&models.Merchant{}).Where("id = ?", id).Update("webhook_url", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
