// Package idempotency replays the first response stored under a merchant's Idempotency-Key.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payflow/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTTL is how long a stored response is replayed.
const DefaultTTL = 24 * time.Hour

type StoredResponse struct {
	Status int
	Body   []byte
}

type Guard struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGuard(db *gorm.DB, now func() time.Time) *Guard {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Guard{db: db, now: now}
}

// Check returns the stored response for key, or nil when there is none. An expired record is
// deleted and treated as absent.
func (g *Guard) Check(ctx context.Context, merchantID, key string) (*StoredResponse, error) {
	var rec models.IdempotencyKey
	err := g.db.WithContext(ctx).
		Where("`key` = ? AND merchant_id = ?", key, merchantID).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}
	if !g.now().Before(rec.ExpiresAt) {
		err := g.db.WithContext(ctx).
			Where("`key` = ? AND merchant_id = ? AND expires_at <= ?", key, merchantID, g.now()).
			Delete(&models.IdempotencyKey{}).Error
		if err != nil {
			return nil, fmt.Errorf("purge expired idempotency key: %w", err)
		}
		return nil, nil
	}
	return &StoredResponse{Status: rec.ResponseStatus, Body: rec.ResponseBody}, nil
}

// Store records resp under key. When two requests race, the first stored response wins.
func (g *Guard) Store(ctx context.Context, merchantID, key string, resp StoredResponse, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := g.now()
	rec := models.IdempotencyKey{
		Key:            key,
		MerchantID:     merchantID,
		ResponseStatus: resp.Status,
		ResponseBody:   datatypes.JSON(resp.Body),
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
	}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store idempotency key: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired record.
func (g *Guard) PurgeExpired(ctx context.Context) (int64, error) {
	res := g.db.WithContext(ctx).Where("expires_at <= ?", g.now()).Delete(&models.IdempotencyKey{})
	return res.RowsAffected, res.Error
}
