package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, 5, cfg.Webhook.MaxAttempts)
	assert.Equal(t, 0.95, cfg.Settlement.UPISuccessRate)
	assert.Equal(t, 0.90, cfg.Settlement.CardSuccessRate)
	assert.Equal(t, time.Second, cfg.Settlement.ProcessingDelay)
	assert.False(t, cfg.Settlement.TestMode)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TEST_MODE", "true")
	t.Setenv("TEST_PROCESSING_DELAY", "250")
	t.Setenv("TEST_PAYMENT_SUCCESS", "false")
	t.Setenv("WEBHOOK_RETRY_INTERVALS_TEST", "true")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Settlement.TestMode)
	assert.Equal(t, 250*time.Millisecond, cfg.Settlement.ProcessingDelay)
	assert.Equal(t, "false", cfg.Settlement.ForcedOutcome)
	assert.True(t, cfg.Webhook.TestIntervals)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}
