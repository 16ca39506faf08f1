package auth

import (
	"testing"
	"time"

	"payflow/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: time.Hour, Issuer: "payflow"}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, "m-1", "test@example.com")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "m-1", claims.MerchantID)
	assert.Equal(t, "test@example.com", claims.Email)
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, "m-1", "test@example.com")
	require.NoError(t, err)

	other := testJWTConfig()
	other.AccessSecret = "another-secret"
	_, err = ParseAccessToken(other, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := testJWTConfig()
	expired.AccessExpiry = -time.Minute
	token, err = GenerateAccessToken(expired, "m-1", "test@example.com")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(cfg, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
