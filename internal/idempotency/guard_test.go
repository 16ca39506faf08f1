package idempotency

import (
	"context"
	"testing"
	"time"

	"payflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardReplaysUntilExpiry(t *testing.T) {
	db := testutil.OpenDB(t)
	m := testutil.SeedMerchant(t, db, "")
	clock := testutil.NewClock()
	g := NewGuard(db, clock.Now)
	ctx := context.Background()

	resp, err := g.Check(ctx, m.ID, "key-1")
	require.NoError(t, err)
	assert.Nil(t, resp)

	body := []byte(`{"id":"pay_1","status":"pending"}`)
	require.NoError(t, g.Store(ctx, m.ID, "key-1", StoredResponse{Status: 201, Body: body}, 0))

	resp, err = g.Check(ctx, m.ID, "key-1")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, body, resp.Body)

	other, err := g.Check(ctx, "another-merchant", "key-1")
	require.NoError(t, err)
	assert.Nil(t, other, "keys are scoped per merchant")

	clock.Advance(DefaultTTL)
	resp, err = g.Check(ctx, m.ID, "key-1")
	require.NoError(t, err)
	assert.Nil(t, resp)

	var n int64
	require.NoError(t, db.Table("idempotency_keys").Count(&n).Error)
	assert.Equal(t, int64(0), n, "expired record is purged on read")
}

func TestGuardFirstStoreWins(t *testing.T) {
	db := testutil.OpenDB(t)
	m := testutil.SeedMerchant(t, db, "")
	g := NewGuard(db, testutil.NewClock().Now)
	ctx := context.Background()

	require.NoError(t, g.Store(ctx, m.ID, "dup", StoredResponse{Status: 201, Body: []byte(`{"id":"pay_first"}`)}, time.Hour))
	require.NoError(t, g.Store(ctx, m.ID, "dup", StoredResponse{Status: 201, Body: []byte(`{"id":"pay_second"}`)}, time.Hour))

	resp, err := g.Check(ctx, m.ID, "dup")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.JSONEq(t, `{"id":"pay_first"}`, string(resp.Body))
}

func TestGuardPurgeExpired(t *testing.T) {
	db := testutil.OpenDB(t)
	m := testutil.SeedMerchant(t, db, "")
	clock := testutil.NewClock()
	g := NewGuard(db, clock.Now)
	ctx := context.Background()

	require.NoError(t, g.Store(ctx, m.ID, "short", StoredResponse{Status: 201, Body: []byte(`{}`)}, time.Minute))
	require.NoError(t, g.Store(ctx, m.ID, "long", StoredResponse{Status: 201, Body: []byte(`{}`)}, time.Hour))
	clock.Advance(2 * time.Minute)

	n, err := g.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
