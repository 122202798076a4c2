package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(signalID, market string) *SignalRecord {
	now := time.Now().UTC()
	return &SignalRecord{
		Identity: SignalIdentity{
			SignalID:  signalID,
			EpochID:   "epoch-1",
			Market:    market,
			Timeframe: "1h",
		},
		Stages:        map[string]interface{}{},
		PublicSurface: EmptyPublicSurface(),
		Training:      map[string]interface{}{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestMemoryVault_UpsertAndGet(t *testing.T) {
	v := NewMemoryVault("tenant-a")
	ctx := context.Background()

	require.NoError(t, v.Upsert(ctx, testRecord("sig-1", "BTC-PERP")))

	record, err := v.Get(ctx, "sig-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "BTC-PERP", record.Identity.Market)

	missing, err := v.Get(ctx, "sig-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryVault_UpsertOverwrites(t *testing.T) {
	v := NewMemoryVault("tenant-a")
	ctx := context.Background()

	require.NoError(t, v.Upsert(ctx, testRecord("sig-1", "BTC-PERP")))
	require.NoError(t, v.Upsert(ctx, testRecord("sig-1", "ETH-PERP")))

	record, err := v.Get(ctx, "sig-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	// Same signalId overwrites, not appends: the second payload wins.
	assert.Equal(t, "ETH-PERP", record.Identity.Market)
}

func TestMemoryVault_RejectsMissingSignalID(t *testing.T) {
	v := NewMemoryVault("tenant-a")

	err := v.Upsert(context.Background(), &SignalRecord{})
	assert.ErrorIs(t, err, ErrMissingSignalID)
}

func TestMemoryFactory_MemoizesHandles(t *testing.T) {
	factory := NewMemoryFactory()

	first := factory.For("tenant-a")
	second := factory.For("tenant-a")
	other := factory.For("tenant-b")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, "tenant-a", first.TenantID())
	assert.Equal(t, "tenant-b", other.TenantID())
}

// A record ingested through tenant A's handle is invisible through
// tenant B's, even for the same signalId.
func TestMemoryFactory_TenantIsolation(t *testing.T) {
	factory := NewMemoryFactory()
	ctx := context.Background()

	require.NoError(t, factory.For("tenant-a").Upsert(ctx, testRecord("sig-123", "BTC-PERP")))
	require.NoError(t, factory.For("tenant-b").Upsert(ctx, testRecord("sig-456", "SOL-PERP")))

	fromA, err := factory.For("tenant-a").Get(ctx, "sig-123")
	require.NoError(t, err)
	assert.NotNil(t, fromA)

	fromB, err := factory.For("tenant-b").Get(ctx, "sig-123")
	require.NoError(t, err)
	assert.Nil(t, fromB)
}
