package apikey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateKey(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	created, err := store.CreateKey(ctx, "tenant-a", "primary", nil)
	require.NoError(t, err)

	assert.Contains(t, created.APIKey, credentialPrefix)
	assert.Equal(t, "tenant-a", created.Metadata.TenantID)
	assert.Equal(t, "primary", created.Metadata.Label)
	assert.Equal(t, StatusActive, created.Metadata.Status)
	assert.Equal(t, created.APIKey[len(created.APIKey)-suffixLen:], created.Metadata.KeySuffix)
	assert.False(t, created.Metadata.CreatedAt.IsZero())
}

func TestMemoryStore_CreateKey_EmptyTenant(t *testing.T) {
	store := NewMemoryStore(nil)

	_, err := store.CreateKey(context.Background(), "", "", nil)

	assert.ErrorIs(t, err, ErrTenantRequired)
}

// Fingerprints of independently issued credentials never collide.
func TestMemoryStore_FingerprintUniqueness(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		created, err := store.CreateKey(ctx, "tenant-a", "", nil)
		require.NoError(t, err)

		record, err := store.FindByAPIKey(ctx, created.APIKey)
		require.NoError(t, err)
		require.NotNil(t, record)
		require.False(t, seen[record.KeyHash], "fingerprint collision at iteration %d", i)
		seen[record.KeyHash] = true
	}
}

func TestMemoryStore_FindByAPIKey(t *testing.T) {
	store := NewMemoryStore(NewSHA256Hasher("salt"))
	ctx := context.Background()

	created, err := store.CreateKey(ctx, "tenant-a", "", nil)
	require.NoError(t, err)

	record, err := store.FindByAPIKey(ctx, created.APIKey)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, created.Metadata.KeyID, record.KeyID)
	assert.Equal(t, "tenant-a", record.TenantID)

	unknown, err := store.FindByAPIKey(ctx, "afi_never_issued")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestMemoryStore_RevokeKey_OneWay(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	created, err := store.CreateKey(ctx, "tenant-a", "", nil)
	require.NoError(t, err)

	revoked, err := store.RevokeKey(ctx, "tenant-a", created.Metadata.KeyID)
	require.NoError(t, err)
	assert.True(t, revoked)

	// A revoked credential resolves to nothing, same as one that never
	// existed.
	record, err := store.FindByAPIKey(ctx, created.APIKey)
	require.NoError(t, err)
	assert.Nil(t, record)

	// No double-revoke success.
	again, err := store.RevokeKey(ctx, "tenant-a", created.Metadata.KeyID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestMemoryStore_RevokeKey_CrossTenant(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	created, err := store.CreateKey(ctx, "tenant-a", "", nil)
	require.NoError(t, err)

	// Another tenant's revoke behaves as not-found.
	revoked, err := store.RevokeKey(ctx, "tenant-b", created.Metadata.KeyID)
	require.NoError(t, err)
	assert.False(t, revoked)

	record, err := store.FindByAPIKey(ctx, created.APIKey)
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestMemoryStore_ListKeys(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.CreateKey(ctx, "tenant-a", "", nil)
		require.NoError(t, err)
	}
	_, err := store.CreateKey(ctx, "tenant-b", "", nil)
	require.NoError(t, err)

	items, err := store.ListKeys(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, items, 3)

	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt),
			"listing must be newest first")
	}

	empty, err := store.ListKeys(ctx, "tenant-c")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_MarkUsed(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	created, err := store.CreateKey(ctx, "tenant-a", "", nil)
	require.NoError(t, err)

	require.NoError(t, store.MarkUsed(ctx, created.Metadata.KeyID))

	record, err := store.FindByAPIKey(ctx, created.APIKey)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotNil(t, record.LastUsedAt)

	// Unknown keyId is silently ignored.
	assert.NoError(t, store.MarkUsed(ctx, "ak_unknown"))
}

func TestMemoryStore_RateLimitOverride(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	rule := &RateLimitRule{Limit: 1, WindowSeconds: 60}
	created, err := store.CreateKey(ctx, "tenant-a", "", rule)
	require.NoError(t, err)

	record, err := store.FindByAPIKey(ctx, created.APIKey)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.NotNil(t, record.RateLimit)
	assert.Equal(t, 1, record.RateLimit.Limit)
	assert.Equal(t, 60, record.RateLimit.WindowSeconds)
}
