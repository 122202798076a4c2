package apikey

import (
	"context"
	"errors"
)

// Common errors for API key storage.
var (
	// ErrTenantRequired indicates a key creation with an empty tenant.
	ErrTenantRequired = errors.New("tenantId is required to create an API key")

	// ErrDuplicateFingerprint indicates the storage layer rejected a
	// colliding credential fingerprint via its unique index.
	ErrDuplicateFingerprint = errors.New("credential fingerprint already exists")
)

// Store is the durable registry of tenant API keys.
//
// All operations are safe to retry except CreateKey, which mints new
// credential material on every call.
type Store interface {
	// EnsureIndexes prepares the backing storage: a unique index on the
	// credential fingerprint and secondary indexes on tenant and status.
	// Idempotent; failure at startup is fatal for the gateway.
	EnsureIndexes(ctx context.Context) error

	// CreateKey issues a new key for the tenant. The returned CreatedKey
	// carries the plaintext credential exactly once; it is never
	// retrievable again.
	CreateKey(ctx context.Context, tenantID, label string, rateLimit *RateLimitRule) (*CreatedKey, error)

	// ListKeys returns the tenant's key metadata, newest first.
	ListKeys(ctx context.Context, tenantID string) ([]Metadata, error)

	// RevokeKey transitions an active key to revoked, scoped to the
	// tenant. It returns false when no active key matched, including
	// when the keyId belongs to another tenant.
	RevokeKey(ctx context.Context, tenantID, keyID string) (bool, error)

	// FindByAPIKey resolves a plaintext credential to its active record.
	// Revoked and unknown credentials both yield (nil, nil).
	FindByAPIKey(ctx context.Context, plaintext string) (*Record, error)

	// MarkUsed updates the key's lastUsedAt timestamp. Best effort: a
	// failure must not block the request it accompanies.
	MarkUsed(ctx context.Context, keyID string) error
}
