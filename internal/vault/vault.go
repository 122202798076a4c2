package vault

import (
	"context"
	"errors"
)

// ErrMissingSignalID indicates an upsert of a record with no signalId.
var ErrMissingSignalID = errors.New("signal record has no signalId")

// Vault is a tenant-bound storage handle. All operations act on the
// handle's tenant partition only. Handles are safe for concurrent use.
type Vault interface {
	// TenantID returns the tenant this handle is bound to.
	TenantID() string

	// Upsert stores the record, overwriting any existing record with
	// the same signalId in this tenant's partition.
	Upsert(ctx context.Context, record *SignalRecord) error

	// Get returns the record with the given signalId, or nil when the
	// partition holds no such record.
	Get(ctx context.Context, signalID string) (*SignalRecord, error)
}

// Factory produces one vault handle per tenant, memoized for the
// process lifetime. Handle construction is safe to race: concurrent
// first-callers for the same tenant observe the same handle.
type Factory interface {
	For(tenantID string) Vault
}
