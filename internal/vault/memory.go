package vault

import (
	"context"
	"sync"
)

// MemoryVault is an in-memory Vault for tests and local development.
type MemoryVault struct {
	tenantID string
	mu       sync.RWMutex
	records  map[string]*SignalRecord // signalId -> record
}

// NewMemoryVault creates an in-memory vault bound to the tenant.
func NewMemoryVault(tenantID string) *MemoryVault {
	return &MemoryVault{
		tenantID: tenantID,
		records:  make(map[string]*SignalRecord),
	}
}

// TenantID implements Vault.
func (v *MemoryVault) TenantID() string {
	return v.tenantID
}

// Upsert implements Vault.
func (v *MemoryVault) Upsert(ctx context.Context, record *SignalRecord) error {
	if record == nil || record.Identity.SignalID == "" {
		return ErrMissingSignalID
	}

	clone := *record

	v.mu.Lock()
	defer v.mu.Unlock()
	v.records[record.Identity.SignalID] = &clone

	return nil
}

// Get implements Vault.
func (v *MemoryVault) Get(ctx context.Context, signalID string) (*SignalRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	record, ok := v.records[signalID]
	if !ok {
		return nil, nil
	}

	clone := *record
	return &clone, nil
}

// MemoryFactory memoizes one MemoryVault per tenant.
type MemoryFactory struct {
	mu     sync.Mutex
	vaults map[string]Vault
}

// NewMemoryFactory creates an in-memory vault factory.
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{vaults: make(map[string]Vault)}
}

// For implements Factory.
func (f *MemoryFactory) For(tenantID string) Vault {
	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.vaults[tenantID]; ok {
		return v
	}

	v := NewMemoryVault(tenantID)
	f.vaults[tenantID] = v
	return v
}

var (
	_ Vault   = (*MemoryVault)(nil)
	_ Factory = (*MemoryFactory)(nil)
)
