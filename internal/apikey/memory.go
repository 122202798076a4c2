package apikey

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store. It mirrors the
// durable store's semantics, including fingerprint uniqueness, and is
// intended for tests and local development.
type MemoryStore struct {
	hasher  Hasher
	mu      sync.RWMutex
	records map[string]*Record // keyId -> record
	hashes  map[string]string  // keyHash -> keyId
}

// NewMemoryStore creates a new in-memory API key store.
func NewMemoryStore(hasher Hasher) *MemoryStore {
	if hasher == nil {
		hasher = NewSHA256Hasher("")
	}
	return &MemoryStore{
		hasher:  hasher,
		records: make(map[string]*Record),
		hashes:  make(map[string]string),
	}
}

// EnsureIndexes implements Store. The in-memory maps are their own
// indexes, so this is a no-op.
func (s *MemoryStore) EnsureIndexes(ctx context.Context) error {
	return nil
}

// CreateKey implements Store.
func (s *MemoryStore) CreateKey(ctx context.Context, tenantID, label string, rateLimit *RateLimitRule) (*CreatedKey, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}

	credential, suffix, err := generateCredential()
	if err != nil {
		return nil, err
	}
	keyID, err := generateKeyID()
	if err != nil {
		return nil, err
	}

	record := &Record{
		KeyID:     keyID,
		KeyHash:   s.hasher.Hash(credential),
		KeySuffix: suffix,
		TenantID:  tenantID,
		Label:     label,
		Status:    StatusActive,
		CreatedAt: time.Now().UTC(),
		RateLimit: rateLimit,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.hashes[record.KeyHash]; exists {
		return nil, ErrDuplicateFingerprint
	}
	s.records[record.KeyID] = record
	s.hashes[record.KeyHash] = record.KeyID

	return &CreatedKey{APIKey: credential, Metadata: record.Metadata()}, nil
}

// ListKeys implements Store.
func (s *MemoryStore) ListKeys(ctx context.Context, tenantID string) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Metadata, 0)
	for _, record := range s.records {
		if record.TenantID == tenantID {
			items = append(items, record.Metadata())
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

// RevokeKey implements Store.
func (s *MemoryStore) RevokeKey(ctx context.Context, tenantID, keyID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[keyID]
	if !ok || record.TenantID != tenantID || record.Status != StatusActive {
		return false, nil
	}

	now := time.Now().UTC()
	record.Status = StatusRevoked
	record.RevokedAt = &now

	return true, nil
}

// FindByAPIKey implements Store.
func (s *MemoryStore) FindByAPIKey(ctx context.Context, plaintext string) (*Record, error) {
	keyHash := s.hasher.Hash(plaintext)

	s.mu.RLock()
	defer s.mu.RUnlock()

	keyID, ok := s.hashes[keyHash]
	if !ok {
		return nil, nil
	}
	record := s.records[keyID]
	if record == nil || record.Status != StatusActive {
		return nil, nil
	}

	clone := *record
	return &clone, nil
}

// MarkUsed implements Store.
func (s *MemoryStore) MarkUsed(ctx context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[keyID]; ok {
		now := time.Now().UTC()
		record.LastUsedAt = &now
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
