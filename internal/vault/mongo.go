package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/afi-protocol/afi-gateway/internal/observability"
)

// mongoDocument is the stored form of a signal record. The tenantId
// lives beside the record so the unique (tenantId, signalId) pair can
// be indexed; it is written by the handle, never by the caller.
type mongoDocument struct {
	TenantID string       `bson:"tenantId"`
	SignalID string       `bson:"signalId"`
	Record   SignalRecord `bson:"record"`
}

// MongoVault is a Mongo-backed Vault. The tenantId is fixed at
// construction and folded into every filter.
type MongoVault struct {
	tenantID   string
	collection *mongo.Collection
	opTimeout  time.Duration
}

// TenantID implements Vault.
func (v *MongoVault) TenantID() string {
	return v.tenantID
}

// Upsert implements Vault.
func (v *MongoVault) Upsert(ctx context.Context, record *SignalRecord) error {
	if record == nil || record.Identity.SignalID == "" {
		return ErrMissingSignalID
	}

	opCtx, cancel := context.WithTimeout(ctx, v.opTimeout)
	defer cancel()

	doc := mongoDocument{
		TenantID: v.tenantID,
		SignalID: record.Identity.SignalID,
		Record:   *record,
	}

	_, err := v.collection.ReplaceOne(opCtx,
		bson.M{"tenantId": v.tenantID, "signalId": record.Identity.SignalID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert signal %s: %w", record.Identity.SignalID, err)
	}

	return nil
}

// Get implements Vault.
func (v *MongoVault) Get(ctx context.Context, signalID string) (*SignalRecord, error) {
	opCtx, cancel := context.WithTimeout(ctx, v.opTimeout)
	defer cancel()

	var doc mongoDocument
	err := v.collection.FindOne(opCtx,
		bson.M{"tenantId": v.tenantID, "signalId": signalID},
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read signal %s: %w", signalID, err)
	}

	return &doc.Record, nil
}

// MongoFactory memoizes one MongoVault per tenant on a shared
// collection. The per-tenant cache grows with the number of distinct
// tenants seen; tenants are operationally finite so no eviction is
// applied.
type MongoFactory struct {
	collection *mongo.Collection
	opTimeout  time.Duration
	logger     observability.Logger

	mu     sync.Mutex
	vaults map[string]Vault
}

// MongoFactoryOption is a functional option for the Mongo factory.
type MongoFactoryOption func(*MongoFactory)

// WithMongoFactoryLogger sets the logger for the factory.
func WithMongoFactoryLogger(logger observability.Logger) MongoFactoryOption {
	return func(f *MongoFactory) {
		f.logger = logger
	}
}

// WithMongoFactoryTimeout bounds every vault operation. Defaults to 10s.
func WithMongoFactoryTimeout(timeout time.Duration) MongoFactoryOption {
	return func(f *MongoFactory) {
		f.opTimeout = timeout
	}
}

// NewMongoFactory creates a vault factory over the given collection.
func NewMongoFactory(collection *mongo.Collection, opts ...MongoFactoryOption) *MongoFactory {
	f := &MongoFactory{
		collection: collection,
		opTimeout:  10 * time.Second,
		logger:     observability.NopLogger(),
		vaults:     make(map[string]Vault),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// EnsureIndexes prepares the unique (tenantId, signalId) index that
// backs upsert semantics. Idempotent.
func (f *MongoFactory) EnsureIndexes(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, f.opTimeout)
	defer cancel()

	_, err := f.collection.Indexes().CreateOne(opCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenantId", Value: 1}, {Key: "signalId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("tenant_signal_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create vault indexes: %w", err)
	}
	return nil
}

// For implements Factory.
func (f *MongoFactory) For(tenantID string) Vault {
	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.vaults[tenantID]; ok {
		return v
	}

	f.logger.Debug("constructing vault handle", observability.String("tenant_id", tenantID))

	v := &MongoVault{
		tenantID:   tenantID,
		collection: f.collection,
		opTimeout:  f.opTimeout,
	}
	f.vaults[tenantID] = v
	return v
}

var (
	_ Vault   = (*MongoVault)(nil)
	_ Factory = (*MongoFactory)(nil)
)
