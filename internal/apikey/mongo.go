package apikey

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

// MongoStore is the durable implementation of Store backed by a MongoDB
// collection. Fingerprint uniqueness is enforced by a unique index so a
// colliding credential is rejected at the storage boundary, not merely
// checked in application code.
type MongoStore struct {
	collection *mongo.Collection
	hasher     Hasher
	opTimeout  time.Duration
	logger     observability.Logger

	indexOnce sync.Once
	indexErr  error
}

// MongoStoreOption is a functional option for the Mongo store.
type MongoStoreOption func(*MongoStore)

// WithMongoStoreLogger sets the logger for the store.
func WithMongoStoreLogger(logger observability.Logger) MongoStoreOption {
	return func(s *MongoStore) {
		s.logger = logger
	}
}

// WithOperationTimeout bounds every storage operation. Defaults to 10s.
func WithOperationTimeout(timeout time.Duration) MongoStoreOption {
	return func(s *MongoStore) {
		s.opTimeout = timeout
	}
}

// NewMongoStore creates a Mongo-backed API key store on the given
// collection.
func NewMongoStore(collection *mongo.Collection, hasher Hasher, opts ...MongoStoreOption) *MongoStore {
	if hasher == nil {
		hasher = NewSHA256Hasher("")
	}

	s := &MongoStore{
		collection: collection,
		hasher:     hasher,
		opTimeout:  10 * time.Second,
		logger:     observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EnsureIndexes implements Store. Concurrent first-callers race
// harmlessly: index creation is idempotent and the result is memoized
// for the process lifetime.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	s.indexOnce.Do(func() {
		opCtx, cancel := s.opContext(ctx)
		defer cancel()

		_, err := s.collection.Indexes().CreateMany(opCtx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "keyHash", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("keyHash_unique"),
			},
			{
				Keys:    bson.D{{Key: "tenantId", Value: 1}},
				Options: options.Index().SetName("tenantId_idx"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}},
				Options: options.Index().SetName("status_idx"),
			},
		})
		if err != nil {
			s.indexErr = fmt.Errorf("failed to create api key indexes: %w", err)
		}
	})
	return s.indexErr
}

// CreateKey implements Store.
func (s *MongoStore) CreateKey(ctx context.Context, tenantID, label string, rateLimit *RateLimitRule) (*CreatedKey, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
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

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.collection.InsertOne(opCtx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateFingerprint
		}
		return nil, fmt.Errorf("failed to persist api key: %w", err)
	}

	return &CreatedKey{APIKey: credential, Metadata: record.Metadata()}, nil
}

// ListKeys implements Store.
func (s *MongoStore) ListKeys(ctx context.Context, tenantID string) ([]Metadata, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	cursor, err := s.collection.Find(opCtx,
		bson.M{"tenantId": tenantID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer cursor.Close(opCtx)

	items := make([]Metadata, 0)
	for cursor.Next(opCtx) {
		var record Record
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode api key record: %w", err)
		}
		items = append(items, record.Metadata())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api keys: %w", err)
	}

	return items, nil
}

// RevokeKey implements Store. Only active keys match, so a repeated
// revoke reports false and a keyId owned by another tenant is
// indistinguishable from an unknown one.
func (s *MongoStore) RevokeKey(ctx context.Context, tenantID, keyID string) (bool, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	result, err := s.collection.UpdateOne(opCtx,
		bson.M{"tenantId": tenantID, "keyId": keyID, "status": StatusActive},
		bson.M{"$set": bson.M{"status": StatusRevoked, "revokedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to revoke api key: %w", err)
	}

	return result.MatchedCount > 0, nil
}

// FindByAPIKey implements Store.
func (s *MongoStore) FindByAPIKey(ctx context.Context, plaintext string) (*Record, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	var record Record
	err := s.collection.FindOne(opCtx,
		bson.M{"keyHash": s.hasher.Hash(plaintext), "status": StatusActive},
	).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}

	return &record, nil
}

// MarkUsed implements Store.
func (s *MongoStore) MarkUsed(ctx context.Context, keyID string) error {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	_, err := s.collection.UpdateOne(opCtx,
		bson.M{"keyId": keyID},
		bson.M{"$set": bson.M{"lastUsedAt": time.Now().UTC()}},
	)
	if err != nil {
		s.logger.Warn("failed to update lastUsedAt",
			observability.String("key_id", keyID),
			observability.Error(err),
		)
		return fmt.Errorf("failed to mark api key used: %w", err)
	}
	return nil
}

// opContext derives a bounded context for a single storage operation.
func (s *MongoStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

var _ Store = (*MongoStore)(nil)
