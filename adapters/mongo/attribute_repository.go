package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/circhioz/alexa-assistant/domain/repositories"
)

// AttributeRepository stores durable per-user attributes (volume, device
// identity) as one document per user. Writes with commit=false stage in
// memory only; a committed write flushes all staged values in one upsert,
// mirroring the attribute-manager semantics of the voice platform SDK.
type AttributeRepository struct {
	collection *mongo.Collection

	mu     sync.Mutex
	staged map[string]bson.M
}

var _ repositories.PersistentStore = (*AttributeRepository)(nil)

// NewAttributeRepository creates a MongoDB-backed persistent store
func NewAttributeRepository(db *mongo.Database) *AttributeRepository {
	return &AttributeRepository{
		collection: db.Collection("user_attributes"),
		staged:     make(map[string]bson.M),
	}
}

func (r *AttributeRepository) load(ctx context.Context, userID string) (bson.M, error) {
	var doc bson.M
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return bson.M{}, nil
		}
		return nil, fmt.Errorf("failed to load attributes for user: %w", err)
	}
	return doc, nil
}

// GetString implements repositories.PersistentStore
func (r *AttributeRepository) GetString(ctx context.Context, userID, key string) (string, error) {
	doc, err := r.load(ctx, userID)
	if err != nil {
		return "", err
	}
	if v, ok := doc[key]; ok {
		if s, ok := v.(string); ok {
			return s, nil
		}
		return "", fmt.Errorf("attribute %s is not a string", key)
	}
	return "", nil
}

// GetInt implements repositories.PersistentStore
func (r *AttributeRepository) GetInt(ctx context.Context, userID, key string, fallback int) (int, error) {
	doc, err := r.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	if v, ok := doc[key]; ok {
		switch n := v.(type) {
		case int32:
			return int(n), nil
		case int64:
			return int(n), nil
		case int:
			return n, nil
		case float64:
			return int(n), nil
		}
		return 0, fmt.Errorf("attribute %s is not numeric", key)
	}
	return fallback, nil
}

// Set implements repositories.PersistentStore
func (r *AttributeRepository) Set(ctx context.Context, userID, key string, value interface{}, commit bool) error {
	r.mu.Lock()
	if r.staged[userID] == nil {
		r.staged[userID] = bson.M{}
	}
	r.staged[userID][key] = value

	if !commit {
		r.mu.Unlock()
		return nil
	}

	update := bson.M{}
	for k, v := range r.staged[userID] {
		update[k] = v
	}
	delete(r.staged, userID)
	r.mu.Unlock()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$set": update},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save attributes for user: %w", err)
	}
	return nil
}
