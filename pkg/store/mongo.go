package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/observability"
)

const networksCollection = "networks"

// MongoStore persists records in a MongoDB collection.
// Record IDs map to the document _id, so Put upserts by identity.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to the MongoDB instance at uri and uses the given
// database. The connection is verified with a ping before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(networksCollection),
	}, nil
}

// Put stores a record, replacing any record with the same ID.
func (s *MongoStore) Put(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	start := time.Now()
	observability.Store().OnStoreOp(ctx, "put", rec.ID)
	opts := options.Replace().SetUpsert(true)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts)
	observability.Store().OnStoreComplete(ctx, "put", rec.ID, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("store network %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a record with its network payload.
func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	start := time.Now()
	observability.Store().OnStoreOp(ctx, "get", id)
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	observability.Store().OnStoreComplete(ctx, "get", id, time.Since(start), err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.New(apperrors.ErrCodeNetworkNotFound, "network %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load network %s: %w", id, err)
	}
	return &rec, nil
}

// List returns record summaries, newest first. The network payload is
// excluded by projection so listings stay cheap.
func (s *MongoStore) List(ctx context.Context) ([]*Record, error) {
	opts := options.Find().
		SetProjection(bson.M{"network": 0}).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	start := time.Now()
	observability.Store().OnStoreOp(ctx, "list", "")
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		observability.Store().OnStoreComplete(ctx, "list", "", time.Since(start), err)
		return nil, fmt.Errorf("list networks: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*Record
	err = cursor.All(ctx, &out)
	observability.Store().OnStoreComplete(ctx, "list", "", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("decode network listing: %w", err)
	}
	return out, nil
}

// Delete removes a record.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	observability.Store().OnStoreOp(ctx, "delete", id)
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	observability.Store().OnStoreComplete(ctx, "delete", id, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete network %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.New(apperrors.ErrCodeNetworkNotFound, "network %s not found", id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
