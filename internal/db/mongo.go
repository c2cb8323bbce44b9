package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/triptap-rides/internal/handoff"
	"github.com/ukydev/triptap-rides/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HandoffCollectionName is where hand-off records live in MongoDB.
const HandoffCollectionName = "handoffs"

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// handoffDocument is the stored shape: the hand-off fields plus its key and request id.
type handoffDocument struct {
	ID                 string `bson:"_id"`
	RequestID          string `bson:"request_id"`
	models.TripHandoff `bson:",inline"`
}

// MongoHandoffStore keeps hand-off records in a MongoDB collection. Records
// older than ttl are removed on every Save and by the TTL index.
type MongoHandoffStore struct {
	Collection *mongo.Collection
	ttl        time.Duration
	now        func() time.Time
}

// NewMongoHandoffStore uses the handoffs collection of database; ttl <= 0 means
// handoff.DefaultTTL.
func NewMongoHandoffStore(client *mongo.Client, database string, ttl time.Duration) *MongoHandoffStore {
	if ttl <= 0 {
		ttl = handoff.DefaultTTL
	}
	return &MongoHandoffStore{
		Collection: client.Database(database).Collection(HandoffCollectionName),
		ttl:        ttl,
		now:        time.Now,
	}
}

// EnsureIndexes creates the TTL index on created_at so the server expires
// records even when nothing calls Save.
func (s *MongoHandoffStore) EnsureIndexes(ctx context.Context) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetName("created_at_ttl").SetExpireAfterSeconds(int32(s.TTL().Seconds())),
	}
	if _, err := s.Collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create handoff ttl index: %w", err)
	}
	return nil
}

// TTL returns how long records are kept.
func (s *MongoHandoffStore) TTL() time.Duration {
	if s.ttl <= 0 {
		return handoff.DefaultTTL
	}
	return s.ttl
}

// Save evicts expired records, then upserts the record for requestID.
func (s *MongoHandoffStore) Save(ctx context.Context, requestID string, h models.TripHandoff) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if requestID == "" {
		return errors.New("request id is required")
	}
	now := s.clock()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	if _, err := s.Evict(ctx, now.Add(-s.TTL())); err != nil {
		return err
	}
	// BSON dates carry millisecond precision.
	h.CreatedAt = h.CreatedAt.UTC().Truncate(time.Millisecond)

	key := handoff.Key(requestID)
	doc := handoffDocument{ID: key, RequestID: requestID, TripHandoff: h}
	_, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save handoff: %w", err)
	}
	return nil
}

// Load returns handoff.ErrNotFound when no record exists for requestID.
func (s *MongoHandoffStore) Load(ctx context.Context, requestID string) (models.TripHandoff, error) {
	if s.Collection == nil {
		return models.TripHandoff{}, fmt.Errorf("mongo collection is nil")
	}
	var doc handoffDocument
	err := s.Collection.FindOne(ctx, bson.M{"_id": handoff.Key(requestID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.TripHandoff{}, handoff.ErrNotFound
		}
		return models.TripHandoff{}, err
	}
	return doc.TripHandoff, nil
}

// Delete removes the record for requestID. Deleting a missing record is not an error.
func (s *MongoHandoffStore) Delete(ctx context.Context, requestID string) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := s.Collection.DeleteOne(ctx, bson.M{"_id": handoff.Key(requestID)})
	return err
}

// Evict deletes every record created before olderThan.
func (s *MongoHandoffStore) Evict(ctx context.Context, olderThan time.Time) (int, error) {
	if s.Collection == nil {
		return 0, fmt.Errorf("mongo collection is nil")
	}
	res, err := s.Collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": olderThan}})
	if err != nil {
		return 0, fmt.Errorf("failed to evict handoffs: %w", err)
	}
	return int(res.DeletedCount), nil
}

// Close disconnects the underlying client.
func (s *MongoHandoffStore) Close(ctx context.Context) error {
	if s.Collection == nil {
		return nil
	}
	return s.Collection.Database().Client().Disconnect(ctx)
}

func (s *MongoHandoffStore) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
