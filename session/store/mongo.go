package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fraudlens/fraudlens/message"
)

// MongoStore persists transcript entries as documents, ordered by sequence
// number within a session.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type transcriptEntry struct {
	SessionID string         `bson:"session_id"`
	Sequence  int64          `bson:"sequence"`
	Role      string         `bson:"role"`
	Content   string         `bson:"content"`
	Metadata  map[string]any `bson:"metadata,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

// NewMongoStore connects to MongoDB and prepares the transcript collection.
func NewMongoStore(ctx context.Context, config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = &MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "fraudlens",
			Collection: "transcripts",
		}
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "sequence", Value: 1}},
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("create transcript index: %w", err)
	}

	return &MongoStore{client: client, collection: collection}, nil
}

// Append inserts the message with the next sequence number for the session.
func (s *MongoStore) Append(ctx context.Context, sessionID string, msg *message.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}

	count, err := s.collection.CountDocuments(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("count transcript entries: %w", err)
	}

	entry := transcriptEntry{
		SessionID: sessionID,
		Sequence:  count,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Metadata:  msg.Metadata,
		CreatedAt: msg.CreatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert transcript entry: %w", err)
	}
	return nil
}

// History returns the transcript in sequence order.
func (s *MongoStore) History(ctx context.Context, sessionID string) ([]*message.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find transcript entries: %w", err)
	}
	defer cursor.Close(ctx)

	var msgs []*message.Message
	for cursor.Next(ctx) {
		var entry transcriptEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("decode transcript entry: %w", err)
		}
		msgs = append(msgs, &message.Message{
			Role:      message.Role(entry.Role),
			Content:   entry.Content,
			Metadata:  entry.Metadata,
			CreatedAt: entry.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript entries: %w", err)
	}
	return msgs, nil
}

// Clear removes all entries for the session.
func (s *MongoStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	return nil
}

// Close disconnects the Mongo client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
