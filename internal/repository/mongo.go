package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/chat-relay/backend/internal/model"
)

const mongoCollection = "messages"

// mongoMessage is the document layout of the messages collection.
type mongoMessage struct {
	ID        primitive.ObjectID `bson:"_id"`
	User      string             `bson:"user"`
	Message   string             `bson:"message"`
	Timestamp time.Time          `bson:"timestamp"`
}

func (d mongoMessage) toModel() *model.ChatMessage {
	return &model.ChatMessage{
		ID:        d.ID.Hex(),
		User:      d.User,
		Message:   d.Message,
		Timestamp: d.Timestamp.UTC(),
	}
}

// MongoStore persists messages in a MongoDB collection. Ids are ObjectIDs,
// which sort by creation time.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongo connects to uri and verifies the deployment is reachable within
// connectTimeout.
func OpenMongo(ctx context.Context, uri, database string, connectTimeout time.Duration) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	collection := client.Database(database).Collection(mongoCollection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create timestamp index: %w", err)
	}

	return &MongoStore{client: client, collection: collection}, nil
}

// Append inserts a new message document.
func (s *MongoStore) Append(ctx context.Context, user, text string) (*model.ChatMessage, error) {
	doc := mongoMessage{
		ID:        primitive.NewObjectID(),
		User:      user,
		Message:   text,
		Timestamp: now(),
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, mongoError(model.ErrStoreWrite, err)
	}
	return doc.toModel(), nil
}

// Recent fetches the newest documents and returns them oldest first.
func (s *MongoStore) Recent(ctx context.Context, limit int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		return []*model.ChatMessage{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, mongoError(model.ErrStoreRead, err)
	}

	var docs []mongoMessage
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mongoError(model.ErrStoreRead, err)
	}

	return oldestFirst(lo.Map(docs, func(d mongoMessage, _ int) *model.ChatMessage {
		return d.toModel()
	})), nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// mongoError tags driver errors that stem from an unreachable deployment
// with ErrStoreConnection in addition to the operation's kind.
func mongoError(kind, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %w: %w", kind, model.ErrStoreConnection, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}
