package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatline/internal/config"
)

// MongoDB wraps a client and the application database.
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	cfg      config.MongoConfig
}

// NewMongoDB connects, pings and returns the handle.
func NewMongoDB(cfg config.MongoConfig) (*MongoDB, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("✅ connected to MongoDB", slog.String("database", cfg.Database))

	return &MongoDB{
		client:   client,
		database: client.Database(cfg.Database),
		cfg:      cfg,
	}, nil
}

// Collection returns a collection in the application database.
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Close disconnects the client.
func (m *MongoDB) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

// CreateIndexes creates the indexes every collection relies on. friend_requests
// keeps a unique index on pair_key so only one document can ever exist per pair.
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	users := m.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "full_name", Value: 1}},
		},
	}
	if _, err := users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	chats := m.Collection("chats")
	chatIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "participants", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "is_group", Value: 1}},
		},
	}
	if _, err := chats.Indexes().CreateMany(ctx, chatIndexes); err != nil {
		return fmt.Errorf("failed to create chat indexes: %w", err)
	}

	messages := m.Collection("messages")
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "is_read", Value: 1}, {Key: "sender", Value: 1}},
		},
	}
	if _, err := messages.Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	friendRequests := m.Collection("friend_requests")
	friendIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "sender", Value: 1}, {Key: "status", Value: 1}},
		},
	}
	if _, err := friendRequests.Indexes().CreateMany(ctx, friendIndexes); err != nil {
		return fmt.Errorf("failed to create friend request indexes: %w", err)
	}

	slog.Info("✅ created MongoDB indexes")
	return nil
}
