package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"chatline/internal/database"
)

// ChatDocument is the MongoDB shape of a chat.
type ChatDocument struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	IsGroup      bool                 `bson:"is_group"`
	Name         string               `bson:"name,omitempty"`
	Participants []primitive.ObjectID `bson:"participants"`
	Admin        primitive.ObjectID   `bson:"admin,omitempty"`
	InactiveFor  []primitive.ObjectID `bson:"inactive_for"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
}

func (d *ChatDocument) toEntity() *Chat {
	c := &Chat{
		ID:           d.ID.Hex(),
		IsGroup:      d.IsGroup,
		Name:         d.Name,
		Participants: hexIDs(d.Participants),
		InactiveFor:  hexIDs(d.InactiveFor),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if !d.Admin.IsZero() {
		c.Admin = d.Admin.Hex()
	}
	return c
}

func hexIDs(oids []primitive.ObjectID) []string {
	ids := make([]string, 0, len(oids))
	for _, oid := range oids {
		ids = append(ids, oid.Hex())
	}
	return ids
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", id, err)
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

// MongoRepository implements Repository on the chats collection.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *database.MongoDB) *MongoRepository {
	return &MongoRepository{collection: db.Collection("chats")}
}

func (r *MongoRepository) Create(ctx context.Context, chat *Chat) error {
	participants, err := objectIDs(chat.Participants)
	if err != nil {
		return err
	}

	now := time.Now()
	doc := &ChatDocument{
		IsGroup:      chat.IsGroup,
		Name:         chat.Name,
		Participants: participants,
		InactiveFor:  []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if chat.Admin != "" {
		admin, err := primitive.ObjectIDFromHex(chat.Admin)
		if err != nil {
			return fmt.Errorf("invalid admin id: %w", err)
		}
		doc.Admin = admin
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		chat.ID = oid.Hex()
	}
	chat.CreatedAt = now
	chat.UpdatedAt = now
	return nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*Chat, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc ChatDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *MongoRepository) FindOneToOne(ctx context.Context, userA, userB string) (*Chat, error) {
	oids, err := objectIDs([]string{userA, userB})
	if err != nil {
		return nil, nil
	}

	var doc ChatDocument
	err = r.collection.FindOne(ctx, bson.M{
		"is_group":     false,
		"participants": bson.M{"$all": oids},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find one-to-one chat: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *MongoRepository) FindForParticipant(ctx context.Context, userID string) ([]*Chat, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"participants": oid})
	if err != nil {
		return nil, fmt.Errorf("failed to find chats: %w", err)
	}
	defer cursor.Close(ctx)

	var chats []*Chat
	for cursor.Next(ctx) {
		var doc ChatDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode chat: %w", err)
		}
		chats = append(chats, doc.toEntity())
	}
	return chats, cursor.Err()
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}

func (r *MongoRepository) AddInactive(ctx context.Context, chatID string, userIDs []string) error {
	return r.updateInactive(ctx, chatID, userIDs, "$addToSet")
}

func (r *MongoRepository) RemoveInactive(ctx context.Context, chatID string, userIDs []string) error {
	return r.updateInactive(ctx, chatID, userIDs, "$pullAll")
}

func (r *MongoRepository) updateInactive(ctx context.Context, chatID string, userIDs []string, op string) error {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil
	}
	oids, err := objectIDs(userIDs)
	if err != nil {
		return err
	}

	var value bson.M
	if op == "$addToSet" {
		value = bson.M{"inactive_for": bson.M{"$each": oids}}
	} else {
		value = bson.M{"inactive_for": oids}
	}

	update := bson.M{op: value, "$set": bson.M{"updated_at": time.Now()}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("failed to update inactive set: %w", err)
	}
	return nil
}
