package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatline/internal/apperr"
	"chatline/internal/database"
)

// MessageDocument is the MongoDB shape of a message.
type MessageDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ChatID    primitive.ObjectID `bson:"chat_id"`
	Sender    primitive.ObjectID `bson:"sender"`
	Text      string             `bson:"text"`
	FileURL   string             `bson:"file_url,omitempty"`
	FileKey   string             `bson:"file_key,omitempty"`
	Type      string             `bson:"type"`
	IsRead    bool               `bson:"is_read"`
	IsEdited  bool               `bson:"is_edited"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *MessageDocument) toEntity() *Message {
	return &Message{
		ID:        d.ID.Hex(),
		ChatID:    d.ChatID.Hex(),
		SenderID:  d.Sender.Hex(),
		Text:      d.Text,
		FileURL:   d.FileURL,
		FileKey:   d.FileKey,
		Type:      d.Type,
		IsRead:    d.IsRead,
		IsEdited:  d.IsEdited,
		CreatedAt: d.CreatedAt,
	}
}

// MongoRepository implements Repository on the messages collection.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *database.MongoDB) *MongoRepository {
	return &MongoRepository{collection: db.Collection("messages")}
}

func (r *MongoRepository) Create(ctx context.Context, message *Message) error {
	chatID, err := primitive.ObjectIDFromHex(message.ChatID)
	if err != nil {
		return apperr.Validation("invalid chatId")
	}
	sender, err := primitive.ObjectIDFromHex(message.SenderID)
	if err != nil {
		return apperr.Validation("invalid sender id")
	}

	doc := &MessageDocument{
		ChatID:    chatID,
		Sender:    sender,
		Text:      message.Text,
		FileURL:   message.FileURL,
		FileKey:   message.FileKey,
		Type:      message.Type,
		CreatedAt: time.Now(),
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		message.ID = oid.Hex()
	}
	message.CreatedAt = doc.CreatedAt
	return nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc MessageDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *MongoRepository) UpdateText(ctx context.Context, id, text string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFound("message not found")
	}

	update := bson.M{"$set": bson.M{"text": text, "is_edited": true}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindUnreadIDs(ctx context.Context, chatID, senderID string) ([]string, error) {
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, nil
	}
	senderOID, err := primitive.ObjectIDFromHex(senderID)
	if err != nil {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx,
		bson.M{"chat_id": chatOID, "sender": senderOID, "is_read": false},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to find unread messages: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message id: %w", err)
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cursor.Err()
}

func (r *MongoRepository) MarkRead(ctx context.Context, ids []string) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return 0, nil
	}

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": oids}},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.ModifiedCount, nil
}

// UnreadSummary recomputes the per-chat unread state from scratch: newest
// unread message per chat not authored by the user, joined with the chat for
// its group flag.
func (r *MongoRepository) UnreadSummary(ctx context.Context, userID string, chatIDs []string) ([]*UnreadChat, error) {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	chatOIDs := make([]primitive.ObjectID, 0, len(chatIDs))
	for _, id := range chatIDs {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			chatOIDs = append(chatOIDs, oid)
		}
	}
	if len(chatOIDs) == 0 {
		return nil, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"is_read": false,
			"sender":  bson.M{"$ne": userOID},
			"chat_id": bson.M{"$in": chatOIDs},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$chat_id",
			"sender": bson.M{"$first": "$sender"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "chats",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "chat",
		}}},
		{{Key: "$unwind", Value: "$chat"}},
		{{Key: "$project", Value: bson.M{
			"chat_id":  "$_id",
			"sender":   1,
			"is_group": "$chat.is_group",
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate unread summary: %w", err)
	}
	defer cursor.Close(ctx)

	var summary []*UnreadChat
	for cursor.Next(ctx) {
		var row struct {
			ChatID  primitive.ObjectID `bson:"chat_id"`
			Sender  primitive.ObjectID `bson:"sender"`
			IsGroup bool               `bson:"is_group"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode unread row: %w", err)
		}
		summary = append(summary, &UnreadChat{
			ChatID:   row.ChatID.Hex(),
			SenderID: row.Sender.Hex(),
			IsGroup:  row.IsGroup,
		})
	}
	return summary, cursor.Err()
}

func (r *MongoRepository) FindByChat(ctx context.Context, chatID string, page, limit int64) ([]*Message, int64, error) {
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, 0, nil
	}
	filter := bson.M{"chat_id": chatOID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*Message
	for cursor.Next(ctx) {
		var doc MessageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, doc.toEntity())
	}
	return messages, total, cursor.Err()
}

func (r *MongoRepository) LastMessageAt(ctx context.Context, chatID string) (time.Time, error) {
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return time.Time{}, nil
	}

	var doc MessageDocument
	err = r.collection.FindOne(ctx, bson.M{"chat_id": chatOID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to find last message: %w", err)
	}
	return doc.CreatedAt, nil
}

func (r *MongoRepository) AttachmentKeys(ctx context.Context, chatID string) ([]string, error) {
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx,
		bson.M{"chat_id": chatOID, "file_key": bson.M{"$nin": bson.A{nil, ""}}},
		options.Find().SetProjection(bson.M{"file_key": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to find attachment keys: %w", err)
	}
	defer cursor.Close(ctx)

	var keys []string
	for cursor.Next(ctx) {
		var doc struct {
			FileKey string `bson:"file_key"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode attachment key: %w", err)
		}
		keys = append(keys, doc.FileKey)
	}
	return keys, cursor.Err()
}

func (r *MongoRepository) DeleteByChat(ctx context.Context, chatID string) error {
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"chat_id": chatOID}); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	return nil
}
