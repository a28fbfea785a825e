package friend

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

// RequestDocument is the MongoDB shape of a friend request. PairKey carries
// the unique index.
type RequestDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	PairKey   string             `bson:"pair_key"`
	Sender    primitive.ObjectID `bson:"sender"`
	Receiver  primitive.ObjectID `bson:"receiver"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *RequestDocument) toEntity() *Request {
	return &Request{
		ID:        d.ID.Hex(),
		Sender:    d.Sender.Hex(),
		Receiver:  d.Receiver.Hex(),
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoRepository implements Repository on the friend_requests collection.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *database.MongoDB) *MongoRepository {
	return &MongoRepository{collection: db.Collection("friend_requests")}
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*Request, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc RequestDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find friend request: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *MongoRepository) FindByPair(ctx context.Context, userA, userB string) (*Request, error) {
	var doc RequestDocument
	err := r.collection.FindOne(ctx, bson.M{"pair_key": PairKey(userA, userB)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pair request: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *MongoRepository) FindAcceptedPair(ctx context.Context, userA, userB string) (*Request, error) {
	var doc RequestDocument
	err := r.collection.FindOne(ctx, bson.M{
		"pair_key": PairKey(userA, userB),
		"status":   StatusAccepted,
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find accepted pair: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *MongoRepository) Insert(ctx context.Context, req *Request) error {
	sender, err := primitive.ObjectIDFromHex(req.Sender)
	if err != nil {
		return fmt.Errorf("invalid sender id: %w", err)
	}
	receiver, err := primitive.ObjectIDFromHex(req.Receiver)
	if err != nil {
		return fmt.Errorf("invalid receiver id: %w", err)
	}

	now := time.Now()
	doc := &RequestDocument{
		PairKey:   PairKey(req.Sender, req.Receiver),
		Sender:    sender,
		Receiver:  receiver,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicatePair
	}
	if err != nil {
		return fmt.Errorf("failed to insert friend request: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid.Hex()
	}
	req.Status = StatusPending
	req.CreatedAt = now
	req.UpdatedAt = now
	return nil
}

func (r *MongoRepository) Repoint(ctx context.Context, id, sender, receiver string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	senderOID, err := primitive.ObjectIDFromHex(sender)
	if err != nil {
		return fmt.Errorf("invalid sender id: %w", err)
	}
	receiverOID, err := primitive.ObjectIDFromHex(receiver)
	if err != nil {
		return fmt.Errorf("invalid receiver id: %w", err)
	}

	update := bson.M{"$set": bson.M{
		"status":     StatusPending,
		"sender":     senderOID,
		"receiver":   receiverOID,
		"updated_at": time.Now(),
	}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("failed to repoint friend request: %w", err)
	}
	return nil
}

func (r *MongoRepository) SetStatus(ctx context.Context, id, status string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}

	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("failed to set request status: %w", err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindPendingForReceiver(ctx context.Context, userID string) ([]*Request, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	return r.findAll(ctx, bson.M{"receiver": oid, "status": StatusPending})
}

func (r *MongoRepository) FindSentBy(ctx context.Context, userID string) ([]*Request, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	return r.findAll(ctx, bson.M{
		"sender": oid,
		"status": bson.M{"$in": bson.A{StatusPending, StatusRejected}},
	})
}

func (r *MongoRepository) FindAcceptedFor(ctx context.Context, userID string) ([]*Request, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	return r.findAll(ctx, bson.M{
		"status": StatusAccepted,
		"$or":    bson.A{bson.M{"sender": oid}, bson.M{"receiver": oid}},
	})
}

func (r *MongoRepository) findAll(ctx context.Context, filter bson.M) ([]*Request, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find friend requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*Request
	for cursor.Next(ctx) {
		var doc RequestDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode friend request: %w", err)
		}
		requests = append(requests, doc.toEntity())
	}
	return requests, cursor.Err()
}
