package user

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

// UserDocument is the MongoDB shape of a user.
type UserDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Email      string             `bson:"email"`
	FullName   string             `bson:"full_name"`
	ProfilePic string             `bson:"profile_pic,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (d *UserDocument) toEntity() *User {
	return &User{
		ID:         d.ID.Hex(),
		Email:      d.Email,
		FullName:   d.FullName,
		ProfilePic: d.ProfilePic,
		CreatedAt:  d.CreatedAt,
	}
}

// MongoRepository implements Repository on the users collection.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *database.MongoDB) *MongoRepository {
	return &MongoRepository{collection: db.Collection("users")}
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}

	var doc UserDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *MongoRepository) FindByIDs(ctx context.Context, ids []string) ([]*User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, doc.toEntity())
	}
	return users, cursor.Err()
}

func (r *MongoRepository) Search(ctx context.Context, query, excludeID string, limit int64) ([]*User, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"full_name": bson.M{"$regex": query, "$options": "i"}},
			{"email": bson.M{"$regex": "^" + query, "$options": "i"}},
		},
	}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetLimit(limit).SetSort(bson.D{{Key: "full_name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, doc.toEntity())
	}
	return users, cursor.Err()
}
