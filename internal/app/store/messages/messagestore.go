// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"errors"
	"time"

	"github.com/codesync-app/codesync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("message not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

// Insert appends a message to a room's chat.
func (s *Store) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListByRoom returns the most recent messages for a room in chronological
// order. Limit <= 0 falls back to 100.
func (s *Store) ListByRoom(ctx context.Context, roomID primitive.ObjectID, limit int64) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Edit replaces a message's segments. Only the author may edit; the filter
// enforces it in the same document operation.
func (s *Store) Edit(ctx context.Context, id, authorID primitive.ObjectID, segments []models.MessageSegment) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": authorID},
		bson.M{"$set": bson.M{"segments": segments, "edited_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a message if authorID wrote it.
func (s *Store) Delete(ctx context.Context, id, authorID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": authorID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByRoom removes all of a room's messages. Room deletion cascade.
func (s *Store) DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"room_id": roomID})
	return err
}
