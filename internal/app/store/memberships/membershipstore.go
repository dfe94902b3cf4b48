// internal/app/store/memberships/membershipstore.go
package membershipstore

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

var ErrNotFound = errors.New("membership not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("room_memberships")}
}

// Get returns the membership for (roomID, userID), if any.
func (s *Store) Get(ctx context.Context, roomID, userID primitive.ObjectID) (models.RoomMembership, error) {
	var m models.RoomMembership
	err := s.c.FindOne(ctx, bson.M{"room_id": roomID, "user_id": userID}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.RoomMembership{}, ErrNotFound
		}
		return models.RoomMembership{}, err
	}
	return m, nil
}

// Upsert creates or updates the single membership document for
// (roomID, userID). Role and permissions are overwritten; joined_at is set
// only on first insert. The unique (room_id, user_id) index guarantees no
// duplicate row even under concurrent grants.
func (s *Store) Upsert(ctx context.Context, roomID, userID primitive.ObjectID, role string, perms []string) (models.RoomMembership, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"role":           role,
			"permissions":    perms,
			"last_active_at": now,
		},
		"$setOnInsert": bson.M{
			"room_id":   roomID,
			"user_id":   userID,
			"joined_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var m models.RoomMembership
	err := s.c.FindOneAndUpdate(ctx, bson.M{"room_id": roomID, "user_id": userID}, update, opts).Decode(&m)
	if err != nil {
		return models.RoomMembership{}, err
	}
	return m, nil
}

// Patch updates role and/or permissions on an existing membership.
// Nil arguments leave the stored value untouched.
func (s *Store) Patch(ctx context.Context, roomID, userID primitive.ObjectID, role *string, perms []string) (models.RoomMembership, error) {
	set := bson.M{}
	if role != nil {
		set["role"] = *role
	}
	if perms != nil {
		set["permissions"] = perms
	}
	if len(set) == 0 {
		return s.Get(ctx, roomID, userID)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.RoomMembership
	err := s.c.FindOneAndUpdate(ctx, bson.M{"room_id": roomID, "user_id": userID}, bson.M{"$set": set}, opts).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.RoomMembership{}, ErrNotFound
		}
		return models.RoomMembership{}, err
	}
	return m, nil
}

// TouchLastActive refreshes last_active_at for an existing membership.
func (s *Store) TouchLastActive(ctx context.Context, roomID, userID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"room_id": roomID, "user_id": userID},
		bson.M{"$set": bson.M{"last_active_at": time.Now().UTC()}})
	return err
}

// ListByRoom returns all memberships for a room.
func (s *Store) ListByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.RoomMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ms []models.RoomMembership
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// CountByRoom returns the number of memberships in a room.
func (s *Store) CountByRoom(ctx context.Context, roomID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"room_id": roomID})
}

// DeleteByRoom removes all memberships for a room. Used by room deletion
// and by create-compensation; never called for individual members.
func (s *Store) DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"room_id": roomID})
	return err
}
