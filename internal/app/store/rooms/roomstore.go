// internal/app/store/rooms/roomstore.go
package roomstore

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

var ErrNotFound = errors.New("room not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("rooms")}
}

// Create inserts a new room owned by ownerID.
func (s *Store) Create(ctx context.Context, room models.Room) (models.Room, error) {
	now := time.Now().UTC()
	room.ID = primitive.NewObjectID()
	if room.RoomType == "" {
		room.RoomType = models.RoomTypeCollab
	}
	room.CreatedAt = now
	room.LastAccessed = now
	if _, err := s.c.InsertOne(ctx, room); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// GetByID retrieves a room by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Room, error) {
	var room models.Room
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Room{}, ErrNotFound
		}
		return models.Room{}, err
	}
	return room, nil
}

// ListByOwner returns all rooms owned by ownerID, most recently used first.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_accessed", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rooms []models.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// InfoPatch carries the sparse-patch fields for room metadata. Nil pointers
// leave the stored value untouched.
type InfoPatch struct {
	Name        *string
	Description *string
	RoomType    *string
	IsPublic    *bool
	MaxUsers    *int
}

// PatchInfo applies a sparse metadata patch and refreshes last_accessed.
// OwnerID is deliberately not patchable; the owner never changes.
func (s *Store) PatchInfo(ctx context.Context, id primitive.ObjectID, p InfoPatch) (models.Room, error) {
	set := bson.M{"last_accessed": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.RoomType != nil {
		set["room_type"] = *p.RoomType
	}
	if p.IsPublic != nil {
		set["is_public"] = *p.IsPublic
	}
	if p.MaxUsers != nil {
		set["max_users"] = *p.MaxUsers
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var room models.Room
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Room{}, ErrNotFound
		}
		return models.Room{}, err
	}
	return room, nil
}

// TouchLastAccessed bumps the room's last_accessed stamp.
func (s *Store) TouchLastAccessed(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_accessed": time.Now().UTC()}})
	return err
}

// Delete removes the room document. Memberships are cascaded by the caller,
// not by the store.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
