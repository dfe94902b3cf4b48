// internal/app/store/roomcontent/contentstore.go
package contentstore

import (
	"context"
	"errors"
	"time"

	"github.com/codesync-app/codesync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("room content not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("room_content")}
}

// Get returns the content document for a room.
func (s *Store) Get(ctx context.Context, roomID primitive.ObjectID) (models.RoomContent, error) {
	var rc models.RoomContent
	err := s.c.FindOne(ctx, bson.M{"room_id": roomID}).Decode(&rc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.RoomContent{}, ErrNotFound
		}
		return models.RoomContent{}, err
	}
	return rc, nil
}

// SavePatch carries the sparse fields of a content save. Settings fields
// merge over the stored settings; omitted fields keep their value.
type SavePatch struct {
	ActiveFileID    *primitive.ObjectID
	Settings        *models.EditorSettings
	AutoSaveEnabled *bool
}

// Save applies a sparse patch, bumping the version counter on every call.
// The first save for a room creates the document at version 1.
func (s *Store) Save(ctx context.Context, roomID primitive.ObjectID, p SavePatch) (models.RoomContent, error) {
	now := time.Now().UTC()

	existing, err := s.Get(ctx, roomID)
	if err != nil && err != ErrNotFound {
		return models.RoomContent{}, err
	}

	rc := existing
	rc.RoomID = roomID
	rc.SavedAt = now
	rc.Version = existing.Version + 1

	if p.ActiveFileID != nil {
		rc.ActiveFileID = p.ActiveFileID
	}
	if p.Settings != nil {
		merged := existing.Settings
		if p.Settings.Theme != "" {
			merged.Theme = p.Settings.Theme
		}
		if p.Settings.FontSize != 0 {
			merged.FontSize = p.Settings.FontSize
		}
		if p.Settings.TabSize != 0 {
			merged.TabSize = p.Settings.TabSize
		}
		rc.Settings = merged
	}
	if p.AutoSaveEnabled != nil {
		rc.AutoSaveEnabled = *p.AutoSaveEnabled
	}

	if err == ErrNotFound {
		rc.ID = primitive.NewObjectID()
		if _, err := s.c.InsertOne(ctx, rc); err != nil {
			return models.RoomContent{}, err
		}
		return rc, nil
	}

	if _, err := s.c.ReplaceOne(ctx, bson.M{"_id": existing.ID}, rc); err != nil {
		return models.RoomContent{}, err
	}
	return rc, nil
}

// DeleteByRoom removes the content document for a room.
func (s *Store) DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"room_id": roomID})
	return err
}
