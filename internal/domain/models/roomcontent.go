// internal/domain/models/roomcontent.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EditorSettings are per-room editor preferences. All fields are optional;
// a sparse patch merges over the stored values.
type EditorSettings struct {
	Theme    string `bson:"theme,omitempty" json:"theme,omitempty"`
	FontSize int    `bson:"font_size,omitempty" json:"font_size,omitempty"`
	TabSize  int    `bson:"tab_size,omitempty" json:"tab_size,omitempty"`
}

// RoomContent holds the per-room editor state. Version increments on every
// save; clients use it to detect staleness, it is never used to reject
// conflicting writes.
type RoomContent struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RoomID       primitive.ObjectID  `bson:"room_id" json:"room_id"`
	ActiveFileID *primitive.ObjectID `bson:"active_file_id,omitempty" json:"active_file_id,omitempty"`
	Settings     EditorSettings      `bson:"settings,omitempty" json:"settings"`

	Version         int       `bson:"version" json:"version"`
	SavedAt         time.Time `bson:"saved_at" json:"saved_at"`
	AutoSaveEnabled bool      `bson:"auto_save_enabled,omitempty" json:"auto_save_enabled"`
}
