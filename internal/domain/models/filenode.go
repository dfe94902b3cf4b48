// internal/domain/models/filenode.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File node types.
const (
	NodeFile   = "file"
	NodeFolder = "folder"
)

// FileNode is one entry in a room's file tree. ParentID is nil for roots.
type FileNode struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RoomID    primitive.ObjectID  `bson:"room_id" json:"room_id"`
	ParentID  *primitive.ObjectID `bson:"parent_id" json:"parent_id"`
	Name      string              `bson:"name" json:"name"`
	Type      string              `bson:"type" json:"type"` // "file" | "folder"
	Extension string              `bson:"extension,omitempty" json:"extension,omitempty"`

	CreatedBy      primitive.ObjectID  `bson:"created_by" json:"created_by"`
	LastModifiedBy *primitive.ObjectID `bson:"last_modified_by,omitempty" json:"last_modified_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FileContent stores the body of a file node, one document per file.
// Execution results from the external runner are cached alongside.
type FileContent struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FileID   primitive.ObjectID `bson:"file_id" json:"file_id"`
	Content  string             `bson:"content" json:"content"`
	Language string             `bson:"language,omitempty" json:"language,omitempty"`

	Output          string `bson:"output,omitempty" json:"output,omitempty"`
	ExecError       string `bson:"exec_error,omitempty" json:"exec_error,omitempty"`
	ExecutionTimeMS int64  `bson:"execution_time_ms,omitempty" json:"execution_time_ms,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
