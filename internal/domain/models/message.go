// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageSegment is one typed chunk of a chat message ("text", "code", …).
type MessageSegment struct {
	Type    string `bson:"type" json:"type"`
	Content string `bson:"content" json:"content"`
}

// Message is a room chat message. UserID is nil for assistant messages.
type Message struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RoomID    primitive.ObjectID  `bson:"room_id" json:"room_id"`
	UserID    *primitive.ObjectID `bson:"user_id" json:"user_id"`
	Segments  []MessageSegment    `bson:"segments" json:"segments"`
	IsAI      bool                `bson:"is_ai" json:"is_ai"`
	ReplyToID *primitive.ObjectID `bson:"reply_to_id,omitempty" json:"reply_to_id,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EditedAt  *time.Time `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
}
