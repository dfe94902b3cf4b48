// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomMembership is the authoritative record of a user's role and permissions
// within a room. Exactly one document per (room_id, user_id); a unique index
// backs the upsert-only contract.
type RoomMembership struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID      primitive.ObjectID `bson:"room_id" json:"room_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role        string             `bson:"role" json:"role"`
	Permissions []string           `bson:"permissions" json:"permissions"` // "read", "write"

	JoinedAt     time.Time `bson:"joined_at" json:"joined_at"`
	LastActiveAt time.Time `bson:"last_active_at" json:"last_active_at"`
}

// CanWrite reports whether the membership grants write access.
func (m RoomMembership) CanWrite() bool {
	return HasWrite(m.Permissions)
}
