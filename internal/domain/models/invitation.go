// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation statuses. An invitation moves pending → accepted exactly once
// and never reverts. Expired invitations keep their pending status and age
// out logically; redemption checks ExpiresAt.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
)

// Invitation is a single-use, expiring credential granting a role and
// permission set to an email address for one room. At most one pending
// invitation exists per (room_id, email); re-inviting the same address
// overwrites the pending document in place.
type Invitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID      primitive.ObjectID `bson:"room_id" json:"room_id"`
	Email       string             `bson:"email" json:"email"`
	EmailCI     string             `bson:"email_ci" json:"-"`
	Role        string             `bson:"role" json:"role"`
	Permissions []string           `bson:"permissions" json:"permissions"`

	// Token is the sole credential for the join-by-link flow. Random UUID,
	// not derivable from room, email, or time.
	Token  string `bson:"token" json:"-"`
	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

// Expired reports whether the invitation's deadline has passed at now.
func (inv Invitation) Expired(now time.Time) bool {
	return inv.ExpiresAt.Before(now)
}
