// internal/app/store/invitations/invitationstore.go

// Package invitationstore issues and redeems single-use, time-bounded
// invitation tokens. The token is the sole credential for the join-by-link
// flow: a random UUID, not derivable from room, email, or time.
package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/codesync-app/codesync/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultTTL is how long an invitation stays redeemable (one week, matching
// the share-link lifetime the clients advertise).
const DefaultTTL = 7 * 24 * time.Hour

var ErrNotFound = errors.New("invitation not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invitations")}
}

// CreateOrRefresh issues an invitation for (roomID, email). If a pending
// invitation already exists for the pair, its role, permissions, token, and
// expiry are overwritten in place — the same document is re-issued rather
// than accumulating stale pending invites. Accepted invitations are never
// touched. Returns the live invitation including its token.
func (s *Store) CreateOrRefresh(ctx context.Context, roomID primitive.ObjectID, email, role string, perms []string, ttl time.Duration) (models.Invitation, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	emailCI := text.Fold(email)
	token := uuid.NewString()

	var existing models.Invitation
	err := s.c.FindOne(ctx, bson.M{
		"room_id":  roomID,
		"email_ci": emailCI,
		"status":   models.InvitationPending,
	}).Decode(&existing)

	switch {
	case err == nil:
		set := bson.M{
			"role":        role,
			"permissions": perms,
			"token":       token,
			"created_at":  now,
			"expires_at":  now.Add(ttl),
		}
		if _, err := s.c.UpdateByID(ctx, existing.ID, bson.M{"$set": set}); err != nil {
			return models.Invitation{}, err
		}
		existing.Role = role
		existing.Permissions = perms
		existing.Token = token
		existing.CreatedAt = now
		existing.ExpiresAt = now.Add(ttl)
		return existing, nil

	case err == mongo.ErrNoDocuments:
		inv := models.Invitation{
			ID:          primitive.NewObjectID(),
			RoomID:      roomID,
			Email:       email,
			EmailCI:     emailCI,
			Role:        role,
			Permissions: perms,
			Token:       token,
			Status:      models.InvitationPending,
			CreatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		}
		if _, err := s.c.InsertOne(ctx, inv); err != nil {
			// A concurrent issuer won the insert; the partial unique index on
			// (room_id, email_ci, pending) turned the race into a dup error.
			// Refresh the winner's document instead.
			if wafflemongo.IsDup(err) {
				return s.CreateOrRefresh(ctx, roomID, email, role, perms, ttl)
			}
			return models.Invitation{}, err
		}
		return inv, nil

	default:
		return models.Invitation{}, err
	}
}

// GetByToken looks up an invitation by its token regardless of status, so
// redemption can distinguish "consumed" from "never existed".
func (s *Store) GetByToken(ctx context.Context, token string) (models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Invitation{}, ErrNotFound
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

// GetPendingForUser finds the pending invitation addressed to email for the
// room. Only pending invitations match; consumed ones are invisible here.
func (s *Store) GetPendingForUser(ctx context.Context, roomID primitive.ObjectID, email string) (models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOne(ctx, bson.M{
		"room_id":  roomID,
		"email_ci": text.Fold(email),
		"status":   models.InvitationPending,
	}).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Invitation{}, ErrNotFound
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

// DeleteByRoom removes every invitation for a room. Room deletion cascade.
func (s *Store) DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"room_id": roomID})
	return err
}

// MarkAccepted transitions an invitation to accepted. Idempotent: marking an
// already-accepted invitation is a no-op, not an error, so retried requests
// do not fail. The transition never reverses.
func (s *Store) MarkAccepted(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.InvitationAccepted}})
	return err
}
