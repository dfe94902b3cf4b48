// internal/app/system/roomaccess/controller.go

// Package roomaccess is the core of the service: it reconciles the durable
// permission model (room memberships in the document store) with the
// ephemeral, session-based model of the realtime collaboration backend.
//
// Two rules shape everything here:
//
//  1. The durable membership record is authoritative. The realtime access
//     map is a one-way, best-effort projection of it and is never read back
//     as a decision input.
//  2. Side effects within one request always run durable-write first, then
//     realtime projection. A projection failure degrades collaboration but
//     never inverts a granted membership into a reported failure.
package roomaccess

import (
	"context"
	"errors"
	"fmt"
	"time"

	invitationstore "github.com/codesync-app/codesync/internal/app/store/invitations"
	membershipstore "github.com/codesync-app/codesync/internal/app/store/memberships"
	roomstore "github.com/codesync-app/codesync/internal/app/store/rooms"
	"github.com/codesync-app/codesync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RoomGetter is the slice of the room store the controller needs.
type RoomGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Room, error)
}

// MembershipStore is the slice of the membership store the controller needs.
type MembershipStore interface {
	Get(ctx context.Context, roomID, userID primitive.ObjectID) (models.RoomMembership, error)
	Upsert(ctx context.Context, roomID, userID primitive.ObjectID, role string, perms []string) (models.RoomMembership, error)
	Patch(ctx context.Context, roomID, userID primitive.ObjectID, role *string, perms []string) (models.RoomMembership, error)
	TouchLastActive(ctx context.Context, roomID, userID primitive.ObjectID) error
	CountByRoom(ctx context.Context, roomID primitive.ObjectID) (int64, error)
}

// InvitationStore is the slice of the invitation store the controller needs.
type InvitationStore interface {
	GetByToken(ctx context.Context, token string) (models.Invitation, error)
	GetPendingForUser(ctx context.Context, roomID primitive.ObjectID, email string) (models.Invitation, error)
	MarkAccepted(ctx context.Context, id primitive.ObjectID) error
}

// AccessProjector pushes a single user's grant to the realtime backend.
type AccessProjector interface {
	Project(ctx context.Context, roomID, userID string, perms []string) error
}

// Identity is the verified caller, as resolved by the session layer. The
// controller never accepts a caller-asserted id.
type Identity struct {
	UserID primitive.ObjectID
	Email  string
}

// Grant is the outcome of a successful access request.
type Grant struct {
	Role        string
	Permissions []string

	// AlreadyMember marks the fast path: the caller held a membership
	// before this request.
	AlreadyMember bool

	// Degraded is set when the durable grant succeeded but the realtime
	// projection did not. The mirror catches up on the next projection.
	Degraded bool
}

// Controller decides and records room access.
type Controller struct {
	rooms     RoomGetter
	members   MembershipStore
	invites   InvitationStore
	projector AccessProjector
	log       *zap.Logger

	// now is stubbed in tests for expiry checks.
	now func() time.Time
}

func NewController(rooms RoomGetter, members MembershipStore, invites InvitationStore, projector AccessProjector, logger *zap.Logger) *Controller {
	return &Controller{
		rooms:     rooms,
		members:   members,
		invites:   invites,
		projector: projector,
		log:       logger,
		now:       time.Now,
	}
}

// RequestAccess decides whether ident may enter roomID, evaluated in order:
// existing-member fast path, public self-join, invitation redemption.
// inviteToken is optional; when present it takes precedence over an
// email-matched invitation, since presenting a token is a deliberate act.
func (c *Controller) RequestAccess(ctx context.Context, ident Identity, roomID primitive.ObjectID, inviteToken string) (Grant, error) {
	room, err := c.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomstore.ErrNotFound) {
			return Grant{}, ErrRoomNotFound
		}
		return Grant{}, fmt.Errorf("load room: %w", err)
	}

	// 1. Existing member: grant immediately from the stored record and skip
	// invitation evaluation entirely.
	existing, err := c.members.Get(ctx, roomID, ident.UserID)
	if err == nil {
		if err := c.members.TouchLastActive(ctx, roomID, ident.UserID); err != nil {
			c.log.Warn("refresh last_active_at failed", zap.Error(err))
		}
		g := Grant{Role: existing.Role, Permissions: existing.Permissions, AlreadyMember: true}
		g.Degraded = c.project(ctx, roomID, ident.UserID, existing.Permissions)
		return g, nil
	}
	if !errors.Is(err, membershipstore.ErrNotFound) {
		return Grant{}, fmt.Errorf("load membership: %w", err)
	}

	// 2. Public room: self-join as a read-only student. Public access never
	// grants write, even when the caller also holds a write invitation.
	if room.IsPublic {
		if room.MaxUsers > 0 {
			n, err := c.members.CountByRoom(ctx, roomID)
			if err != nil {
				return Grant{}, fmt.Errorf("count memberships: %w", err)
			}
			// Best-effort cap: the count and the insert below are separate
			// document operations, so concurrent joiners can briefly
			// overshoot. Accepted; see DESIGN.md.
			if n >= int64(room.MaxUsers) {
				return Grant{}, ErrRoomFull
			}
		}
		return c.admit(ctx, roomID, ident.UserID, models.RoleStudent, []string{models.PermRead})
	}

	// 3. Private room: redeem an invitation.
	inv, err := c.resolveInvitation(ctx, ident, roomID, inviteToken)
	if err != nil {
		return Grant{}, err
	}
	if inv.Status != models.InvitationPending {
		return Grant{}, ErrInvitationConsumed
	}
	if inv.Expired(c.now()) {
		return Grant{}, ErrInvitationExpired
	}

	perms := inv.Permissions
	if len(perms) == 0 {
		perms = []string{models.PermRead}
	}
	grant, err := c.admit(ctx, roomID, ident.UserID, inv.Role, perms)
	if err != nil {
		return Grant{}, err
	}
	// Redemption is the only path that mutates invitation status, and it
	// happens after the membership write so a store failure cannot consume
	// an invitation without granting access.
	if err := c.invites.MarkAccepted(ctx, inv.ID); err != nil {
		c.log.Error("mark invitation accepted failed",
			zap.String("invitation_id", inv.ID.Hex()),
			zap.Error(err))
	}
	return grant, nil
}

// resolveInvitation picks the invitation to redeem. An explicit token wins
// over an email match; a token for some other room does not grant here.
func (c *Controller) resolveInvitation(ctx context.Context, ident Identity, roomID primitive.ObjectID, token string) (models.Invitation, error) {
	if token != "" {
		inv, err := c.invites.GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, invitationstore.ErrNotFound) {
				return models.Invitation{}, ErrNoInvitation
			}
			return models.Invitation{}, fmt.Errorf("lookup invitation by token: %w", err)
		}
		if inv.RoomID != roomID {
			return models.Invitation{}, ErrNoInvitation
		}
		return inv, nil
	}

	inv, err := c.invites.GetPendingForUser(ctx, roomID, ident.Email)
	if err != nil {
		if errors.Is(err, invitationstore.ErrNotFound) {
			return models.Invitation{}, ErrNoInvitation
		}
		return models.Invitation{}, fmt.Errorf("lookup invitation by email: %w", err)
	}
	return inv, nil
}

// admit upserts the membership and projects it, durable write first.
func (c *Controller) admit(ctx context.Context, roomID, userID primitive.ObjectID, role string, perms []string) (Grant, error) {
	m, err := c.members.Upsert(ctx, roomID, userID, role, perms)
	if err != nil {
		return Grant{}, fmt.Errorf("upsert membership: %w", err)
	}
	g := Grant{Role: m.Role, Permissions: m.Permissions}
	g.Degraded = c.project(ctx, roomID, userID, m.Permissions)
	return g, nil
}

// project pushes the grant and reports (not returns) failure.
func (c *Controller) project(ctx context.Context, roomID, userID primitive.ObjectID, perms []string) (degraded bool) {
	if err := c.projector.Project(ctx, roomID.Hex(), userID.Hex(), perms); err != nil {
		return true
	}
	return false
}

// AddMember records a membership decided outside the join gate: the owner
// sharing a public room with an account that already exists. New members
// count against the capacity cap; an existing membership is rewritten in
// place and bypasses the cap, like the join fast path.
func (c *Controller) AddMember(ctx context.Context, roomID, userID primitive.ObjectID, role string, perms []string) (Grant, error) {
	room, err := c.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomstore.ErrNotFound) {
			return Grant{}, ErrRoomNotFound
		}
		return Grant{}, fmt.Errorf("load room: %w", err)
	}

	_, err = c.members.Get(ctx, roomID, userID)
	switch {
	case err == nil:
		g, err := c.admit(ctx, roomID, userID, role, perms)
		if err != nil {
			return Grant{}, err
		}
		g.AlreadyMember = true
		return g, nil
	case errors.Is(err, membershipstore.ErrNotFound):
	default:
		return Grant{}, fmt.Errorf("load membership: %w", err)
	}

	if room.MaxUsers > 0 {
		n, err := c.members.CountByRoom(ctx, roomID)
		if err != nil {
			return Grant{}, fmt.Errorf("count memberships: %w", err)
		}
		if n >= int64(room.MaxUsers) {
			return Grant{}, ErrRoomFull
		}
	}
	return c.admit(ctx, roomID, userID, role, perms)
}

// UpdateMembership lets the room owner change another member's role or
// permissions. The owner's own role can never be changed away from owner.
func (c *Controller) UpdateMembership(ctx context.Context, actorID, roomID, targetID primitive.ObjectID, role *string, perms []string) (models.RoomMembership, bool, error) {
	room, err := c.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomstore.ErrNotFound) {
			return models.RoomMembership{}, false, ErrRoomNotFound
		}
		return models.RoomMembership{}, false, fmt.Errorf("load room: %w", err)
	}
	if room.OwnerID != actorID {
		return models.RoomMembership{}, false, ErrNotOwner
	}
	if targetID == room.OwnerID && role != nil && *role != models.RoleOwner {
		return models.RoomMembership{}, false, ErrCannotDemoteOwner
	}

	m, err := c.members.Patch(ctx, roomID, targetID, role, perms)
	if err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			return models.RoomMembership{}, false, ErrMembershipNotFound
		}
		return models.RoomMembership{}, false, fmt.Errorf("patch membership: %w", err)
	}

	degraded := c.project(ctx, roomID, targetID, m.Permissions)
	return m, degraded, nil
}
