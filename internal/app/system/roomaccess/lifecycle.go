// internal/app/system/roomaccess/lifecycle.go
package roomaccess

import (
	"context"
	"errors"
	"fmt"

	membershipstore "github.com/codesync-app/codesync/internal/app/store/memberships"
	roomstore "github.com/codesync-app/codesync/internal/app/store/rooms"
	"github.com/codesync-app/codesync/internal/app/system/realtime"
	"github.com/codesync-app/codesync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RoomStore is the slice of the room store the lifecycle manager needs.
type RoomStore interface {
	Create(ctx context.Context, room models.Room) (models.Room, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Room, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Room, error)
	PatchInfo(ctx context.Context, id primitive.ObjectID, p roomstore.InfoPatch) (models.Room, error)
	TouchLastAccessed(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// RoomCascader removes one room's documents from an auxiliary collection.
// Content, file, and message stores all satisfy it.
type RoomCascader interface {
	DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) error
}

// RealtimeAdmin is the room-level surface of the realtime backend.
type RealtimeAdmin interface {
	UpsertRoom(ctx context.Context, roomID string, p realtime.RoomParams) error
	DeleteRoom(ctx context.Context, roomID string) error
}

// MembershipCascader extends the controller's membership surface with the
// bulk delete the lifecycle manager needs.
type MembershipCascader interface {
	MembershipStore
	DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) error
}

// CreateRoomParams carries the caller's room settings. OwnerID always comes
// from the verified session identity.
type CreateRoomParams struct {
	Name        string
	Description string
	OwnerID     primitive.ObjectID
	RoomType    string
	IsPublic    bool
	MaxUsers    int
}

// Manager owns room lifecycle: creation with realtime provisioning, owner
// gated updates, and deletion with cascade.
type Manager struct {
	rooms    RoomStore
	members  MembershipCascader
	rt       RealtimeAdmin
	cascades []RoomCascader
	log      *zap.Logger
}

// NewManager wires the lifecycle manager. cascades lists the per-room
// auxiliary stores cleaned up on deletion.
func NewManager(rooms RoomStore, members MembershipCascader, rt RealtimeAdmin, logger *zap.Logger, cascades ...RoomCascader) *Manager {
	return &Manager{
		rooms:    rooms,
		members:  members,
		rt:       rt,
		cascades: cascades,
		log:      logger,
	}
}

// defaultAccesses picks the realtime room's default grant from its durable
// settings. Mentor rooms give unknown joiners read plus presence, public
// collaborative rooms give write, private rooms give nothing.
func defaultAccesses(roomType string, isPublic bool) []string {
	switch {
	case roomType == models.RoomTypeMentor:
		return realtime.GrantReadPresence
	case isPublic:
		return realtime.GrantWrite
	default:
		return []string{}
	}
}

// CreateRoom persists the room, records the creator as owner with write
// access, and provisions the realtime room. If provisioning fails the durable
// writes are rolled back so no room exists that cannot host a session.
func (m *Manager) CreateRoom(ctx context.Context, p CreateRoomParams) (models.Room, error) {
	if p.RoomType == "" {
		p.RoomType = models.RoomTypeCollab
	}
	if !models.IsValidRoomType(p.RoomType) {
		return models.Room{}, fmt.Errorf("invalid room type %q", p.RoomType)
	}

	room, err := m.rooms.Create(ctx, models.Room{
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		RoomType:    p.RoomType,
		IsPublic:    p.IsPublic,
		MaxUsers:    p.MaxUsers,
	})
	if err != nil {
		return models.Room{}, fmt.Errorf("create room: %w", err)
	}

	if _, err := m.members.Upsert(ctx, room.ID, p.OwnerID, models.RoleOwner, []string{models.PermRead, models.PermWrite}); err != nil {
		if derr := m.rooms.Delete(ctx, room.ID); derr != nil {
			m.log.Error("room cleanup after membership failure failed",
				zap.String("room_id", room.ID.Hex()), zap.Error(derr))
		}
		return models.Room{}, fmt.Errorf("create owner membership: %w", err)
	}

	params := realtime.RoomParams{
		Metadata: map[string]string{
			"name":     room.Name,
			"roomType": room.RoomType,
		},
		DefaultAccesses: defaultAccesses(room.RoomType, room.IsPublic),
		UsersAccesses: map[string][]string{
			p.OwnerID.Hex(): realtime.GrantWrite,
		},
	}
	if err := m.rt.UpsertRoom(ctx, room.ID.Hex(), params); err != nil {
		// Creation is all or nothing: without a realtime room the grant
		// would be unusable, so undo the durable writes.
		if derr := m.members.DeleteByRoom(ctx, room.ID); derr != nil {
			m.log.Error("membership cleanup after provisioning failure failed",
				zap.String("room_id", room.ID.Hex()), zap.Error(derr))
		}
		if derr := m.rooms.Delete(ctx, room.ID); derr != nil {
			m.log.Error("room cleanup after provisioning failure failed",
				zap.String("room_id", room.ID.Hex()), zap.Error(derr))
		}
		return models.Room{}, fmt.Errorf("%w: %v", ErrRealtimeProvision, err)
	}

	return room, nil
}

// DeleteRoom removes the room and everything scoped to it. Only the owner may
// delete. The durable deletes run first; the realtime delete is best effort
// and a failure leaves only an orphaned backend room behind.
func (m *Manager) DeleteRoom(ctx context.Context, actorID, roomID primitive.ObjectID) (degraded bool, err error) {
	room, err := m.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomstore.ErrNotFound) {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("load room: %w", err)
	}
	if room.OwnerID != actorID {
		return false, ErrNotOwner
	}

	if err := m.rooms.Delete(ctx, roomID); err != nil {
		if errors.Is(err, roomstore.ErrNotFound) {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("delete room: %w", err)
	}
	if err := m.members.DeleteByRoom(ctx, roomID); err != nil {
		m.log.Error("membership cascade failed",
			zap.String("room_id", roomID.Hex()), zap.Error(err))
	}
	for _, c := range m.cascades {
		if err := c.DeleteByRoom(ctx, roomID); err != nil {
			m.log.Error("room cascade failed",
				zap.String("room_id", roomID.Hex()), zap.Error(err))
		}
	}

	if err := m.rt.DeleteRoom(ctx, roomID.Hex()); err != nil {
		m.log.Warn("realtime room delete failed",
			zap.String("room_id", roomID.Hex()), zap.Error(err))
		return true, nil
	}
	return false, nil
}

// UpdateRoomInfo patches room settings, owner only. When visibility or type
// change, the realtime room's default accesses are re-pushed so the mirror
// follows the durable record.
func (m *Manager) UpdateRoomInfo(ctx context.Context, actorID, roomID primitive.ObjectID, p roomstore.InfoPatch) (models.Room, bool, error) {
	room, err := m.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomstore.ErrNotFound) {
			return models.Room{}, false, ErrRoomNotFound
		}
		return models.Room{}, false, fmt.Errorf("load room: %w", err)
	}
	if room.OwnerID != actorID {
		return models.Room{}, false, ErrNotOwner
	}
	if p.RoomType != nil && !models.IsValidRoomType(*p.RoomType) {
		return models.Room{}, false, fmt.Errorf("invalid room type %q", *p.RoomType)
	}

	updated, err := m.rooms.PatchInfo(ctx, roomID, p)
	if err != nil {
		if errors.Is(err, roomstore.ErrNotFound) {
			return models.Room{}, false, ErrRoomNotFound
		}
		return models.Room{}, false, fmt.Errorf("patch room: %w", err)
	}

	degraded := false
	if p.IsPublic != nil || p.RoomType != nil || p.Name != nil {
		params := realtime.RoomParams{
			Metadata: map[string]string{
				"name":     updated.Name,
				"roomType": updated.RoomType,
			},
			DefaultAccesses: defaultAccesses(updated.RoomType, updated.IsPublic),
		}
		if err := m.rt.UpsertRoom(ctx, roomID.Hex(), params); err != nil {
			m.log.Warn("realtime room update failed",
				zap.String("room_id", roomID.Hex()), zap.Error(err))
			degraded = true
		}
	}
	return updated, degraded, nil
}

// RequireOwner loads the room and verifies actorID owns it.
func (m *Manager) RequireOwner(ctx context.Context, actorID, roomID primitive.ObjectID) (models.Room, error) {
	room, err := m.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomstore.ErrNotFound) {
			return models.Room{}, ErrRoomNotFound
		}
		return models.Room{}, fmt.Errorf("load room: %w", err)
	}
	if room.OwnerID != actorID {
		return models.Room{}, ErrNotOwner
	}
	return room, nil
}

// RequireMember loads the caller's membership, or ErrMembershipNotFound.
func (m *Manager) RequireMember(ctx context.Context, roomID, userID primitive.ObjectID) (models.RoomMembership, error) {
	mem, err := m.members.Get(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			return models.RoomMembership{}, ErrMembershipNotFound
		}
		return models.RoomMembership{}, fmt.Errorf("load membership: %w", err)
	}
	return mem, nil
}
