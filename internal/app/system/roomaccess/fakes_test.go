// internal/app/system/roomaccess/fakes_test.go
package roomaccess

import (
	"context"
	"sync"
	"time"

	invitationstore "github.com/codesync-app/codesync/internal/app/store/invitations"
	membershipstore "github.com/codesync-app/codesync/internal/app/store/memberships"
	roomstore "github.com/codesync-app/codesync/internal/app/store/rooms"
	"github.com/codesync-app/codesync/internal/app/system/realtime"
	"github.com/codesync-app/codesync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory store fakes so controller and manager behavior can be tested
// without a database.

type fakeRooms struct {
	mu    sync.Mutex
	rooms map[primitive.ObjectID]models.Room

	failCreate error
	failDelete error
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{rooms: map[primitive.ObjectID]models.Room{}}
}

func (f *fakeRooms) Create(_ context.Context, room models.Room) (models.Room, error) {
	if f.failCreate != nil {
		return models.Room{}, f.failCreate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	room.ID = primitive.NewObjectID()
	room.CreatedAt = time.Now().UTC()
	room.LastAccessed = room.CreatedAt
	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeRooms) GetByID(_ context.Context, id primitive.ObjectID) (models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return models.Room{}, roomstore.ErrNotFound
	}
	return room, nil
}

func (f *fakeRooms) ListByOwner(_ context.Context, ownerID primitive.ObjectID) ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Room
	for _, r := range f.rooms {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRooms) PatchInfo(_ context.Context, id primitive.ObjectID, p roomstore.InfoPatch) (models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return models.Room{}, roomstore.ErrNotFound
	}
	if p.Name != nil {
		room.Name = *p.Name
	}
	if p.Description != nil {
		room.Description = *p.Description
	}
	if p.RoomType != nil {
		room.RoomType = *p.RoomType
	}
	if p.IsPublic != nil {
		room.IsPublic = *p.IsPublic
	}
	if p.MaxUsers != nil {
		room.MaxUsers = *p.MaxUsers
	}
	room.LastAccessed = time.Now().UTC()
	f.rooms[id] = room
	return room, nil
}

func (f *fakeRooms) TouchLastAccessed(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return roomstore.ErrNotFound
	}
	room.LastAccessed = time.Now().UTC()
	f.rooms[id] = room
	return nil
}

func (f *fakeRooms) Delete(_ context.Context, id primitive.ObjectID) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; !ok {
		return roomstore.ErrNotFound
	}
	delete(f.rooms, id)
	return nil
}

type memberKey struct {
	room primitive.ObjectID
	user primitive.ObjectID
}

type fakeMembers struct {
	mu      sync.Mutex
	members map[memberKey]models.RoomMembership

	failUpsert error
	upserts    int
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{members: map[memberKey]models.RoomMembership{}}
}

func (f *fakeMembers) Get(_ context.Context, roomID, userID primitive.ObjectID) (models.RoomMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberKey{roomID, userID}]
	if !ok {
		return models.RoomMembership{}, membershipstore.ErrNotFound
	}
	return m, nil
}

func (f *fakeMembers) Upsert(_ context.Context, roomID, userID primitive.ObjectID, role string, perms []string) (models.RoomMembership, error) {
	if f.failUpsert != nil {
		return models.RoomMembership{}, f.failUpsert
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	key := memberKey{roomID, userID}
	m, ok := f.members[key]
	if !ok {
		m = models.RoomMembership{
			ID:       primitive.NewObjectID(),
			RoomID:   roomID,
			UserID:   userID,
			JoinedAt: time.Now().UTC(),
		}
	}
	m.Role = role
	m.Permissions = perms
	m.LastActiveAt = time.Now().UTC()
	f.members[key] = m
	return m, nil
}

func (f *fakeMembers) Patch(_ context.Context, roomID, userID primitive.ObjectID, role *string, perms []string) (models.RoomMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey{roomID, userID}
	m, ok := f.members[key]
	if !ok {
		return models.RoomMembership{}, membershipstore.ErrNotFound
	}
	if role != nil {
		m.Role = *role
	}
	if perms != nil {
		m.Permissions = perms
	}
	f.members[key] = m
	return m, nil
}

func (f *fakeMembers) TouchLastActive(_ context.Context, roomID, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey{roomID, userID}
	m, ok := f.members[key]
	if !ok {
		return membershipstore.ErrNotFound
	}
	m.LastActiveAt = time.Now().UTC()
	f.members[key] = m
	return nil
}

func (f *fakeMembers) CountByRoom(_ context.Context, roomID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.members {
		if k.room == roomID {
			n++
		}
	}
	return n, nil
}

func (f *fakeMembers) DeleteByRoom(_ context.Context, roomID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.members {
		if k.room == roomID {
			delete(f.members, k)
		}
	}
	return nil
}

type fakeInvites struct {
	mu      sync.Mutex
	invites map[primitive.ObjectID]models.Invitation
}

func newFakeInvites() *fakeInvites {
	return &fakeInvites{invites: map[primitive.ObjectID]models.Invitation{}}
}

func (f *fakeInvites) add(inv models.Invitation) models.Invitation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv.ID.IsZero() {
		inv.ID = primitive.NewObjectID()
	}
	f.invites[inv.ID] = inv
	return inv
}

func (f *fakeInvites) GetByToken(_ context.Context, token string) (models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.Token == token {
			return inv, nil
		}
	}
	return models.Invitation{}, invitationstore.ErrNotFound
}

func (f *fakeInvites) GetPendingForUser(_ context.Context, roomID primitive.ObjectID, email string) (models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.RoomID == roomID && inv.EmailCI == email && inv.Status == models.InvitationPending {
			return inv, nil
		}
	}
	return models.Invitation{}, invitationstore.ErrNotFound
}

func (f *fakeInvites) MarkAccepted(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[id]
	if !ok {
		return invitationstore.ErrNotFound
	}
	inv.Status = models.InvitationAccepted
	f.invites[id] = inv
	return nil
}

// fakeProjector records per-user projections and can be told to fail.
type fakeProjector struct {
	mu     sync.Mutex
	grants map[string][]string
	fail   error
	calls  int
}

func newFakeProjector() *fakeProjector {
	return &fakeProjector{grants: map[string][]string{}}
}

func (f *fakeProjector) Project(_ context.Context, roomID, userID string, perms []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return f.fail
	}
	f.grants[roomID+"/"+userID] = perms
	return nil
}

// fakeRealtime records room-level backend calls for the lifecycle tests.
type fakeRealtime struct {
	mu         sync.Mutex
	rooms      map[string]realtime.RoomParams
	failUpsert error
	failDelete error
	deletes    []string
}

func newFakeRealtime() *fakeRealtime {
	return &fakeRealtime{rooms: map[string]realtime.RoomParams{}}
}

func (f *fakeRealtime) UpsertRoom(_ context.Context, roomID string, p realtime.RoomParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert != nil {
		return f.failUpsert
	}
	f.rooms[roomID] = p
	return nil
}

func (f *fakeRealtime) DeleteRoom(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deletes = append(f.deletes, roomID)
	delete(f.rooms, roomID)
	return nil
}

type fakeCascader struct {
	mu      sync.Mutex
	deleted []primitive.ObjectID
}

func (f *fakeCascader) DeleteByRoom(_ context.Context, roomID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, roomID)
	return nil
}
