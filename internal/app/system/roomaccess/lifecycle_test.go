// internal/app/system/roomaccess/lifecycle_test.go
package roomaccess

import (
	"context"
	"errors"
	"reflect"
	"testing"

	roomstore "github.com/codesync-app/codesync/internal/app/store/rooms"
	"github.com/codesync-app/codesync/internal/app/system/realtime"
	"github.com/codesync-app/codesync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type lifecycleEnv struct {
	rooms   *fakeRooms
	members *fakeMembers
	rt      *fakeRealtime
	cascade *fakeCascader
	mgr     *Manager
}

func newLifecycleEnv() *lifecycleEnv {
	env := &lifecycleEnv{
		rooms:   newFakeRooms(),
		members: newFakeMembers(),
		rt:      newFakeRealtime(),
		cascade: &fakeCascader{},
	}
	env.mgr = NewManager(env.rooms, env.members, env.rt, zap.NewNop(), env.cascade)
	return env
}

func TestCreateRoom(t *testing.T) {
	env := newLifecycleEnv()
	ownerID := primitive.NewObjectID()

	room, err := env.mgr.CreateRoom(context.Background(), CreateRoomParams{
		Name:     "pairing",
		OwnerID:  ownerID,
		RoomType: models.RoomTypeCollab,
		IsPublic: true,
	})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	m, err := env.members.Get(context.Background(), room.ID, ownerID)
	if err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if m.Role != models.RoleOwner || !models.HasWrite(m.Permissions) {
		t.Errorf("owner membership = %+v, want owner with write", m)
	}

	p, ok := env.rt.rooms[room.ID.Hex()]
	if !ok {
		t.Fatal("realtime room not provisioned")
	}
	if !reflect.DeepEqual(p.DefaultAccesses, realtime.GrantWrite) {
		t.Errorf("public collab defaults = %v, want %v", p.DefaultAccesses, realtime.GrantWrite)
	}
	if !reflect.DeepEqual(p.UsersAccesses[ownerID.Hex()], realtime.GrantWrite) {
		t.Errorf("owner access = %v, want %v", p.UsersAccesses[ownerID.Hex()], realtime.GrantWrite)
	}
}

func TestCreateRoomDefaultType(t *testing.T) {
	env := newLifecycleEnv()

	room, err := env.mgr.CreateRoom(context.Background(), CreateRoomParams{
		Name:    "untyped",
		OwnerID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.RoomType != models.RoomTypeCollab {
		t.Errorf("RoomType = %q, want collaborative default", room.RoomType)
	}
}

func TestCreateRoomInvalidType(t *testing.T) {
	env := newLifecycleEnv()

	_, err := env.mgr.CreateRoom(context.Background(), CreateRoomParams{
		Name:     "bad",
		OwnerID:  primitive.NewObjectID(),
		RoomType: "arena",
	})
	if err == nil {
		t.Fatal("want error for invalid room type")
	}
}

func TestCreateRoomDefaultAccessByType(t *testing.T) {
	tests := []struct {
		name     string
		roomType string
		isPublic bool
		want     []string
	}{
		{"mentor room", models.RoomTypeMentor, false, realtime.GrantReadPresence},
		{"public collab", models.RoomTypeCollab, true, realtime.GrantWrite},
		{"private collab", models.RoomTypeCollab, false, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newLifecycleEnv()
			room, err := env.mgr.CreateRoom(context.Background(), CreateRoomParams{
				Name:     tt.name,
				OwnerID:  primitive.NewObjectID(),
				RoomType: tt.roomType,
				IsPublic: tt.isPublic,
			})
			if err != nil {
				t.Fatalf("CreateRoom: %v", err)
			}
			got := env.rt.rooms[room.ID.Hex()].DefaultAccesses
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DefaultAccesses = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateRoomProvisioningFailureRollsBack(t *testing.T) {
	env := newLifecycleEnv()
	env.rt.failUpsert = errors.New("backend down")
	ownerID := primitive.NewObjectID()

	_, err := env.mgr.CreateRoom(context.Background(), CreateRoomParams{
		Name:     "doomed",
		OwnerID:  ownerID,
		RoomType: models.RoomTypeCollab,
	})
	if !errors.Is(err, ErrRealtimeProvision) {
		t.Fatalf("err = %v, want ErrRealtimeProvision", err)
	}

	rooms, _ := env.rooms.ListByOwner(context.Background(), ownerID)
	if len(rooms) != 0 {
		t.Errorf("rooms = %d after rollback, want 0", len(rooms))
	}
	if len(env.members.members) != 0 {
		t.Errorf("memberships = %d after rollback, want 0", len(env.members.members))
	}
}

func TestDeleteRoom(t *testing.T) {
	env := newLifecycleEnv()
	ownerID := primitive.NewObjectID()
	room, err := env.mgr.CreateRoom(context.Background(), CreateRoomParams{Name: "r", OwnerID: ownerID, RoomType: models.RoomTypeCollab})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("non-owner rejected", func(t *testing.T) {
		_, err := env.mgr.DeleteRoom(context.Background(), primitive.NewObjectID(), room.ID)
		if !errors.Is(err, ErrNotOwner) {
			t.Fatalf("err = %v, want ErrNotOwner", err)
		}
	})

	t.Run("owner deletes with cascade", func(t *testing.T) {
		degraded, err := env.mgr.DeleteRoom(context.Background(), ownerID, room.ID)
		if err != nil {
			t.Fatalf("DeleteRoom: %v", err)
		}
		if degraded {
			t.Error("degraded = true, want false")
		}
		if _, err := env.rooms.GetByID(context.Background(), room.ID); !errors.Is(err, roomstore.ErrNotFound) {
			t.Error("room still present after delete")
		}
		if n, _ := env.members.CountByRoom(context.Background(), room.ID); n != 0 {
			t.Errorf("memberships = %d after cascade, want 0", n)
		}
		if len(env.cascade.deleted) != 1 || env.cascade.deleted[0] != room.ID {
			t.Errorf("cascade calls = %v, want [%s]", env.cascade.deleted, room.ID.Hex())
		}
		if len(env.rt.deletes) != 1 || env.rt.deletes[0] != room.ID.Hex() {
			t.Errorf("realtime deletes = %v", env.rt.deletes)
		}
	})

	t.Run("missing room", func(t *testing.T) {
		_, err := env.mgr.DeleteRoom(context.Background(), ownerID, room.ID)
		if !errors.Is(err, ErrRoomNotFound) {
			t.Fatalf("err = %v, want ErrRoomNotFound", err)
		}
	})
}

func TestDeleteRoomRealtimeFailureIsDegraded(t *testing.T) {
	env := newLifecycleEnv()
	ownerID := primitive.NewObjectID()
	room, err := env.mgr.CreateRoom(context.Background(), CreateRoomParams{Name: "r", OwnerID: ownerID, RoomType: models.RoomTypeCollab})
	if err != nil {
		t.Fatal(err)
	}
	env.rt.failDelete = errors.New("backend down")

	degraded, err := env.mgr.DeleteRoom(context.Background(), ownerID, room.ID)
	if err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if !degraded {
		t.Error("degraded = false, want true when backend delete fails")
	}
	if _, err := env.rooms.GetByID(context.Background(), room.ID); !errors.Is(err, roomstore.ErrNotFound) {
		t.Error("durable delete must proceed despite backend failure")
	}
}

func TestUpdateRoomInfo(t *testing.T) {
	env := newLifecycleEnv()
	ownerID := primitive.NewObjectID()
	room, err := env.mgr.CreateRoom(context.Background(), CreateRoomParams{Name: "r", OwnerID: ownerID, RoomType: models.RoomTypeCollab})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("non-owner rejected", func(t *testing.T) {
		name := "hijack"
		_, _, err := env.mgr.UpdateRoomInfo(context.Background(), primitive.NewObjectID(), room.ID, roomstore.InfoPatch{Name: &name})
		if !errors.Is(err, ErrNotOwner) {
			t.Fatalf("err = %v, want ErrNotOwner", err)
		}
	})

	t.Run("visibility change re-pushes defaults", func(t *testing.T) {
		public := true
		updated, degraded, err := env.mgr.UpdateRoomInfo(context.Background(), ownerID, room.ID, roomstore.InfoPatch{IsPublic: &public})
		if err != nil {
			t.Fatalf("UpdateRoomInfo: %v", err)
		}
		if degraded {
			t.Error("degraded = true, want false")
		}
		if !updated.IsPublic {
			t.Error("IsPublic not updated")
		}
		got := env.rt.rooms[room.ID.Hex()].DefaultAccesses
		if !reflect.DeepEqual(got, realtime.GrantWrite) {
			t.Errorf("DefaultAccesses = %v, want %v after going public", got, realtime.GrantWrite)
		}
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		bad := "arena"
		_, _, err := env.mgr.UpdateRoomInfo(context.Background(), ownerID, room.ID, roomstore.InfoPatch{RoomType: &bad})
		if err == nil {
			t.Fatal("want error for invalid room type")
		}
	})

	t.Run("backend failure degrades", func(t *testing.T) {
		env.rt.failUpsert = errors.New("backend down")
		defer func() { env.rt.failUpsert = nil }()
		name := "renamed"
		updated, degraded, err := env.mgr.UpdateRoomInfo(context.Background(), ownerID, room.ID, roomstore.InfoPatch{Name: &name})
		if err != nil {
			t.Fatalf("UpdateRoomInfo: %v", err)
		}
		if !degraded {
			t.Error("degraded = false, want true")
		}
		if updated.Name != "renamed" {
			t.Error("durable patch must survive backend failure")
		}
	})
}

func TestRequireOwnerAndMember(t *testing.T) {
	env := newLifecycleEnv()
	ownerID := primitive.NewObjectID()
	room, err := env.mgr.CreateRoom(context.Background(), CreateRoomParams{Name: "r", OwnerID: ownerID, RoomType: models.RoomTypeCollab})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.mgr.RequireOwner(context.Background(), ownerID, room.ID); err != nil {
		t.Errorf("RequireOwner(owner): %v", err)
	}
	if _, err := env.mgr.RequireOwner(context.Background(), primitive.NewObjectID(), room.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("RequireOwner(stranger) = %v, want ErrNotOwner", err)
	}
	if _, err := env.mgr.RequireMember(context.Background(), room.ID, ownerID); err != nil {
		t.Errorf("RequireMember(owner): %v", err)
	}
	if _, err := env.mgr.RequireMember(context.Background(), room.ID, primitive.NewObjectID()); !errors.Is(err, ErrMembershipNotFound) {
		t.Errorf("RequireMember(stranger) = %v, want ErrMembershipNotFound", err)
	}
}
