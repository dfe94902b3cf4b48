// internal/app/store/rooms/roomstore_test.go
package roomstore_test

import (
	"errors"
	"testing"

	roomstore "github.com/codesync-app/codesync/internal/app/store/rooms"
	"github.com/codesync-app/codesync/internal/domain/models"
	"github.com/codesync-app/codesync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := roomstore.New(db)
	ctx := testutil.TestContext(t)
	ownerID := primitive.NewObjectID()

	created, err := store.Create(ctx, models.Room{
		Name:     "Algorithms Study",
		OwnerID:  ownerID,
		IsPublic: true,
		MaxUsers: 10,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.RoomType != models.RoomTypeCollab {
		t.Errorf("RoomType = %q, want collab default", created.RoomType)
	}
	if created.CreatedAt.IsZero() || created.LastAccessed.IsZero() {
		t.Error("timestamps not set")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Algorithms Study" || got.OwnerID != ownerID {
		t.Errorf("GetByID returned %+v", got)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, roomstore.ErrNotFound) {
		t.Errorf("GetByID of missing room = %v, want ErrNotFound", err)
	}
}

func TestListByOwnerOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := roomstore.New(db)
	ctx := testutil.TestContext(t)
	ownerID := primitive.NewObjectID()

	first, err := store.Create(ctx, models.Room{Name: "first", OwnerID: ownerID})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, models.Room{Name: "second", OwnerID: ownerID}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, models.Room{Name: "not mine", OwnerID: primitive.NewObjectID()}); err != nil {
		t.Fatal(err)
	}

	// Touching the older room moves it to the front of the listing.
	if err := store.TouchLastAccessed(ctx, first.ID); err != nil {
		t.Fatal(err)
	}

	rooms, err := store.ListByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms, want 2", len(rooms))
	}
	if rooms[0].Name != "first" {
		t.Errorf("rooms[0] = %q, want most recently accessed first", rooms[0].Name)
	}
}

func TestPatchInfo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := roomstore.New(db)
	ctx := testutil.TestContext(t)

	room, err := store.Create(ctx, models.Room{Name: "before", OwnerID: primitive.NewObjectID(), IsPublic: true})
	if err != nil {
		t.Fatal(err)
	}

	name := "after"
	public := false
	patched, err := store.PatchInfo(ctx, room.ID, roomstore.InfoPatch{Name: &name, IsPublic: &public})
	if err != nil {
		t.Fatalf("PatchInfo: %v", err)
	}
	if patched.Name != "after" {
		t.Errorf("Name = %q", patched.Name)
	}
	if patched.IsPublic {
		t.Error("IsPublic not cleared")
	}
	if patched.OwnerID != room.OwnerID {
		t.Error("OwnerID changed")
	}
	if patched.LastAccessed.Before(room.LastAccessed) {
		t.Error("patch did not refresh last_accessed")
	}

	if _, err := store.PatchInfo(ctx, primitive.NewObjectID(), roomstore.InfoPatch{Name: &name}); !errors.Is(err, roomstore.ErrNotFound) {
		t.Errorf("PatchInfo of missing room = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := roomstore.New(db)
	ctx := testutil.TestContext(t)

	room, err := store.Create(ctx, models.Room{Name: "doomed", OwnerID: primitive.NewObjectID()})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, room.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, room.ID); !errors.Is(err, roomstore.ErrNotFound) {
		t.Errorf("room still present after delete: %v", err)
	}
	if err := store.Delete(ctx, room.ID); !errors.Is(err, roomstore.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
