// internal/app/store/roomcontent/contentstore_test.go
package contentstore_test

import (
	"errors"
	"testing"

	contentstore "github.com/codesync-app/codesync/internal/app/store/roomcontent"
	"github.com/codesync-app/codesync/internal/domain/models"
	"github.com/codesync-app/codesync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSaveVersioning(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contentstore.New(db)
	ctx := testutil.TestContext(t)
	roomID := primitive.NewObjectID()

	if _, err := store.Get(ctx, roomID); !errors.Is(err, contentstore.ErrNotFound) {
		t.Fatalf("Get before save = %v, want ErrNotFound", err)
	}

	auto := true
	first, err := store.Save(ctx, roomID, contentstore.SavePatch{
		Settings:        &models.EditorSettings{Theme: "dark", FontSize: 14},
		AutoSaveEnabled: &auto,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("first Version = %d, want 1", first.Version)
	}

	// A sparse patch merges over stored settings and bumps the version.
	second, err := store.Save(ctx, roomID, contentstore.SavePatch{
		Settings: &models.EditorSettings{TabSize: 2},
	})
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if second.Version != 2 {
		t.Errorf("second Version = %d, want 2", second.Version)
	}
	if second.Settings.Theme != "dark" || second.Settings.FontSize != 14 || second.Settings.TabSize != 2 {
		t.Errorf("merged settings = %+v", second.Settings)
	}
	if !second.AutoSaveEnabled {
		t.Error("AutoSaveEnabled lost by sparse patch")
	}

	got, err := store.Get(ctx, roomID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 2 {
		t.Errorf("stored Version = %d", got.Version)
	}
}

func TestSaveActiveFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contentstore.New(db)
	ctx := testutil.TestContext(t)
	roomID := primitive.NewObjectID()
	fileID := primitive.NewObjectID()

	rc, err := store.Save(ctx, roomID, contentstore.SavePatch{ActiveFileID: &fileID})
	if err != nil {
		t.Fatal(err)
	}
	if rc.ActiveFileID == nil || *rc.ActiveFileID != fileID {
		t.Errorf("ActiveFileID = %v", rc.ActiveFileID)
	}
}

func TestDeleteByRoom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contentstore.New(db)
	ctx := testutil.TestContext(t)
	roomID := primitive.NewObjectID()

	if _, err := store.Save(ctx, roomID, contentstore.SavePatch{}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteByRoom(ctx, roomID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, roomID); !errors.Is(err, contentstore.ErrNotFound) {
		t.Errorf("content survived cascade: %v", err)
	}
}
