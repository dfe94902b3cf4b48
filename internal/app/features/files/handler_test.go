// internal/app/features/files/handler_test.go
package files_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	filesfeature "github.com/codesync-app/codesync/internal/app/features/files"
	filestore "github.com/codesync-app/codesync/internal/app/store/files"
	membershipstore "github.com/codesync-app/codesync/internal/app/store/memberships"
	roomstore "github.com/codesync-app/codesync/internal/app/store/rooms"
	"github.com/codesync-app/codesync/internal/app/system/auth"
	"github.com/codesync-app/codesync/internal/app/system/realtime"
	"github.com/codesync-app/codesync/internal/app/system/roomaccess"
	"github.com/codesync-app/codesync/internal/domain/models"
	"github.com/codesync-app/codesync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type testEnv struct {
	handler *filesfeature.Handler
	files   *filestore.Store
	members *membershipstore.Store
	room    models.Room
	ownerID primitive.ObjectID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	rooms := roomstore.New(db)
	members := membershipstore.New(db)
	files := filestore.New(db)
	lifecycle := roomaccess.NewManager(rooms, members, realtime.NopClient{}, logger, files)

	ownerID := primitive.NewObjectID()
	room, err := lifecycle.CreateRoom(context.Background(), roomaccess.CreateRoomParams{
		Name:    "Workspace",
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	return &testEnv{
		handler: filesfeature.NewHandler(lifecycle, files, logger),
		files:   files,
		members: members,
		room:    room,
		ownerID: ownerID,
	}
}

func signedIn(r *http.Request, userID primitive.ObjectID) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{ID: userID.Hex(), Name: "Dev", Email: "dev@example.com"})
}

func (env *testEnv) addReader(t *testing.T) primitive.ObjectID {
	t.Helper()
	reader := primitive.NewObjectID()
	if _, err := env.members.Upsert(context.Background(), env.room.ID, reader, models.RoleStudent, []string{models.PermRead}); err != nil {
		t.Fatal(err)
	}
	return reader
}

func (env *testEnv) postNode(userID primitive.ObjectID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/rooms/"+env.room.ID.Hex()+"/files", strings.NewReader(body))
	req = signedIn(req, userID)
	req = testutil.WithChiURLParam(req, "roomID", env.room.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.ServeCreate(rec, req)
	return rec
}

func (env *testEnv) mustCreateNode(t *testing.T, body string) string {
	t.Helper()
	rec := env.postNode(env.ownerID, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create node: status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Node struct {
			ID string `json:"id"`
		} `json:"node"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp.Node.ID
}

func TestServeCreate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("file gets extension and content document", func(t *testing.T) {
		rec := env.postNode(env.ownerID, `{"name":"main.go","type":"file","parentId":""}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Node struct {
				ID        string `json:"id"`
				Extension string `json:"extension"`
			} `json:"node"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Node.Extension != "go" {
			t.Errorf("extension = %q, want go", resp.Node.Extension)
		}
		nodeID, _ := primitive.ObjectIDFromHex(resp.Node.ID)
		if _, err := env.files.GetContent(context.Background(), nodeID); err != nil {
			t.Errorf("file node has no content document: %v", err)
		}
	})

	t.Run("folder parent", func(t *testing.T) {
		folderID := env.mustCreateNode(t, `{"name":"src","type":"folder","parentId":""}`)
		rec := env.postNode(env.ownerID, `{"name":"lib.go","type":"file","parentId":"`+folderID+`"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("file cannot be a parent", func(t *testing.T) {
		fileID := env.mustCreateNode(t, `{"name":"flat.txt","type":"file","parentId":""}`)
		rec := env.postNode(env.ownerID, `{"name":"inside.txt","type":"file","parentId":"`+fileID+`"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("name with path separator is rejected", func(t *testing.T) {
		rec := env.postNode(env.ownerID, `{"name":"../etc/passwd","type":"file","parentId":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown node type is rejected", func(t *testing.T) {
		rec := env.postNode(env.ownerID, `{"name":"thing","type":"symlink","parentId":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("read-only member cannot create", func(t *testing.T) {
		reader := env.addReader(t)
		rec := env.postNode(reader, `{"name":"nope.txt","type":"file","parentId":""}`)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestServeTree(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateNode(t, `{"name":"src","type":"folder","parentId":""}`)
	env.mustCreateNode(t, `{"name":"main.go","type":"file","parentId":""}`)

	// Read access is enough to see the tree.
	reader := env.addReader(t)
	req := httptest.NewRequest(http.MethodGet, "/rooms/"+env.room.ID.Hex()+"/files", nil)
	req = signedIn(req, reader)
	req = testutil.WithChiURLParam(req, "roomID", env.room.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.ServeTree(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Nodes []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"nodes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(resp.Nodes))
	}
	if resp.Nodes[0].Type != models.NodeFolder {
		t.Errorf("nodes[0] = %+v, folders sort first", resp.Nodes[0])
	}
}

func TestServeDeleteFolderSubtree(t *testing.T) {
	env := newTestEnv(t)
	folderID := env.mustCreateNode(t, `{"name":"src","type":"folder","parentId":""}`)
	env.mustCreateNode(t, `{"name":"a.go","type":"file","parentId":"`+folderID+`"}`)
	env.mustCreateNode(t, `{"name":"b.go","type":"file","parentId":"`+folderID+`"}`)

	req := httptest.NewRequest(http.MethodDelete, "/rooms/"+env.room.ID.Hex()+"/files/"+folderID, nil)
	req = signedIn(req, env.ownerID)
	req = testutil.WithChiURLParam(req, "roomID", env.room.ID.Hex())
	req = testutil.WithChiURLParam(req, "nodeID", folderID)
	rec := httptest.NewRecorder()
	env.handler.ServeDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Deleted != 3 {
		t.Errorf("deleted = %d, want folder plus two files", resp.Deleted)
	}

	nodes, err := env.files.ListByRoom(context.Background(), env.room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Errorf("%d nodes survived the subtree delete", len(nodes))
	}
}

func TestSaveAndGetContent(t *testing.T) {
	env := newTestEnv(t)
	nodeID := env.mustCreateNode(t, `{"name":"main.go","type":"file","parentId":""}`)

	source := "package main\n\nfunc main() {}\n"
	payload, _ := json.Marshal(map[string]string{"content": source, "language": "go"})
	req := httptest.NewRequest(http.MethodPut,
		"/rooms/"+env.room.ID.Hex()+"/files/"+nodeID+"/content",
		strings.NewReader(string(payload)))
	req = signedIn(req, env.ownerID)
	req = testutil.WithChiURLParam(req, "roomID", env.room.ID.Hex())
	req = testutil.WithChiURLParam(req, "nodeID", nodeID)
	rec := httptest.NewRecorder()
	env.handler.ServeSaveContent(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}

	// A read-only member can still fetch the body, stored verbatim.
	reader := env.addReader(t)
	req = httptest.NewRequest(http.MethodGet, "/rooms/"+env.room.ID.Hex()+"/files/"+nodeID+"/content", nil)
	req = signedIn(req, reader)
	req = testutil.WithChiURLParam(req, "roomID", env.room.ID.Hex())
	req = testutil.WithChiURLParam(req, "nodeID", nodeID)
	rec = httptest.NewRecorder()
	env.handler.ServeGetContent(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Content struct {
			Content  string `json:"content"`
			Language string `json:"language"`
		} `json:"content"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Content.Content != source {
		t.Errorf("content round-trip mangled the source:\n%q", resp.Content.Content)
	}
	if resp.Content.Language != "go" {
		t.Errorf("language = %q", resp.Content.Language)
	}
}

func TestContentCrossRoomIsInvisible(t *testing.T) {
	env := newTestEnv(t)
	nodeID := env.mustCreateNode(t, `{"name":"secret.go","type":"file","parentId":""}`)

	// A node id from this room requested under a different room id 404s even
	// for that room's members.
	otherRoomID := primitive.NewObjectID().Hex()
	req := httptest.NewRequest(http.MethodGet, "/rooms/"+otherRoomID+"/files/"+nodeID+"/content", nil)
	req = signedIn(req, env.ownerID)
	req = testutil.WithChiURLParam(req, "roomID", otherRoomID)
	req = testutil.WithChiURLParam(req, "nodeID", nodeID)
	rec := httptest.NewRecorder()
	env.handler.ServeGetContent(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeRecordExecution(t *testing.T) {
	env := newTestEnv(t)
	nodeID := env.mustCreateNode(t, `{"name":"main.go","type":"file","parentId":""}`)

	req := httptest.NewRequest(http.MethodPost,
		"/rooms/"+env.room.ID.Hex()+"/files/"+nodeID+"/execution",
		strings.NewReader(`{"output":"hello\n","error":"","executionTimeMs":42}`))
	req = signedIn(req, env.ownerID)
	req = testutil.WithChiURLParam(req, "roomID", env.room.ID.Hex())
	req = testutil.WithChiURLParam(req, "nodeID", nodeID)
	rec := httptest.NewRecorder()
	env.handler.ServeRecordExecution(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	oid, _ := primitive.ObjectIDFromHex(nodeID)
	fc, err := env.files.GetContent(context.Background(), oid)
	if err != nil {
		t.Fatal(err)
	}
	if fc.Output != "hello\n" || fc.ExecutionTimeMS != 42 {
		t.Errorf("stored execution = %+v", fc)
	}
}
