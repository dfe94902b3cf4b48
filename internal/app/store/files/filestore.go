// internal/app/store/files/filestore.go

// Package filestore manages a room's file tree (filesystem nodes) and the
// content documents behind file nodes.
package filestore

import (
	"context"
	"errors"
	"time"

	"github.com/codesync-app/codesync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("file node not found")
	ErrBadType  = errors.New(`node type must be "file" or "folder"`)
)

type Store struct {
	nodes   *mongo.Collection
	content *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		nodes:   db.Collection("filesystem"),
		content: db.Collection("file_content"),
	}
}

// CreateNode inserts a tree node. File nodes get an empty content document
// so readers never race a file without a body.
func (s *Store) CreateNode(ctx context.Context, node models.FileNode) (models.FileNode, error) {
	if node.Type != models.NodeFile && node.Type != models.NodeFolder {
		return models.FileNode{}, ErrBadType
	}
	now := time.Now().UTC()
	node.ID = primitive.NewObjectID()
	node.CreatedAt = now
	node.UpdatedAt = now
	if _, err := s.nodes.InsertOne(ctx, node); err != nil {
		return models.FileNode{}, err
	}

	if node.Type == models.NodeFile {
		fc := models.FileContent{
			ID:        primitive.NewObjectID(),
			FileID:    node.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.content.InsertOne(ctx, fc); err != nil {
			// Compensate so no file node exists without a content document.
			_, _ = s.nodes.DeleteOne(ctx, bson.M{"_id": node.ID})
			return models.FileNode{}, err
		}
	}
	return node, nil
}

// GetNode retrieves a single node.
func (s *Store) GetNode(ctx context.Context, id primitive.ObjectID) (models.FileNode, error) {
	var node models.FileNode
	err := s.nodes.FindOne(ctx, bson.M{"_id": id}).Decode(&node)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.FileNode{}, ErrNotFound
		}
		return models.FileNode{}, err
	}
	return node, nil
}

// ListByRoom returns every node in the room's tree, folders first then by
// name, so clients can render without re-sorting.
func (s *Store) ListByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.FileNode, error) {
	opts := options.Find().SetSort(bson.D{{Key: "type", Value: -1}, {Key: "name", Value: 1}})
	cur, err := s.nodes.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var nodes []models.FileNode
	if err := cur.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// RenameNode updates a node's name and records who touched it.
func (s *Store) RenameNode(ctx context.Context, id primitive.ObjectID, name string, by primitive.ObjectID) error {
	res, err := s.nodes.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":             name,
		"last_modified_by": by,
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteNode removes a node and, for folders, everything beneath it. File
// content documents are removed alongside their nodes. Returns how many
// nodes were deleted.
func (s *Store) DeleteNode(ctx context.Context, roomID, id primitive.ObjectID) (int64, error) {
	node, err := s.GetNode(ctx, id)
	if err != nil {
		return 0, err
	}
	if node.RoomID != roomID {
		return 0, ErrNotFound
	}

	ids := []primitive.ObjectID{id}
	if node.Type == models.NodeFolder {
		descendants, err := s.collectDescendants(ctx, roomID, id)
		if err != nil {
			return 0, err
		}
		ids = append(ids, descendants...)
	}

	if _, err := s.content.DeleteMany(ctx, bson.M{"file_id": bson.M{"$in": ids}}); err != nil {
		return 0, err
	}
	res, err := s.nodes.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// collectDescendants walks the tree breadth-first gathering every node under
// root. Trees are shallow in practice; one query per level.
func (s *Store) collectDescendants(ctx context.Context, roomID, root primitive.ObjectID) ([]primitive.ObjectID, error) {
	var all []primitive.ObjectID
	frontier := []primitive.ObjectID{root}
	for len(frontier) > 0 {
		cur, err := s.nodes.Find(ctx, bson.M{
			"room_id":   roomID,
			"parent_id": bson.M{"$in": frontier},
		})
		if err != nil {
			return nil, err
		}
		var level []models.FileNode
		if err := cur.All(ctx, &level); err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, n := range level {
			all = append(all, n.ID)
			if n.Type == models.NodeFolder {
				frontier = append(frontier, n.ID)
			}
		}
	}
	return all, nil
}

// GetContent returns the content document for a file node.
func (s *Store) GetContent(ctx context.Context, fileID primitive.ObjectID) (models.FileContent, error) {
	var fc models.FileContent
	err := s.content.FindOne(ctx, bson.M{"file_id": fileID}).Decode(&fc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.FileContent{}, ErrNotFound
		}
		return models.FileContent{}, err
	}
	return fc, nil
}

// SaveContent overwrites a file's body and language, stamping the editor.
func (s *Store) SaveContent(ctx context.Context, fileID primitive.ObjectID, content, language string, by primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.content.UpdateOne(ctx,
		bson.M{"file_id": fileID},
		bson.M{"$set": bson.M{
			"content":    content,
			"language":   language,
			"updated_at": now,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	_, err = s.nodes.UpdateByID(ctx, fileID, bson.M{"$set": bson.M{
		"last_modified_by": by,
		"updated_at":       now,
	}})
	return err
}

// RecordExecution stores the runner's output for a file.
func (s *Store) RecordExecution(ctx context.Context, fileID primitive.ObjectID, output, execErr string, elapsedMS int64) error {
	res, err := s.content.UpdateOne(ctx,
		bson.M{"file_id": fileID},
		bson.M{"$set": bson.M{
			"output":            output,
			"exec_error":        execErr,
			"execution_time_ms": elapsedMS,
			"updated_at":        time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByRoom removes the room's entire tree and content. Used by room
// deletion cascade.
func (s *Store) DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) error {
	cur, err := s.nodes.Find(ctx, bson.M{"room_id": roomID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return err
	}
	var nodes []models.FileNode
	if err := cur.All(ctx, &nodes); err != nil {
		return err
	}
	ids := make([]primitive.ObjectID, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	if len(ids) > 0 {
		if _, err := s.content.DeleteMany(ctx, bson.M{"file_id": bson.M{"$in": ids}}); err != nil {
			return err
		}
	}
	_, err = s.nodes.DeleteMany(ctx, bson.M{"room_id": roomID})
	return err
}
