// internal/app/system/indexes/indexes.go

// Package indexes creates the MongoDB indexes the stores rely on. Index
// builds are idempotent, so running this on every startup is safe.
package indexes

import (
	"context"
	"fmt"

	"github.com/codesync-app/codesync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func Ensure(ctx context.Context, db *mongo.Database) error {
	specs := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{
			coll: "users",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "subject", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "email_ci", Value: 1}}},
			},
		},
		{
			coll: "rooms",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "last_accessed", Value: -1}}},
			},
		},
		{
			// The unique pair index is what makes repeated joins upsert
			// instead of duplicating memberships.
			coll: "room_memberships",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "user_id", Value: 1}}},
			},
		},
		{
			coll: "invitations",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
				// At most one pending invitation per (room, email); concurrent
				// issuers race to a duplicate-key error instead of a second
				// pending document.
				{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "email_ci", Value: 1}},
					Options: options.Index().
						SetUnique(true).
						SetPartialFilterExpression(bson.D{{Key: "status", Value: models.InvitationPending}})},
			},
		},
		{
			coll: "room_content",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "room_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			coll: "filesystem",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "parent_id", Value: 1}}},
			},
		},
		{
			coll: "file_content",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "file_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			coll: "messages",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}}},
			},
		},
	}

	for _, s := range specs {
		if _, err := db.Collection(s.coll).Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", s.coll, err)
		}
	}
	return nil
}
