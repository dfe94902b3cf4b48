// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/codesync-app/codesync/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the verified caller's ObjectID, email, display name, and a
// found flag. A malformed session user id fails closed: ok=false, so callers
// can trust that ok=true means a valid authenticated identity.
func UserCtx(r *http.Request) (userID primitive.ObjectID, email string, name string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, "", "", false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Session corruption; should not happen in normal operation.
		return primitive.NilObjectID, "", "", false
	}
	return userID, user.Email, user.Name, true
}

// UserID returns just the caller's ObjectID and a found flag.
func UserID(r *http.Request) (primitive.ObjectID, bool) {
	id, _, _, ok := UserCtx(r)
	return id, ok
}
