// internal/app/system/roomaccess/errors.go
package roomaccess

import (
	"errors"

	"github.com/codesync-app/codesync/internal/app/system/apierrors"
)

// Typed failures for access decisions and lifecycle operations. Each maps to
// exactly one taxonomy reason so HTTP handlers can translate without string
// matching.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room has reached maximum capacity")
	ErrNoInvitation       = errors.New("no valid invitation found for this room")
	ErrInvitationConsumed = errors.New("invitation has already been used")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrNotOwner           = errors.New("only the room owner may perform this action")
	ErrMembershipNotFound = errors.New("user is not a member of this room")
	ErrCannotDemoteOwner  = errors.New("cannot change the owner's role")
	ErrRealtimeProvision  = errors.New("realtime room provisioning failed")
)

// Reason maps a roomaccess error to its taxonomy reason code. Unknown errors
// report as internal.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return apierrors.ReasonRoomNotFound
	case errors.Is(err, ErrRoomFull):
		return apierrors.ReasonRoomFull
	case errors.Is(err, ErrNoInvitation):
		return apierrors.ReasonNoInvitation
	case errors.Is(err, ErrInvitationConsumed):
		return apierrors.ReasonInvitationConsumed
	case errors.Is(err, ErrInvitationExpired):
		return apierrors.ReasonInvitationExpired
	case errors.Is(err, ErrNotOwner):
		return apierrors.ReasonNotOwner
	case errors.Is(err, ErrMembershipNotFound):
		return apierrors.ReasonMembershipNotFound
	case errors.Is(err, ErrCannotDemoteOwner):
		return apierrors.ReasonCannotDemoteOwner
	case errors.Is(err, ErrRealtimeProvision):
		return apierrors.ReasonUpstreamFailure
	default:
		return apierrors.ReasonInternal
	}
}
