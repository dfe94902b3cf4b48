// internal/app/system/apierrors/apierrors.go

// Package apierrors defines the error taxonomy shared by all JSON handlers.
// Every failure carries a machine-checkable reason string so clients can
// branch on cause instead of parsing prose.
package apierrors

import "net/http"

// Reason codes. One per taxonomy case; handlers must never return a bare
// boolean failure.
const (
	ReasonUnauthorized       = "unauthorized"
	ReasonRoomNotFound       = "room_not_found"
	ReasonMembershipNotFound = "membership_not_found"
	ReasonInvitationNotFound = "invitation_not_found"
	ReasonNotFound           = "not_found"
	ReasonForbidden          = "forbidden"
	ReasonNotOwner           = "not_owner"
	ReasonRoomFull           = "room_full"
	ReasonNoInvitation       = "no_invitation"
	ReasonInvitationConsumed = "invitation_consumed"
	ReasonInvitationExpired  = "invitation_expired"
	ReasonCannotDemoteOwner  = "cannot_demote_owner"
	ReasonInvalid            = "invalid_request"
	ReasonUpstreamFailure    = "upstream_failure"
	ReasonInternal           = "internal_error"
)

// statusByReason maps each reason to its HTTP status.
var statusByReason = map[string]int{
	ReasonUnauthorized:       http.StatusUnauthorized,
	ReasonRoomNotFound:       http.StatusNotFound,
	ReasonMembershipNotFound: http.StatusNotFound,
	ReasonInvitationNotFound: http.StatusNotFound,
	ReasonNotFound:           http.StatusNotFound,
	ReasonForbidden:          http.StatusForbidden,
	ReasonNotOwner:           http.StatusForbidden,
	ReasonRoomFull:           http.StatusForbidden,
	ReasonNoInvitation:       http.StatusForbidden,
	ReasonInvitationConsumed: http.StatusForbidden,
	ReasonInvitationExpired:  http.StatusForbidden,
	ReasonCannotDemoteOwner:  http.StatusForbidden,
	ReasonInvalid:            http.StatusBadRequest,
	ReasonUpstreamFailure:    http.StatusBadGateway,
	ReasonInternal:           http.StatusInternalServerError,
}

// Status returns the HTTP status for a reason code. Unknown reasons map to
// 500 so a missing table entry fails loud rather than leaking a 200.
func Status(reason string) int {
	if s, ok := statusByReason[reason]; ok {
		return s
	}
	return http.StatusInternalServerError
}
