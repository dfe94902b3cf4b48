// internal/app/policy/roompolicy/roompolicy.go

// Package roompolicy holds the pure decision rules for room roles and
// permissions. Nothing here touches a store; everything is a function of its
// inputs so the rules stay trivially testable.
package roompolicy

import "github.com/codesync-app/codesync/internal/domain/models"

// JoinRole picks the role for an invited user from the permissions the
// invitation carries. Write access implies collaborator, read-only implies
// student. An explicit role on the invitation always wins; this is the
// fallback when the inviter left it blank.
func JoinRole(perms []string) string {
	if models.HasWrite(perms) {
		return models.RoleCollaborator
	}
	return models.RoleStudent
}

// NormalizePermissions drops unknown permission strings and deduplicates,
// preserving the read-before-write order used everywhere else. An empty or
// all-invalid input normalizes to read-only.
func NormalizePermissions(perms []string) []string {
	var hasRead, hasWrite bool
	for _, p := range perms {
		switch p {
		case models.PermRead:
			hasRead = true
		case models.PermWrite:
			hasWrite = true
		}
	}
	switch {
	case hasWrite:
		return []string{models.PermRead, models.PermWrite}
	case hasRead:
		return []string{models.PermRead}
	default:
		return []string{models.PermRead}
	}
}
