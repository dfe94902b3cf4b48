// internal/domain/models/roles.go
package models

// Room roles. Exactly one membership per room carries RoleOwner, and it is
// always the membership whose user matches Room.OwnerID.
const (
	RoleOwner        = "owner"
	RoleMentor       = "mentor"
	RoleStudent      = "student"
	RoleCollaborator = "collaborator"
)

// Membership permissions. Write implies nothing about read; grants carry the
// full set explicitly (e.g. ["read","write"]).
const (
	PermRead  = "read"
	PermWrite = "write"
)

// Room types.
const (
	RoomTypeCollab = "collab"
	RoomTypeMentor = "mentor"
)

// IsValidRole reports whether role is one of the defined room roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleMentor, RoleStudent, RoleCollaborator:
		return true
	}
	return false
}

// IsValidRoomType reports whether rt is a defined room type.
func IsValidRoomType(rt string) bool {
	return rt == RoomTypeCollab || rt == RoomTypeMentor
}

// ValidPermissions reports whether perms contains only defined permissions.
func ValidPermissions(perms []string) bool {
	for _, p := range perms {
		if p != PermRead && p != PermWrite {
			return false
		}
	}
	return true
}

// HasWrite reports whether perms contains the write permission.
func HasWrite(perms []string) bool {
	for _, p := range perms {
		if p == PermWrite {
			return true
		}
	}
	return false
}

// HasRead reports whether perms contains the read permission.
func HasRead(perms []string) bool {
	for _, p := range perms {
		if p == PermRead {
			return true
		}
	}
	return false
}
