// Package access holds the role model and the pure permission predicates.
// Predicates operate only on claims recovered from a verified token; they
// never trust role strings asserted by request bodies.
package access

import "net/http"

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleOfficer    Role = "officer"
	RoleLawyer     Role = "lawyer"
	RoleNotary     Role = "notary"
)

type UserType string

const (
	UserTypeInternal UserType = "internal"
	UserTypeExternal UserType = "external"
)

// BootstrapAdminUsername is the distinguished account that is treated as a
// super-admin regardless of its stored role. Escape hatch for initial setup
// only; nothing else should rely on username matching.
var BootstrapAdminUsername = "registrar"

// Identity is the caller as resolved from a verified token.
type Identity struct {
	UserID     string
	Username   string
	Role       Role
	UserType   UserType
	Profession string
}

func IsInternal(caller Identity) bool {
	return caller.UserType == UserTypeInternal
}

func IsExternal(caller Identity) bool {
	return caller.UserType == UserTypeExternal
}

func IsSuperAdmin(caller Identity) bool {
	return caller.Role == RoleSuperAdmin || caller.Username == BootstrapAdminUsername
}

// IsAdmin reports whether the caller can manage user accounts.
func IsAdmin(caller Identity) bool {
	return caller.Role == RoleAdmin || IsSuperAdmin(caller)
}

// ReadOnlyGate allows reads unconditionally and mutations only for internal
// callers. Gating is per HTTP verb, matching the registry's coarse read-only
// rule for external professionals.
func ReadOnlyGate(caller Identity, method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return IsInternal(caller)
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleOfficer, RoleLawyer, RoleNotary:
		return true
	}
	return false
}

// ValidUserType reports whether t is one of the known user types.
func ValidUserType(t UserType) bool {
	return t == UserTypeInternal || t == UserTypeExternal
}
