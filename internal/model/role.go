package model

// Staff roles carried in the JWT "role" claim.  Token issuance happens in
// the identity service; the engine only verifies tokens and branches on the
// role for permission checks.
const (
	RoleOwner      = "OWNER"
	RoleManager    = "MANAGER"
	RoleHost       = "HOST"
	RoleAccounting = "ACCOUNTING"
	RoleServer     = "SERVER"
)

// CanManageTables reports whether the role may create bookings, move
// parties between tables and change booking statuses.
func CanManageTables(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleHost:
		return true
	}
	return false
}

// CanRefund reports whether the role may move money back to customers.
func CanRefund(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleAccounting:
		return true
	}
	return false
}

// CanConfigureSections reports whether the role may edit the section
// catalog and server assignments.
func CanConfigureSections(role string) bool {
	return role == RoleOwner || role == RoleManager
}

// IsServerRole reports whether the caller is wait staff.  Servers place
// hold-style bookings that record a desired table without occupying it.
func IsServerRole(role string) bool {
	return role == RoleServer
}

// IsStaffRole reports whether the role is any of the known staff roles.
// Read-only endpoints are open to everyone on shift.
func IsStaffRole(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleHost, RoleAccounting, RoleServer:
		return true
	}
	return false
}
