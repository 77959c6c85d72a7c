package constants

//============== USER ROLES ==============

// Role codes as stored in users.role.
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
	RoleEmployee   = "employee"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTechnician, RoleEmployee:
		return true
	}
	return false
}

// IsPrivilegedRole reports whether the role sees the full record sets.
func IsPrivilegedRole(role string) bool {
	return role == RoleAdmin || role == RoleTechnician
}

//============== USER STATUSES ==============

const (
	UserStatusPending  = "pending"
	UserStatusActive   = "active"
	UserStatusRejected = "rejected"
)

//============== EQUIPMENT STATUSES ==============

// Equipment statuses. Available and Assigned are derived by the assignment
// engine; the other three are manual operator states, orthogonal to the
// assignment history.
const (
	EquipmentStatusAvailable        = "Available"
	EquipmentStatusAssigned         = "Assigned"
	EquipmentStatusBroken           = "Broken"
	EquipmentStatusUnderMaintenance = "UnderMaintenance"
	EquipmentStatusReserved         = "Reserved"
)

// IsManualEquipmentStatus reports whether the status is one an operator may
// set directly. Available/Assigned are never accepted from a caller.
func IsManualEquipmentStatus(status string) bool {
	switch status {
	case EquipmentStatusBroken, EquipmentStatusUnderMaintenance, EquipmentStatusReserved:
		return true
	}
	return false
}

//============== INCIDENT STATUSES ==============

const (
	IncidentStatusOpen       = "open"
	IncidentStatusInProgress = "in_progress"
	IncidentStatusResolved   = "resolved"
)

//============== ASSIGNMENT CONDITIONS ==============

// DefaultCondition is applied when an initial assignment omits the
// equipment-condition label.
const DefaultCondition = "Bon état"

//============== CACHE KEYS ==============

const (
	// Login attempt counter. Format: login_attempts:<email> -> count
	CacheKeyLoginAttempts = "login_attempts:%s"

	// Lockout marker after too many failed logins.
	// Format: lockout:<email> -> "locked"
	CacheKeyLockout = "lockout:%s"

	// Refresh token id whitelist. Format: refresh_jti:<userID>:<jti> -> "1"
	CacheKeyRefreshJTI = "refresh_jti:%d:%s"
)
