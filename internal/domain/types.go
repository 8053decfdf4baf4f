package domain

// ID is used across domain entities.
type ID int64

// Role is the closed set of actor roles the engine enforces.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole normalizes a stored role string; unknown values map to customer.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleCustomer
	}
}

// RequestContext carries the resolved actor for a request.
type RequestContext struct {
	UserID int64 `json:"userId"`
	Role   Role  `json:"role"`
}

// IsStaff reports whether the actor may act on bookings it does not own.
func (rc RequestContext) IsStaff() bool {
	return rc.Role == RoleAdmin || rc.Role == RoleSuperAdmin
}
