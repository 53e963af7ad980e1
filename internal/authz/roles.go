package authz

// Role is the closed set of user roles. Roles are stored as their
// string value and validated against this enumeration on every
// decode; there is no dynamic role creation.
type Role string

const (
	// RoleSuperAdmin is the platform operator. It is the only
	// tenant-less role and is never valid on tenant routes.
	RoleSuperAdmin Role = "super_admin"

	// RoleOwner is the hospital owner with full tenant control.
	RoleOwner Role = "owner"

	// RoleAdmin is a tenant administrator.
	RoleAdmin Role = "admin"

	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
	RolePharmacist   Role = "pharmacist"
)

// Valid reports whether r is a member of the role enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleOwner, RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RolePharmacist:
		return true
	}
	return false
}

// TenantScoped reports whether the role belongs to a tenant. The
// super admin operates at platform scope only.
func (r Role) TenantScoped() bool {
	return r != RoleSuperAdmin
}
