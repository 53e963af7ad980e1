package authz

// Permission is a named action a role may perform, in
// "<resource>:<action>" form.
type Permission string

const (
	// PermWildcard matches every permission. Granted only to the
	// platform super admin.
	PermWildcard Permission = "*"

	PermPatientRead  Permission = "patient:read"
	PermPatientWrite Permission = "patient:write"

	PermAppointmentRead  Permission = "appointment:read"
	PermAppointmentWrite Permission = "appointment:write"

	PermPrescriptionRead  Permission = "prescription:read"
	PermPrescriptionWrite Permission = "prescription:write"

	PermReportRead  Permission = "report:read"
	PermReportWrite Permission = "report:write"

	PermReminderRead  Permission = "reminder:read"
	PermReminderWrite Permission = "reminder:write"

	PermStaffRead   Permission = "staff:read"
	PermStaffManage Permission = "staff:manage"

	PermSubscriptionView Permission = "subscription:view"

	// Platform-scope permissions
	PermTenantManage Permission = "tenant:manage"
	PermPlanManage   Permission = "plan:manage"
)

// rolePermissions is the static role to permission table. It is the
// single source of authorization truth; there is no policy engine
// and no per-user grants.
var rolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {PermWildcard},
	RoleOwner: {
		PermPatientRead, PermPatientWrite,
		PermAppointmentRead, PermAppointmentWrite,
		PermPrescriptionRead, PermPrescriptionWrite,
		PermReportRead, PermReportWrite,
		PermReminderRead, PermReminderWrite,
		PermStaffRead, PermStaffManage,
		PermSubscriptionView,
	},
	RoleAdmin: {
		PermPatientRead, PermPatientWrite,
		PermAppointmentRead, PermAppointmentWrite,
		PermPrescriptionRead,
		PermReportRead, PermReportWrite,
		PermReminderRead, PermReminderWrite,
		PermStaffRead, PermStaffManage,
		PermSubscriptionView,
	},
	RoleDoctor: {
		PermPatientRead, PermPatientWrite,
		PermAppointmentRead, PermAppointmentWrite,
		PermPrescriptionRead, PermPrescriptionWrite,
		PermReportRead, PermReportWrite,
		PermReminderRead,
	},
	RoleNurse: {
		PermPatientRead, PermPatientWrite,
		PermAppointmentRead,
		PermPrescriptionRead,
		PermReportRead,
		PermReminderRead, PermReminderWrite,
	},
	RoleReceptionist: {
		PermPatientRead, PermPatientWrite,
		PermAppointmentRead, PermAppointmentWrite,
		PermReminderRead, PermReminderWrite,
	},
	RolePharmacist: {
		PermPatientRead,
		PermPrescriptionRead,
	},
}

// Can reports whether role is allowed to perform perm. Unknown roles
// hold no permissions.
func Can(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == PermWildcard || p == perm {
			return true
		}
	}
	return false
}

// Permissions returns the permission set for a role. The returned
// slice is a copy; callers may not mutate the table.
func Permissions(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
