package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSuperAdmin, RoleOwner, RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RolePharmacist} {
		assert.True(t, r.Valid(), "role %s should be valid", r)
	}

	assert.False(t, Role("surgeon").Valid())
	assert.False(t, Role("").Valid())
}

func TestTenantScoped(t *testing.T) {
	assert.False(t, RoleSuperAdmin.TenantScoped())
	assert.True(t, RoleOwner.TenantScoped())
	assert.True(t, RoleDoctor.TenantScoped())
}

func TestCan(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		perm    Permission
		allowed bool
	}{
		{"super admin wildcard", RoleSuperAdmin, PermTenantManage, true},
		{"super admin clinical access via wildcard", RoleSuperAdmin, PermPatientWrite, true},
		{"owner manages staff", RoleOwner, PermStaffManage, true},
		{"owner cannot manage tenants", RoleOwner, PermTenantManage, false},
		{"doctor writes prescriptions", RoleDoctor, PermPrescriptionWrite, true},
		{"nurse cannot write prescriptions", RoleNurse, PermPrescriptionWrite, false},
		{"receptionist schedules appointments", RoleReceptionist, PermAppointmentWrite, true},
		{"receptionist cannot read reports", RoleReceptionist, PermReportRead, false},
		{"pharmacist reads prescriptions", RolePharmacist, PermPrescriptionRead, true},
		{"pharmacist cannot write patients", RolePharmacist, PermPatientWrite, false},
		{"unknown role holds nothing", Role("surgeon"), PermPatientRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, Can(tt.role, tt.perm))
		})
	}
}

func TestPermissionsReturnsCopy(t *testing.T) {
	perms := Permissions(RolePharmacist)
	assert.NotEmpty(t, perms)

	perms[0] = Permission("tampered")
	assert.NotContains(t, Permissions(RolePharmacist), Permission("tampered"))
}

func TestEveryTenantRoleHasPermissions(t *testing.T) {
	for role := range rolePermissions {
		assert.NotEmpty(t, Permissions(role), "role %s has an empty permission set", role)
	}
}
