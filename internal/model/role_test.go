package model

import "testing"

func TestRoleCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role         string
		manageTables bool
		refund       bool
		configure    bool
		server       bool
		staff        bool
	}{
		{RoleOwner, true, true, true, false, true},
		{RoleManager, true, true, true, false, true},
		{RoleHost, true, false, false, false, true},
		{RoleAccounting, false, true, false, false, true},
		{RoleServer, false, false, false, true, true},
		{"", false, false, false, false, false},
		{"ADMIN", false, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := CanManageTables(tt.role); got != tt.manageTables {
				t.Errorf("CanManageTables(%s) = %v, want %v", tt.role, got, tt.manageTables)
			}
			if got := CanRefund(tt.role); got != tt.refund {
				t.Errorf("CanRefund(%s) = %v, want %v", tt.role, got, tt.refund)
			}
			if got := CanConfigureSections(tt.role); got != tt.configure {
				t.Errorf("CanConfigureSections(%s) = %v, want %v", tt.role, got, tt.configure)
			}
			if got := IsServerRole(tt.role); got != tt.server {
				t.Errorf("IsServerRole(%s) = %v, want %v", tt.role, got, tt.server)
			}
			if got := IsStaffRole(tt.role); got != tt.staff {
				t.Errorf("IsStaffRole(%s) = %v, want %v", tt.role, got, tt.staff)
			}
		})
	}
}
