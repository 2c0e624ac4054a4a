package rbac

import "testing"

func TestSuperAdminAlwaysAllowed(t *testing.T) {
	// Набор пуст, но super_admin всё равно получает каждое разрешение из каталога.
	for _, p := range Catalog() {
		if !HasPermission(RoleSuperAdmin, nil, p.Name) {
			t.Fatalf("super_admin must hold %q regardless of stored set", p.Name)
		}
	}

	if !HasPermission(RoleSuperAdmin, []string{PermScheduleView}, PermUserManagement) {
		t.Fatalf("super_admin must hold permissions absent from its stored list")
	}
}

func TestHasPermissionMembership(t *testing.T) {
	granted := []string{PermScheduleView, PermCustomerLookup}

	if !HasPermission(RoleViewer, granted, PermScheduleView) {
		t.Fatalf("granted permission must be allowed")
	}
	if HasPermission(RoleViewer, granted, PermAppointmentManagement) {
		t.Fatalf("permission outside the stored set must be denied")
	}
	if HasPermission(RoleViewer, nil, PermScheduleView) {
		t.Fatalf("empty set must deny everything for non super_admin roles")
	}
}

func TestCatalogIsClosed(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Catalog() {
		if p.Name == "" || p.Display == "" || p.Category == "" {
			t.Fatalf("catalog entry %+v has empty fields", p)
		}
		if seen[p.Name] {
			t.Fatalf("duplicate permission %q in catalog", p.Name)
		}
		seen[p.Name] = true
		if !IsKnownPermission(p.Name) {
			t.Fatalf("IsKnownPermission(%q) = false for a catalog entry", p.Name)
		}
	}
	if len(seen) != 15 {
		t.Fatalf("catalog size = %d, want 15", len(seen))
	}
	if IsKnownPermission("rocket_launch") {
		t.Fatalf("unknown permission must not validate")
	}
}

func TestIsCoreRole(t *testing.T) {
	for _, r := range []string{RoleSuperAdmin, RoleManager, RoleStaff, RoleViewer} {
		if !IsCoreRole(r) {
			t.Fatalf("%q must be a core role", r)
		}
	}
	if IsCoreRole("groomer_junior") {
		t.Fatalf("custom roles are not core roles")
	}
}
