package rbac

import (
	"slices"
	"testing"
)

func TestAdminIsSupersetOfEveryRole(t *testing.T) {
	admin := PermissionsForRole(RoleAdmin)
	for _, role := range Roles() {
		for _, perm := range PermissionsForRole(role) {
			if !slices.Contains(admin, perm) {
				t.Fatalf("admin is missing %q granted to %q", perm, role)
			}
		}
	}
}

func TestHasPermissionMatchesTable(t *testing.T) {
	for _, role := range Roles() {
		granted := PermissionsForRole(role)
		for _, perm := range AllPermissions() {
			got := HasPermission(role, perm)
			want := slices.Contains(granted, perm)
			if got != want {
				t.Fatalf("HasPermission(%s, %s) = %v, want %v", role, perm, got, want)
			}
		}
	}
}

func TestUnknownRoleHasNothing(t *testing.T) {
	if Known("ghost") {
		t.Fatal("unexpected role")
	}
	if perms := PermissionsForRole("ghost"); len(perms) != 0 {
		t.Fatalf("expected empty set, got %v", perms)
	}
	if HasPermission("ghost", PermViewDashboard) {
		t.Fatal("unknown role must not pass checks")
	}
	if routes := AccessibleRoutes("ghost"); len(routes) != 0 {
		t.Fatalf("expected no routes, got %v", routes)
	}
}

func TestEmptyInputEdgeCases(t *testing.T) {
	for _, role := range Roles() {
		if HasAnyPermission(role) {
			t.Fatalf("HasAnyPermission(%s) with no input must be false", role)
		}
		if !HasAllPermissions(role) {
			t.Fatalf("HasAllPermissions(%s) with no input must be true", role)
		}
	}
}

func TestAnyAndAllPermissions(t *testing.T) {
	if !HasAnyPermission(RoleUser, PermAdminAccess, PermViewDashboard) {
		t.Fatal("expected user to match view_dashboard")
	}
	if HasAnyPermission(RoleUser, PermAdminAccess, PermSystemSettings) {
		t.Fatal("user must not match admin-only permissions")
	}
	if !HasAllPermissions(RoleVolunteer, PermViewAgenda, PermViewRegistry) {
		t.Fatal("expected volunteer to hold both permissions")
	}
	if HasAllPermissions(RoleVolunteer, PermViewAgenda, PermAdminAccess) {
		t.Fatal("volunteer must not hold admin_access")
	}
}

func TestAccessibleRoutesOrder(t *testing.T) {
	got := AccessibleRoutes(RolePatient)
	want := []string{"/agenda", "/dashboard", "/settings", "/registry"}
	if !slices.Equal(got, want) {
		t.Fatalf("patient routes = %v, want %v", got, want)
	}
	if slices.Contains(got, "/admin") {
		t.Fatal("patient must not see /admin")
	}

	admin := AccessibleRoutes(RoleAdmin)
	if admin[len(admin)-1] != "/admin" {
		t.Fatalf("admin routes = %v, expected /admin last", admin)
	}

	user := AccessibleRoutes(RoleUser)
	if slices.Contains(user, "/agenda") {
		t.Fatalf("user routes = %v, must not include /agenda", user)
	}
}

func TestSystemSettingsScenario(t *testing.T) {
	if !HasPermission(RoleAdmin, PermSystemSettings) {
		t.Fatal("admin must hold system_settings")
	}
	if HasPermission(RoleUser, PermSystemSettings) {
		t.Fatal("user must not hold system_settings")
	}
}

func TestPermissionsForRoleIsStable(t *testing.T) {
	first := PermissionsForRole(RoleSponsor)
	first[0] = "tampered"
	second := PermissionsForRole(RoleSponsor)
	if slices.Contains(second, "tampered") {
		t.Fatal("PermissionsForRole must return a copy")
	}
	if !slices.Equal(second, PermissionsForRole(RoleSponsor)) {
		t.Fatal("repeated lookups must return identical sets")
	}
}

func TestCatalogCoversEveryRole(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != len(Roles()) {
		t.Fatalf("catalog has %d roles, want %d", len(catalog), len(Roles()))
	}
	for _, role := range Roles() {
		perms, ok := catalog[string(role)]
		if !ok {
			t.Fatalf("catalog missing role %s", role)
		}
		if len(perms) != len(PermissionsForRole(role)) {
			t.Fatalf("catalog row %s out of sync", role)
		}
	}
}

func TestValidPermission(t *testing.T) {
	if !ValidPermission(PermViewRegistry) {
		t.Fatal("view_registry must be valid")
	}
	if ValidPermission("launch_rockets") {
		t.Fatal("unexpected permission accepted")
	}
}
