// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package access

import (
	"testing"
)

var nonAdminRoles = []string{
	"", "viewer", "auditor", "accountant", "finance_manager", "procurement_officer",
	"procurement_manager", "site_supervisor", "project_accountant", "project_manager",
	"unknown_role",
}

// ============================================================================
// HasAreaAccess: exhaustive enumeration over the closed area set
// ============================================================================

func TestHasAreaAccess_AdminRolesSeeEverything(t *testing.T) {
	permissionLists := [][]string{nil, {}, {"finance:view"}, {"nonsense"}}
	for _, role := range []string{"admin", "super_admin", "Super-Admin", " ADMIN "} {
		for _, area := range Areas {
			for _, perms := range permissionLists {
				if !HasAreaAccess(role, area, perms) {
					t.Errorf("HasAreaAccess(%q, %q, %v) = false, want true", role, area, perms)
				}
			}
		}
	}
}

func TestHasAreaAccess_OtherRolesNeedAreaPermission(t *testing.T) {
	for _, role := range nonAdminRoles {
		for _, area := range Areas {
			t.Run(role+"/"+string(area), func(t *testing.T) {
				if HasAreaAccess(role, area, nil) {
					t.Errorf("granted with no permissions")
				}
				if !HasAreaAccess(role, area, []string{area.Permission()}) {
					t.Errorf("denied with %q", area.Permission())
				}
				for _, other := range Areas {
					if other == area {
						continue
					}
					if HasAreaAccess(role, area, []string{other.Permission()}) {
						t.Errorf("granted by unrelated permission %q", other.Permission())
					}
				}
			})
		}
	}
}

func TestHasAreaAccess_ClaimGrammar(t *testing.T) {
	tests := []struct {
		claim string
		area  Area
		want  bool
	}{
		{"*", AreaAdmin, true},
		{"full_access", AreaRealEstate, true},
		{"finance:*", AreaFinance, true},
		{"finance.*", AreaProjects, false},
		{"projects_all", AreaProjects, true},
		{"*.procurement", AreaProcurement, true},
		{"view:*", AreaAdmin, true},
		{"finance.view_invoice", AreaFinance, true},
		{"procurement.change_purchaseorder", AreaProcurement, true},
		{"projects.approve_changeorder", AreaProjects, true},
		{"FINANCE:VIEW", AreaFinance, true},
		{"real-estate:read", AreaRealEstate, true},
		{"finance", AreaFinance, false},
		{"invoice:print", AreaFinance, false},
	}

	for _, tt := range tests {
		t.Run(tt.claim, func(t *testing.T) {
			if got := HasAreaAccess("viewer", tt.area, []string{tt.claim}); got != tt.want {
				t.Errorf("HasAreaAccess(viewer, %q, [%q]) = %v, want %v", tt.area, tt.claim, got, tt.want)
			}
		})
	}
}

// ============================================================================
// Levels
// ============================================================================

func TestLevels_Hierarchy(t *testing.T) {
	approve := []string{"finance.approve_invoice"}
	manage := []string{"finance.change_invoice"}
	view := []string{"finance.view_invoice"}

	if !HasAreaAccess("", AreaFinance, approve) || !CanManageArea("", AreaFinance, approve) {
		t.Error("approve claim should imply view and manage")
	}
	if !CanApproveArea("", AreaFinance, approve) {
		t.Error("approve claim should grant approve")
	}
	if !CanManageArea("", AreaFinance, manage) || CanApproveArea("", AreaFinance, manage) {
		t.Error("manage claim should grant manage but not approve")
	}
	if CanManageArea("", AreaFinance, view) {
		t.Error("view claim should not grant manage")
	}
}

func TestCanApproveArea_AdminScope(t *testing.T) {
	for _, area := range Areas {
		want := area == AreaProjects || area == AreaProcurement || area == AreaFinance
		if got := CanApproveArea("admin", area, nil); got != want {
			t.Errorf("CanApproveArea(admin, %q) = %v, want %v", area, got, want)
		}
		if !CanManageArea("admin", area, nil) {
			t.Errorf("CanManageArea(admin, %q) = false", area)
		}
	}
}

func TestVisibleAreas_Order(t *testing.T) {
	got := VisibleAreas("viewer", []string{"admin:view", "projects:view"})
	if len(got) != 2 || got[0] != AreaProjects || got[1] != AreaAdmin {
		t.Errorf("VisibleAreas() = %v, want [projects admin]", got)
	}
}

// ============================================================================
// Claims and paths
// ============================================================================

func TestHasAnyPermissionClaim(t *testing.T) {
	cands := []string{"finance.add_invoice", "add_invoice"}

	tests := []struct {
		name   string
		claims []string
		want   bool
	}{
		{"exact", []string{"finance.add_invoice"}, true},
		{"glob", []string{"finance.add_*"}, true},
		{"global wildcard", []string{"all"}, true},
		{"case folded", []string{"FINANCE.ADD_INVOICE"}, true},
		{"other model", []string{"finance.add_payment"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAnyPermissionClaim(tt.claims, cands); got != tt.want {
				t.Errorf("HasAnyPermissionClaim(%v) = %v, want %v", tt.claims, got, tt.want)
			}
		})
	}
	if HasAnyPermissionClaim([]string{"*"}, nil) {
		t.Error("no candidates should never match")
	}
}

func TestAreaForResourcePath(t *testing.T) {
	tests := []struct {
		path string
		want Area
		ok   bool
	}{
		{"/v1/projects/phases/", AreaProjects, true},
		{"/v1/procurement/suppliers/", AreaProcurement, true},
		{"/v1/finance/invoices/", AreaFinance, true},
		{"/v1/real-estate/units/", AreaRealEstate, true},
		{"/v1/core/users/", AreaAdmin, true},
		{"/v2/gl/journal-entries/", "", false},
	}
	for _, tt := range tests {
		got, ok := AreaForResourcePath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("AreaForResourcePath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAreaForDashboardPath(t *testing.T) {
	tests := []struct {
		path string
		want Area
		ok   bool
	}{
		{"/dashboard", "", false},
		{"/dashboard/access", "", false},
		{"/dashboard/projects", AreaProjects, true},
		{"/dashboard/finance/invoices", AreaFinance, true},
		{"/dashboard/accounting-v2", AreaFinance, true},
		{"/dashboard/real-estate/units", AreaRealEstate, true},
		{"/dashboard/admin/users", AreaAdmin, true},
		{"/dashboard/projectsx", "", false},
	}
	for _, tt := range tests {
		got, ok := AreaForDashboardPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("AreaForDashboardPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeRoleSlug(t *testing.T) {
	if got := NormalizeRoleSlug("  Project-Manager "); got != "project_manager" {
		t.Errorf("NormalizeRoleSlug() = %q, want project_manager", got)
	}
	if got := NormalizeRoleSlug("finance  manager"); got != "finance_manager" {
		t.Errorf("NormalizeRoleSlug() = %q, want finance_manager", got)
	}
}
