// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package access

import (
	"regexp"
	"strings"
)

// HasAnyPermissionClaim reports whether any claim equals one of the
// candidate codenames, is a global wildcard, or is a "*" glob matching a
// candidate.
func HasAnyPermissionClaim(permissions, candidates []string) bool {
	claims := NormalizeClaims(permissions)
	cands := NormalizeClaims(candidates)
	if len(claims) == 0 || len(cands) == 0 {
		return false
	}

	for _, claim := range claims {
		if isWildcardClaim(claim) {
			return true
		}
		re := globToRegexp(claim)
		for _, c := range cands {
			if c == claim || (re != nil && re.MatchString(c)) {
				return true
			}
		}
	}
	return false
}

func globToRegexp(pattern string) *regexp.Regexp {
	if !strings.Contains(pattern, "*") {
		return nil
	}
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return nil
	}
	return re
}

var resourcePrefixes = []struct {
	prefix string
	area   Area
}{
	{"/v1/projects", AreaProjects},
	{"/v1/procurement", AreaProcurement},
	{"/v1/finance", AreaFinance},
	{"/v1/real-estate", AreaRealEstate},
	{"/v1/core", AreaAdmin},
}

// AreaForResourcePath infers the area gating a backend collection. The
// second result is false for paths outside the v1 area prefixes.
func AreaForResourcePath(resourcePath string) (Area, bool) {
	for _, p := range resourcePrefixes {
		if strings.HasPrefix(resourcePath, p.prefix+"/") {
			return p.area, true
		}
	}
	return "", false
}

var dashboardPrefixes = []struct {
	prefix string
	area   Area
}{
	{"/dashboard/projects", AreaProjects},
	{"/dashboard/procurement", AreaProcurement},
	{"/dashboard/finance", AreaFinance},
	{"/dashboard/accounting-v2", AreaFinance},
	{"/dashboard/real-estate", AreaRealEstate},
	{"/dashboard/admin", AreaAdmin},
}

// AreaForDashboardPath returns the area guarding a dashboard URL path.
// The overview and the access explanation page are ungated.
func AreaForDashboardPath(path string) (Area, bool) {
	if path == "/dashboard" || path == "/dashboard/" || strings.HasPrefix(path, "/dashboard/access") {
		return "", false
	}
	for _, p := range dashboardPrefixes {
		if path == p.prefix || strings.HasPrefix(path, p.prefix+"/") {
			return p.area, true
		}
	}
	return "", false
}

// MatrixRow is one area's row in the access explanation table.
type MatrixRow struct {
	Area    Area
	View    bool
	Manage  bool
	Approve bool
}

// Matrix evaluates every level for every area.
func Matrix(roleSlug string, permissions []string) []MatrixRow {
	rows := make([]MatrixRow, 0, len(Areas))
	for _, a := range Areas {
		rows = append(rows, MatrixRow{
			Area:    a,
			View:    HasAreaAccess(roleSlug, a, permissions),
			Manage:  CanManageArea(roleSlug, a, permissions),
			Approve: CanApproveArea(roleSlug, a, permissions),
		})
	}
	return rows
}
