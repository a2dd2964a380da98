// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package access decides which areas of the dashboard a session may see,
// manage or approve in. Every function here is pure: the same role slug and
// permission list always produce the same answer, which is what lets the
// route guard and the sidebar share one implementation.
package access

import (
	"regexp"
	"strings"
)

// Area is a coarse permission domain gating a route subtree.
type Area string

const (
	AreaProjects    Area = "projects"
	AreaProcurement Area = "procurement"
	AreaFinance     Area = "finance"
	AreaRealEstate  Area = "real_estate"
	AreaAdmin       Area = "admin"
)

// Areas is the closed set, in sidebar order.
var Areas = []Area{AreaProjects, AreaProcurement, AreaFinance, AreaRealEstate, AreaAdmin}

// Level is a permission strength. Approve implies manage implies view.
type Level string

const (
	LevelView    Level = "view"
	LevelManage  Level = "manage"
	LevelApprove Level = "approve"
)

// ParseArea returns the Area named by s.
func ParseArea(s string) (Area, bool) {
	for _, a := range Areas {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// Permission returns the canonical view claim for the area, e.g. "finance:view".
func (a Area) Permission() string {
	return string(a) + ":" + string(LevelView)
}

// AreaFromSlug returns the Area whose URL slug is s.
func AreaFromSlug(s string) (Area, bool) {
	for _, a := range Areas {
		if a.Slug() == s {
			return a, true
		}
	}
	return "", false
}

// Slug is the URL form of the area ("real-estate").
func (a Area) Slug() string {
	return strings.ReplaceAll(string(a), "_", "-")
}

// administrativeRoles see every area regardless of claims.
var administrativeRoles = map[string]bool{
	"super_admin": true,
	"admin":       true,
}

// adminApproveAreas are the areas where administrative roles may approve.
var adminApproveAreas = map[Area]bool{
	AreaProjects:    true,
	AreaProcurement: true,
	AreaFinance:     true,
}

var areaAliases = map[Area][]string{
	AreaProjects: {
		"projects", "project", "phase", "phases", "boq", "boqitem",
		"costcode", "costrecord", "budgetline", "changeorder",
	},
	AreaProcurement: {
		"procurement", "purchasing", "purchase", "supplier", "warehouse",
		"material", "stocktransaction", "purchaserequest", "purchaseorder",
	},
	AreaFinance: {
		"finance", "financial", "account", "journalentry", "invoice",
		"payment", "progressbilling", "revenuerecognition",
	},
	AreaRealEstate: {
		"real_estate", "realestate", "real", "estate", "reservation",
		"salescontract", "contract", "installment", "handover", "unit", "building",
	},
	AreaAdmin: {"admin", "administration", "core", "role", "user", "auditlog"},
}

var levelAliases = map[Level][]string{
	LevelView:    {"view", "read", "list"},
	LevelManage:  {"manage", "write", "edit", "create", "update", "delete", "add", "change", "remove"},
	LevelApprove: {"approve", "approval", "reject", "confirm", "accept"},
}

var (
	roleSeparators  = regexp.MustCompile(`[-\s]+`)
	claimSeparators = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeRoleSlug lowercases and trims the slug and folds dashes and
// whitespace into underscores.
func NormalizeRoleSlug(slug string) string {
	return roleSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(slug)), "_")
}

// IsAdministrative reports whether the role bypasses claim checks.
func IsAdministrative(roleSlug string) bool {
	return administrativeRoles[NormalizeRoleSlug(roleSlug)]
}

// NormalizeClaims trims, lowercases and de-duplicates claims, keeping order.
func NormalizeClaims(claims []string) []string {
	if len(claims) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(claims))
	out := make([]string, 0, len(claims))
	for _, c := range claims {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// HasAreaAccess reports whether the session may view the area: always for
// administrative roles, otherwise only when a claim grants the area.
func HasAreaAccess(roleSlug string, area Area, permissions []string) bool {
	if IsAdministrative(roleSlug) {
		return true
	}
	return claimsGrant(permissions, area, LevelView)
}

// CanManageArea reports whether the session may create, edit and delete in
// the area.
func CanManageArea(roleSlug string, area Area, permissions []string) bool {
	if IsAdministrative(roleSlug) {
		return true
	}
	return claimsGrant(permissions, area, LevelManage)
}

// CanApproveArea reports whether the session may approve or reject in the
// area.
func CanApproveArea(roleSlug string, area Area, permissions []string) bool {
	if IsAdministrative(roleSlug) && adminApproveAreas[area] {
		return true
	}
	return claimsGrant(permissions, area, LevelApprove)
}

// Allows dispatches on level.
func Allows(roleSlug string, area Area, level Level, permissions []string) bool {
	switch level {
	case LevelApprove:
		return CanApproveArea(roleSlug, area, permissions)
	case LevelManage:
		return CanManageArea(roleSlug, area, permissions)
	default:
		return HasAreaAccess(roleSlug, area, permissions)
	}
}

// VisibleAreas returns the areas HasAreaAccess admits, in sidebar order.
func VisibleAreas(roleSlug string, permissions []string) []Area {
	var out []Area
	for _, a := range Areas {
		if HasAreaAccess(roleSlug, a, permissions) {
			out = append(out, a)
		}
	}
	return out
}

func claimsGrant(permissions []string, area Area, level Level) bool {
	claims := NormalizeClaims(permissions)
	if len(claims) == 0 {
		return false
	}
	levels := impliedBy(level)
	for _, c := range claims {
		for _, l := range levels {
			if claimMatches(c, area, l) {
				return true
			}
		}
	}
	return false
}

// impliedBy lists the levels whose claims satisfy a check at level.
func impliedBy(level Level) []Level {
	switch level {
	case LevelApprove:
		return []Level{LevelApprove}
	case LevelManage:
		return []Level{LevelManage, LevelApprove}
	default:
		return []Level{LevelView, LevelManage, LevelApprove}
	}
}

func isWildcardClaim(claim string) bool {
	return claim == "*" || claim == "all" || claim == "full_access"
}

func claimMatches(claim string, area Area, level Level) bool {
	if isWildcardClaim(claim) {
		return true
	}

	a, l := string(area), string(level)
	for _, p := range []string{a + ":*", a + ".*", a + "_all", a + ".all", a + ".full", "*:" + a, "*." + a, l + ":*", l + ".*"} {
		if strings.Contains(claim, p) {
			return true
		}
	}

	tokens := strings.Fields(claimSeparators.ReplaceAllString(claim, " "))
	return containsAny(tokens, areaAliases[area]) && containsAny(tokens, levelAliases[level])
}

func containsAny(tokens, want []string) bool {
	for _, w := range want {
		for _, t := range tokens {
			if t == w {
				return true
			}
		}
	}
	return false
}
