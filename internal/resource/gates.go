// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/permmap"
)

// Gates are the operations the current session may perform on a page.
type Gates struct {
	View    bool
	Create  bool
	Edit    bool
	Delete  bool
	Actions []Action
}

// ManageAny reports whether any write operation is allowed. Option lookups
// are skipped otherwise.
func (g Gates) ManageAny() bool {
	return g.Create || g.Edit || g.Delete
}

// RowControls reports whether the table needs an actions column.
func (g Gates) RowControls() bool {
	return g.Edit || g.Delete || len(g.Actions) > 0
}

// CanRun reports whether the named action is visible.
func (g Gates) CanRun(name string) bool {
	for _, a := range g.Actions {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Evaluate computes the gates of p for a role and its permission claims. A
// claim naming the resource's CRUD or action codename grants directly;
// otherwise the area level decides. Pages outside any area are open.
func Evaluate(p *Page, roleSlug string, permissions []string) Gates {
	area := p.Area
	if area == "" {
		area, _ = access.AreaForResourcePath(p.ResourcePath)
	}
	level := func(l access.Level) bool {
		if area == "" {
			return true
		}
		return access.Allows(roleSlug, area, l, permissions)
	}

	def, mapped := permmap.Lookup(p.ResourcePath)
	claimsActive := len(access.NormalizeClaims(permissions)) > 0 && mapped
	crud := func(op permmap.Operation, l access.Level) bool {
		if claimsActive && access.HasAnyPermissionClaim(permissions, permmap.CrudCodenames(def, op)) {
			return true
		}
		return level(l)
	}

	g := Gates{
		View:   crud(permmap.OpView, access.LevelView),
		Create: crud(permmap.OpAdd, access.LevelManage),
		Edit:   crud(permmap.OpChange, access.LevelManage),
		Delete: crud(permmap.OpDelete, access.LevelManage),
	}
	g.Create = g.Create && p.CreateAllowed()
	g.Edit = g.Edit && p.EditAllowed()
	g.Delete = g.Delete && p.DeleteAllowed()

	for _, a := range p.Actions {
		if claimsActive && access.HasAnyPermissionClaim(permissions, permmap.ActionCodenames(def, a.Name)) {
			g.Actions = append(g.Actions, a)
			continue
		}
		if level(a.Level()) {
			g.Actions = append(g.Actions, a)
		}
	}
	return g
}
