// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package ui

// PageData contains common data for all pages
type PageData struct {
	Title       string
	Description string
	Active      string // href of the current sidebar item
	User        *UserData
	CSRFToken   string
	Version     string
	Flash       *FlashData
	Nav         []NavSection
	// Bare pages (login) render without the sidebar and header.
	Bare bool
}

// UserData contains the signed-in user shown in the header.
type UserData struct {
	Username string
	RoleName string
	RoleSlug string
}

// FlashData contains flash message data
type FlashData struct {
	Type    string // success, error, warning, info
	Message string
}

// NavSection is one sidebar group.
type NavSection struct {
	Title string
	Href  string
	Items []NavItem
}

// NavItem is one sidebar link.
type NavItem struct {
	Label string
	Href  string
}

// IsActive reports whether href is the current page or one of its parents.
func (p *PageData) IsActive(href string) bool {
	if p.Active == "" || href == "" {
		return false
	}
	if p.Active == href {
		return true
	}
	return len(p.Active) > len(href) && p.Active[:len(href)] == href && p.Active[len(href)] == '/'
}
