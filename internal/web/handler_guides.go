// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/web/ui"
)

const guidesTitle = "أدلة المالية"

// Guides handles GET /dashboard/finance/guides.
func (h *Handler) Guides(w http.ResponseWriter, r *http.Request) {
	var items []ui.NavItem
	descs := map[string]string{}
	if h.guides != nil {
		for _, t := range h.guides.Topics() {
			items = append(items, ui.NavItem{Label: t.Title, Href: t.Href()})
			descs[t.Href()] = t.Summary
		}
	}
	body := ui.Page(guidesTitle, "شرح خطوات العمل في وحدة المالية.", func(hw *ui.Writer) {
		ui.CardGrid(hw, items, descs)
	})
	h.render(w, r, http.StatusOK, h.pageData(r, guidesTitle, guidesPath), body)
}

// GuideTopic handles GET /dashboard/finance/guides/{topic}.
func (h *Handler) GuideTopic(w http.ResponseWriter, r *http.Request) {
	if h.guides == nil {
		h.NotFound(w, r)
		return
	}
	t, ok := h.guides.Topic(chi.URLParam(r, "topic"))
	if !ok {
		h.NotFound(w, r)
		return
	}
	body := ui.Page(t.Title, t.Summary, func(hw *ui.Writer) {
		hw.Open("article", ui.Class("guide"))
		hw.Raw(t.HTML)
		hw.Close("article")
		hw.Elem("a", "كل الأدلة", ui.A("href", guidesPath), ui.Class("btn"))
	})
	h.render(w, r, http.StatusOK, h.pageData(r, t.Title, guidesPath), body)
}
