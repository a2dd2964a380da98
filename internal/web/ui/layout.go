// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package ui

import (
	"github.com/a-h/templ"
)

// AppName is shown in the title bar and the sidebar header.
const AppName = "نظام تخطيط الموارد"

const stylesheet = `
:root{--bg:#f4f6f8;--panel:#fff;--ink:#1f2933;--muted:#616e7c;--line:#d9e2ec;--brand:#0b6e4f;--danger:#b42318;--warn:#b54708}
*{box-sizing:border-box}
body{margin:0;font-family:Tahoma,Arial,sans-serif;background:var(--bg);color:var(--ink)}
a{color:var(--brand);text-decoration:none}
.shell{display:flex;min-height:100vh}
.sidebar{width:250px;background:#102a43;color:#fff;padding:1rem}
.sidebar a{color:#d9e2ec;display:block;padding:.3rem .5rem;border-radius:4px}
.sidebar a.active{background:#243b53;color:#fff}
.sidebar h4{margin:1rem 0 .3rem;font-size:.85rem;color:#9fb3c8}
.main{flex:1;padding:1.2rem}
.topbar{display:flex;justify-content:space-between;align-items:center;margin-bottom:1rem}
.resource-section{background:var(--panel);border:1px solid var(--line);border-radius:8px;padding:1rem;margin-bottom:1rem}
.resource-header{display:flex;justify-content:space-between;align-items:flex-start;gap:1rem}
.resource-toolbar{display:flex;gap:.5rem;flex-wrap:wrap;margin:.8rem 0}
.resource-table{width:100%;border-collapse:collapse}
.resource-table th,.resource-table td{border-bottom:1px solid var(--line);padding:.45rem;text-align:right;vertical-align:top}
.resource-form{display:grid;grid-template-columns:repeat(auto-fill,minmax(240px,1fr));gap:.8rem}
.resource-form .wide{grid-column:1/-1}
.field-help{color:var(--muted);font-size:.8rem}
.btn{border:1px solid var(--line);background:#fff;padding:.35rem .8rem;border-radius:4px;cursor:pointer}
.btn-primary{background:var(--brand);color:#fff;border-color:var(--brand)}
.btn-success{background:#067647;color:#fff}
.btn-danger{background:var(--danger);color:#fff}
.btn-warning{background:var(--warn);color:#fff}
.alert{padding:.6rem .8rem;border-radius:6px;margin:.6rem 0}
.alert-error{background:#fef3f2;color:var(--danger)}
.alert-success{background:#ecfdf3;color:#067647}
.alert-warning{background:#fffaeb;color:var(--warn)}
.alert-info{background:#eff8ff;color:#175cd3}
.status-badge{padding:.1rem .5rem;border-radius:999px;font-size:.8rem}
.status-success{background:#ecfdf3;color:#067647}.status-warning{background:#fffaeb;color:var(--warn)}
.status-danger{background:#fef3f2;color:var(--danger)}.status-info{background:#eff8ff;color:#175cd3}
.status-neutral{background:#f2f4f7;color:#344054}
.section-grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(220px,1fr));gap:.8rem}
.section-card{display:block;background:var(--panel);border:1px solid var(--line);border-radius:8px;padding:.9rem;color:var(--ink)}
.timeline{display:flex;gap:.5rem;flex-wrap:wrap;list-style:none;padding:0}
.timeline li{border:1px solid var(--line);border-radius:6px;padding:.4rem .6rem}
.timeline li.completed{border-color:#067647}.timeline li.current{border-color:var(--brand);font-weight:bold}
.totals{display:flex;gap:1rem;flex-wrap:wrap;margin-top:.5rem}
.pagination{display:flex;gap:.5rem;align-items:center;margin-top:.8rem}
`

// Layout wraps body in the application shell.
func Layout(data *PageData, body templ.Component) templ.Component {
	return Component(func(h *Writer) {
		h.Raw("<!DOCTYPE html>")
		h.Open("html", A("lang", "ar"), A("dir", "rtl"))
		h.Open("head")
		h.Void("meta", A("charset", "utf-8"))
		h.Void("meta", A("name", "viewport"), A("content", "width=device-width, initial-scale=1"))
		if data.CSRFToken != "" {
			h.Void("meta", A("name", "csrf-token"), A("content", data.CSRFToken))
		}
		title := AppName
		if data.Title != "" {
			title = data.Title + " | " + AppName
		}
		h.Elem("title", title)
		h.Raw("<style>" + stylesheet + "</style>")
		h.Close("head")

		h.Open("body")
		if data.Bare {
			h.Wrap("main", func() {
				flash(h, data.Flash)
				h.Render(body)
			}, Class("main"))
			h.Close("body")
			h.Close("html")
			return
		}

		h.Open("div", Class("shell"))
		sidebar(h, data)
		h.Open("main", Class("main"))
		topbar(h, data)
		flash(h, data.Flash)
		h.Render(body)
		h.Close("main")
		h.Close("div")
		h.Close("body")
		h.Close("html")
	})
}

func sidebar(h *Writer, data *PageData) {
	h.Open("nav", Class("sidebar"), A("aria-label", "القائمة الرئيسية"))
	h.Elem("strong", AppName)
	for _, s := range data.Nav {
		if s.Href != "" {
			h.Open("h4")
			h.Elem("a", s.Title, A("href", s.Href), activeClass(data, s.Href, true))
			h.Close("h4")
		} else {
			h.Elem("h4", s.Title)
		}
		for _, item := range s.Items {
			h.Elem("a", item.Label, A("href", item.Href), activeClass(data, item.Href, false))
		}
	}
	h.Close("nav")
}

func activeClass(data *PageData, href string, exact bool) Attr {
	on := data.Active == href
	if !exact {
		on = data.IsActive(href)
	}
	return Attr{Name: "class", Value: "active", Off: !on}
}

func topbar(h *Writer, data *PageData) {
	h.Open("header", Class("topbar"))
	h.Elem("h2", data.Title)
	h.Open("div")
	if data.User != nil {
		name := data.User.Username
		if data.User.RoleName != "" {
			name += " (" + data.User.RoleName + ")"
		}
		h.Elem("span", name)
		h.Raw(" ")
		h.Open("form", A("method", "post"), A("action", "/logout"), A("style", "display:inline"))
		CSRFField(h, data.CSRFToken)
		h.Elem("button", "تسجيل الخروج", A("type", "submit"), Class("btn"))
		h.Close("form")
	}
	h.Close("div")
	h.Close("header")
}

func flash(h *Writer, f *FlashData) {
	if f == nil || f.Message == "" {
		return
	}
	Alert(h, f.Type, f.Message)
}

// Alert writes a banner. kind is success, error, warning or info.
func Alert(h *Writer, kind, message string) {
	if kind == "" {
		kind = "info"
	}
	role := "status"
	if kind == "error" {
		role = "alert"
	}
	h.Elem("div", message, Class("alert alert-"+kind), A("role", role))
}

// CSRFField writes the hidden token input every state-changing form carries.
func CSRFField(h *Writer, token string) {
	if token == "" {
		return
	}
	h.Void("input", A("type", "hidden"), A("name", CSRFFormField), A("value", token))
}

// CSRFFormField is the form field the CSRF middleware reads.
const CSRFFormField = "_csrf"

// Page renders a plain titled section around body, used by simple pages.
func Page(title, description string, body func(h *Writer)) templ.Component {
	return Component(func(h *Writer) {
		h.Open("section", Class("resource-section"))
		h.Open("header", Class("resource-header"))
		h.Open("div")
		h.Elem("h3", title)
		if description != "" {
			h.Elem("p", description)
		}
		h.Close("div")
		h.Close("header")
		body(h)
		h.Close("section")
	})
}

// CardGrid renders a grid of link cards.
func CardGrid(h *Writer, items []NavItem, descriptions map[string]string) {
	h.Open("div", Class("section-grid"))
	for _, item := range items {
		h.Open("a", A("href", item.Href), Class("section-card"))
		h.Elem("strong", item.Label)
		if d := descriptions[item.Href]; d != "" {
			h.Elem("p", d)
		}
		h.Close("a")
	}
	h.Close("div")
}
