// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package web serves the server-rendered ERP pages: login, dashboard,
// the catalog-driven CRUD screens, finance guides and the payment portal.
package web

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/guides"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/observability"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/logger"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/resource"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/session"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/web/ui"
)

// Backend is the part of the REST client the pages use.
type Backend interface {
	List(ctx context.Context, token, resourcePath string, params backend.ListParams) (*backend.Page, error)
	ListAll(ctx context.Context, token, resourcePath string, params backend.ListParams) ([]backend.Row, error)
	Get(ctx context.Context, token, resourcePath, id string) (backend.Row, error)
	Create(ctx context.Context, token, resourcePath string, payload map[string]any) (backend.Row, error)
	Update(ctx context.Context, token, resourcePath, id string, payload map[string]any) (backend.Row, error)
	Delete(ctx context.Context, token, resourcePath, id string) error
	Action(ctx context.Context, token, resourcePath, id, action string, payload map[string]any) (backend.Row, error)
	Upload(ctx context.Context, token, path, field, filename string, content io.Reader) (backend.Row, error)
	CreatePaymentIntent(ctx context.Context, token string, req backend.PaymentIntentRequest) (*backend.PaymentIntent, error)
}

// Config holds page settings.
type Config struct {
	Version        string
	PageSize       int
	Locale         string
	Currency       string
	PublishableKey string
}

// Deps are the collaborators of the handler.
type Deps struct {
	Backend    Backend
	Bridge     *session.Bridge
	Google     *session.GoogleSignIn
	Catalog    *resource.Catalog
	Guides     *guides.Library
	Options    *resource.OptionResolver
	Middleware *Middleware
	Logger     *logger.Logger
}

// Handler renders every page.
type Handler struct {
	backend Backend
	bridge  *session.Bridge
	google  *session.GoogleSignIn
	catalog *resource.Catalog
	guides  *guides.Library
	options *resource.OptionResolver
	mw      *Middleware
	format  *resource.Formatter
	config  Config
	logger  *logger.Logger
}

// NewHandler creates the page handler.
func NewHandler(deps Deps, cfg Config) *Handler {
	if cfg.PageSize <= 0 {
		cfg.PageSize = backend.DefaultPageSize
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	options := deps.Options
	if options == nil {
		options = resource.NewOptionResolver(nil, log)
	}
	return &Handler{
		backend: deps.Backend,
		bridge:  deps.Bridge,
		google:  deps.Google,
		catalog: deps.Catalog,
		guides:  deps.Guides,
		options: options,
		mw:      deps.Middleware,
		format:  resource.NewFormatter(cfg.Locale, cfg.Currency),
		config:  cfg,
		logger:  log.Named("pages"),
	}
}

// ============================================================================
// Rendering
// ============================================================================

// pageData creates base PageData with context injections.
func (h *Handler) pageData(r *http.Request, title, active string) *ui.PageData {
	data := &ui.PageData{
		Title:     title,
		Active:    active,
		CSRFToken: CSRFTokenFromContext(r.Context()),
		Version:   h.config.Version,
		Flash:     FlashFromContext(r.Context()),
	}
	snap := SessionFromContext(r.Context())
	if snap.Authenticated {
		data.User = &ui.UserData{Username: snap.Username, RoleName: snap.Role.Name, RoleSlug: snap.RoleSlug}
		data.Nav = h.nav(snap)
	}
	return data
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data *ui.PageData, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := ui.Layout(data, body).Render(r.Context(), w); err != nil {
		h.logger.Error("render failed", "path", r.URL.Path, "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := ui.Page("خطأ", "", func(hw *ui.Writer) {
		ui.Alert(hw, "error", message)
		hw.Elem("a", "العودة إلى لوحة التحكم", ui.A("href", DashboardPath), ui.Class("btn"))
	})
	h.render(w, r, status, h.pageData(r, "خطأ", ""), body)
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, notFoundMessage)
}

func (h *Handler) flash(w http.ResponseWriter, kind, message string) {
	if h.mw != nil {
		h.mw.SetFlash(w, kind, message)
	}
}

// ============================================================================
// Backend calls
// ============================================================================

// call runs fn with a usable access token, refreshing once on a 401.
func (h *Handler) call(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, token string) error) error {
	ctx := r.Context()
	err := h.bridge.Call(ctx, w, TokensFromContext(ctx), func(token string) error {
		return fn(ctx, token)
	})
	observability.RecordError(ctx, err)
	return err
}

// optionList lists option rows with the request's current token. The
// session middleware has already refreshed it, and option lookups run
// concurrently, so they do not go through the refresh path.
func (h *Handler) optionList(r *http.Request) resource.ListFunc {
	token := TokensFromContext(r.Context()).Access
	return func(ctx context.Context, resourcePath string, params backend.ListParams) (*backend.Page, error) {
		return h.backend.List(ctx, token, resourcePath, params)
	}
}

func optionScope(s session.Snapshot) string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.Username
}

// ============================================================================
// Navigation
// ============================================================================

const (
	guidesPath   = "/dashboard/finance/guides"
	paymentsPath = "/portal/payments"
)

// nav is the soft gate: areas the session cannot view are left out.
func (h *Handler) nav(s session.Snapshot) []ui.NavSection {
	sections := []ui.NavSection{{
		Title: "الرئيسية",
		Items: []ui.NavItem{
			{Label: "لوحة التحكم", Href: DashboardPath},
			{Label: "صلاحياتي", Href: AccessPath},
		},
	}}
	if h.catalog != nil {
		for i := range h.catalog.Sections {
			sec := &h.catalog.Sections[i]
			if !s.HasAreaAccess(sec.Area) {
				continue
			}
			ns := ui.NavSection{Title: sec.Title, Href: "/dashboard/" + sec.Area.Slug()}
			for j := range sec.Pages {
				ns.Items = append(ns.Items, ui.NavItem{Label: sec.Pages[j].Title, Href: sec.Pages[j].Href()})
			}
			if sec.Area == access.AreaFinance && h.guides != nil && len(h.guides.Topics()) > 0 {
				ns.Items = append(ns.Items, ui.NavItem{Label: "أدلة المالية", Href: guidesPath})
			}
			sections = append(sections, ns)
		}
	}
	sections = append(sections, ui.NavSection{
		Title: "البوابة",
		Items: []ui.NavItem{{Label: "الدفع الإلكتروني", Href: paymentsPath}},
	})
	return sections
}
