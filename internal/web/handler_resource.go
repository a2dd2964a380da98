// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/observability"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/resource"
)

// Upload messages.
const (
	importField       = "file"
	importMissingFile = "اختر ملف إكسل أولًا."
	importFailed      = "تعذر استيراد القيود."
	importDone        = "تم استيراد %d قيد بنجاح."
)

// resourcePage resolves {area}/{page} and the session's gates. It writes
// the 404 or 403 response itself and returns false when the page must not
// be served.
func (h *Handler) resourcePage(w http.ResponseWriter, r *http.Request) (*resource.Page, resource.Gates, bool) {
	p, ok := h.catalog.Page(chi.URLParam(r, "area"), chi.URLParam(r, "page"))
	if !ok {
		h.NotFound(w, r)
		return nil, resource.Gates{}, false
	}
	observability.AddSpanAttributes(r.Context(),
		attribute.String("erp.area", string(p.Area)),
		attribute.String("erp.resource_path", p.ResourcePath),
	)
	snap := SessionFromContext(r.Context())
	g := resource.Evaluate(p, snap.RoleSlug, snap.Permissions)
	if !g.View {
		h.forbidden(w, r, p)
		return nil, g, false
	}
	return p, g, true
}

func (h *Handler) forbidden(w http.ResponseWriter, r *http.Request, p *resource.Page) {
	h.render(w, r, http.StatusForbidden, h.pageData(r, p.Title, p.Href()), resource.Forbidden(p))
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, p *resource.Page, body templ.Component) {
	h.render(w, r, status, h.pageData(r, p.Title, p.Href()), body)
}

func pageNumber(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ============================================================================
// List
// ============================================================================

// List handles GET /dashboard/{area}/{page}.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, g, ok := h.resourcePage(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	v := &resource.ListView{
		Page:      p,
		Gates:     g,
		Search:    strings.TrimSpace(q.Get("search")),
		Status:    q.Get("status"),
		PageNum:   pageNumber(q.Get("page")),
		PageSize:  h.config.PageSize,
		Format:    h.format,
		CSRFToken: CSRFTokenFromContext(r.Context()),
	}
	params := backend.ListParams{
		Page:     v.PageNum,
		PageSize: v.PageSize,
		Search:   v.Search,
		Ordering: p.ListOrdering(),
		Status:   v.Status,
	}

	err := h.call(w, r, func(ctx context.Context, token string) error {
		result, err := h.backend.List(ctx, token, p.ResourcePath, params)
		v.Result = result
		return err
	})
	if err != nil {
		if sessionLost(w, r, err) {
			return
		}
		h.logger.Warn("list failed", "resource", p.ResourcePath, "error", err)
		v.Error = errorMessage(err)
		v.Result = &backend.Page{}
	}
	h.renderPage(w, r, http.StatusOK, p, resource.List(v))
}

// ============================================================================
// Create and edit
// ============================================================================

func (h *Handler) formView(r *http.Request, p *resource.Page, id string, values resource.Values) *resource.FormView {
	snap := SessionFromContext(r.Context())
	return &resource.FormView{
		Page:      p,
		ID:        id,
		Values:    values,
		Options:   h.options.Resolve(r.Context(), optionScope(snap), p.Fields, values, h.optionList(r)),
		Format:    h.format,
		CSRFToken: CSRFTokenFromContext(r.Context()),
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, v *resource.FormView) {
	h.renderPage(w, r, status, v.Page, resource.Form(v))
}

// NewForm handles GET /dashboard/{area}/{page}/new.
func (h *Handler) NewForm(w http.ResponseWriter, r *http.Request) {
	p, g, ok := h.resourcePage(w, r)
	if !ok {
		return
	}
	if !g.Create {
		h.forbidden(w, r, p)
		return
	}
	h.renderForm(w, r, http.StatusOK, h.formView(r, p, "", resource.InitialValues(p.Fields, nil)))
}

// EditForm handles GET /dashboard/{area}/{page}/{id}/edit.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	p, g, ok := h.resourcePage(w, r)
	if !ok {
		return
	}
	if !g.Edit {
		h.forbidden(w, r, p)
		return
	}
	id := chi.URLParam(r, "id")

	var row backend.Row
	err := h.call(w, r, func(ctx context.Context, token string) error {
		var err error
		row, err = h.backend.Get(ctx, token, p.ResourcePath, id)
		return err
	})
	if err != nil {
		if sessionLost(w, r, err) {
			return
		}
		h.renderError(w, r, statusFor(err), errorMessage(err))
		return
	}

	v := h.formView(r, p, id, resource.InitialValues(p.Fields, row))
	if p.Timeline != nil {
		tv := p.Timeline.Resolve(row)
		v.Timeline = &tv
	}
	h.renderForm(w, r, http.StatusOK, v)
}

// CreateSubmit handles POST /dashboard/{area}/{page}/new.
func (h *Handler) CreateSubmit(w http.ResponseWriter, r *http.Request) {
	p, g, ok := h.resourcePage(w, r)
	if !ok {
		return
	}
	if !g.Create {
		h.forbidden(w, r, p)
		return
	}
	h.submitForm(w, r, p, "")
}

// EditSubmit handles POST /dashboard/{area}/{page}/{id}/edit.
func (h *Handler) EditSubmit(w http.ResponseWriter, r *http.Request) {
	p, g, ok := h.resourcePage(w, r)
	if !ok {
		return
	}
	if !g.Edit {
		h.forbidden(w, r, p)
		return
	}
	h.submitForm(w, r, p, chi.URLParam(r, "id"))
}

// submitForm validates locally first; nothing reaches the backend while
// a blocking message remains.
func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request, p *resource.Page, id string) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "تعذر قراءة النموذج.")
		return
	}
	values := resource.ParseForm(p.Fields, r.PostForm)

	if resource.IsRefresh(r.PostForm) {
		resource.ApplyEditorCommands(p.Fields, values, r.PostForm)
		resource.ResetDependents(p.Fields, values, r.PostForm)
		h.renderForm(w, r, http.StatusOK, h.formView(r, p, id, values))
		return
	}

	if errs := resource.Validate(p.Fields, values); len(errs) > 0 {
		v := h.formView(r, p, id, values)
		v.Errors = errs
		h.renderForm(w, r, http.StatusUnprocessableEntity, v)
		return
	}
	payload, err := resource.Payload(p.Fields, values)
	if err != nil {
		v := h.formView(r, p, id, values)
		v.Errors = []string{errorMessage(err)}
		h.renderForm(w, r, statusFor(err), v)
		return
	}

	err = h.call(w, r, func(ctx context.Context, token string) error {
		var err error
		if id == "" {
			_, err = h.backend.Create(ctx, token, p.ResourcePath, payload)
		} else {
			_, err = h.backend.Update(ctx, token, p.ResourcePath, id, payload)
		}
		return err
	})
	if err != nil {
		if sessionLost(w, r, err) {
			return
		}
		v := h.formView(r, p, id, values)
		v.Errors = []string{errorMessage(err)}
		if apiErr, ok := backend.AsAPIError(err); ok {
			v.FieldErrors = apiErr.FieldErrors
		}
		h.renderForm(w, r, statusFor(err), v)
		return
	}

	h.options.InvalidateOptions(r.Context(), p.ResourcePath)
	h.flash(w, "success", savedMessage)
	http.Redirect(w, r, p.Href(), http.StatusSeeOther)
}

// ============================================================================
// Delete
// ============================================================================

func (h *Handler) deleteView(r *http.Request, p *resource.Page) *resource.DeleteView {
	return &resource.DeleteView{
		Page:      p,
		ID:        chi.URLParam(r, "id"),
		CSRFToken: CSRFTokenFromContext(r.Context()),
	}
}

// DeleteConfirm handles GET /dashboard/{area}/{page}/{id}/delete.
func (h *Handler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	p, g, ok := h.resourcePage(w, r)
	if !ok {
		return
	}
	if !g.Delete {
		h.forbidden(w, r, p)
		return
	}
	v := h.deleteView(r, p)
	h.renderPage(w, r, http.StatusOK, p, resource.Delete(v))
}

// DeleteSubmit handles POST /dashboard/{area}/{page}/{id}/delete.
func (h *Handler) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	p, g, ok := h.resourcePage(w, r)
	if !ok {
		return
	}
	if !g.Delete {
		h.forbidden(w, r, p)
		return
	}
	v := h.deleteView(r, p)
	err := h.call(w, r, func(ctx context.Context, token string) error {
		return h.backend.Delete(ctx, token, p.ResourcePath, v.ID)
	})
	if err != nil {
		if sessionLost(w, r, err) {
			return
		}
		v.Error = errorMessage(err)
		h.renderPage(w, r, statusFor(err), p, resource.Delete(v))
		return
	}
	h.options.InvalidateOptions(r.Context(), p.ResourcePath)
	h.flash(w, "success", deletedMessage)
	http.Redirect(w, r, p.Href(), http.StatusSeeOther)
}

// ============================================================================
// Workflow actions
// ============================================================================

// actionTarget resolves the action and, for payloads built from the record,
// the current row.
func (h *Handler) actionTarget(w http.ResponseWriter, r *http.Request) (*resource.Page, *resource.Action, backend.Row, bool) {
	p, g, ok := h.resourcePage(w, r)
	if !ok {
		return nil, nil, nil, false
	}
	a, ok := p.Action(chi.URLParam(r, "action"))
	if !ok {
		h.NotFound(w, r)
		return nil, nil, nil, false
	}
	if !g.CanRun(a.Name) {
		h.forbidden(w, r, p)
		return nil, nil, nil, false
	}
	if a.Payload != resource.PayloadReceiveLines {
		return p, a, nil, true
	}

	var row backend.Row
	err := h.call(w, r, func(ctx context.Context, token string) error {
		var err error
		row, err = h.backend.Get(ctx, token, p.ResourcePath, chi.URLParam(r, "id"))
		return err
	})
	if err != nil {
		if !sessionLost(w, r, err) {
			h.renderError(w, r, statusFor(err), errorMessage(err))
		}
		return nil, nil, nil, false
	}
	return p, a, row, true
}

func (h *Handler) renderAction(w http.ResponseWriter, r *http.Request, status int, p *resource.Page, v *resource.ActionView) {
	h.renderPage(w, r, status, p, resource.ActionDialog(v))
}

// ActionConfirm handles GET /dashboard/{area}/{page}/{id}/actions/{action}.
func (h *Handler) ActionConfirm(w http.ResponseWriter, r *http.Request) {
	p, a, row, ok := h.actionTarget(w, r)
	if !ok {
		return
	}
	d := resource.NormalizeDialog(a, row)
	h.renderAction(w, r, http.StatusOK, p, &resource.ActionView{
		Page:      p,
		Action:    a,
		ID:        chi.URLParam(r, "id"),
		Dialog:    d,
		Values:    resource.DialogDefaults(d.Fields),
		CSRFToken: CSRFTokenFromContext(r.Context()),
	})
}

// ActionSubmit handles POST /dashboard/{area}/{page}/{id}/actions/{action}.
func (h *Handler) ActionSubmit(w http.ResponseWriter, r *http.Request) {
	p, a, row, ok := h.actionTarget(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "تعذر قراءة النموذج.")
		return
	}
	id := chi.URLParam(r, "id")
	d := resource.NormalizeDialog(a, row)
	values := resource.ParseDialog(d.Fields, r.PostForm)
	v := &resource.ActionView{
		Page:      p,
		Action:    a,
		ID:        id,
		Dialog:    d,
		Values:    values,
		CSRFToken: CSRFTokenFromContext(r.Context()),
	}
	if errs := resource.ValidateDialog(d.Fields, values); len(errs) > 0 {
		v.Errors = errs
		h.renderAction(w, r, http.StatusUnprocessableEntity, p, v)
		return
	}

	body, skip, err := resource.BuildPayload(a, row, resource.DialogPayload(d.Fields, values))
	if err != nil {
		v.Errors = []string{errorMessage(err)}
		h.renderAction(w, r, statusFor(err), p, v)
		return
	}
	if skip {
		h.flash(w, "info", actionSkipped)
		http.Redirect(w, r, p.Href(), http.StatusSeeOther)
		return
	}

	err = h.call(w, r, func(ctx context.Context, token string) error {
		_, err := h.backend.Action(ctx, token, p.ResourcePath, id, a.Name, body)
		return err
	})
	if err != nil {
		if sessionLost(w, r, err) {
			return
		}
		v.Errors = []string{errorMessage(err)}
		h.renderAction(w, r, statusFor(err), p, v)
		return
	}
	h.options.InvalidateOptions(r.Context(), p.ResourcePath)
	h.flash(w, "success", actionDoneMessage)
	http.Redirect(w, r, p.Href(), http.StatusSeeOther)
}

// ============================================================================
// Import
// ============================================================================

// importError prefers the first row error the backend reports.
func importError(err error) string {
	apiErr, ok := backend.AsAPIError(err)
	if !ok {
		return errorMessage(err)
	}
	if list, ok := apiErr.Payload["errors"].([]any); ok && len(list) > 0 {
		if first, ok := list[0].(map[string]any); ok {
			if msg, ok := first["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	if detail, ok := apiErr.Payload["detail"].(string); ok && detail != "" {
		return detail
	}
	return importFailed
}

// Import handles POST /dashboard/{area}/{page}/import.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	p, g, ok := h.resourcePage(w, r)
	if !ok {
		return
	}
	if p.UploadPath == "" {
		h.NotFound(w, r)
		return
	}
	if !g.Create {
		h.forbidden(w, r, p)
		return
	}

	file, header, err := r.FormFile(importField)
	if err != nil {
		h.flash(w, "error", importMissingFile)
		http.Redirect(w, r, p.Href(), http.StatusSeeOther)
		return
	}
	defer file.Close()

	var result backend.Row
	err = h.call(w, r, func(ctx context.Context, token string) error {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return err
		}
		var err error
		result, err = h.backend.Upload(ctx, token, p.UploadPath, importField, header.Filename, file)
		return err
	})
	if err != nil {
		if sessionLost(w, r, err) {
			return
		}
		h.logger.Warn("import failed", "path", p.UploadPath, "error", err)
		h.flash(w, "error", importError(err))
		http.Redirect(w, r, p.Href(), http.StatusSeeOther)
		return
	}

	created, _ := strconv.Atoi(fmt.Sprint(result["created_count"]))
	h.options.InvalidateOptions(r.Context(), p.ResourcePath)
	h.flash(w, "success", fmt.Sprintf(importDone, created))
	http.Redirect(w, r, p.Href(), http.StatusSeeOther)
}
