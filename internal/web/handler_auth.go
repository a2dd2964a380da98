// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/web/ui"
)

const (
	credentialsRequired = "أدخل اسم المستخدم وكلمة المرور."
	googleFailed        = "تعذر تسجيل الدخول عبر Google. حاول مرة أخرى."
	tooManyAttempts     = "محاولات كثيرة. انتظر دقيقة ثم حاول مرة أخرى."
)

// Login error codes carried in ?error=. Only known codes are shown.
const (
	errCodeGoogle    = "google"
	errCodeThrottled = "throttled"
)

var loginErrors = map[string]string{
	errCodeGoogle:    googleFailed,
	errCodeThrottled: tooManyAttempts,
}

type loginView struct {
	Next          string
	Username      string
	Error         string
	GoogleEnabled bool
	CSRFToken     string
}

func loginForm(v loginView) func(h *ui.Writer) {
	return func(h *ui.Writer) {
		if v.Error != "" {
			ui.Alert(h, "error", v.Error)
		}
		h.Open("form", ui.A("method", "post"), ui.A("action", LoginPath), ui.Class("resource-form"))
		ui.CSRFField(h, v.CSRFToken)
		h.Void("input", ui.A("type", "hidden"), ui.A("name", "next"), ui.A("value", v.Next))

		h.Open("div", ui.Class("form-field"))
		h.Elem("label", "اسم المستخدم", ui.A("for", "username"))
		h.Void("input", ui.A("id", "username"), ui.A("name", "username"), ui.A("value", v.Username),
			ui.A("autocomplete", "username"), ui.If(true, "required"))
		h.Close("div")

		h.Open("div", ui.Class("form-field"))
		h.Elem("label", "كلمة المرور", ui.A("for", "password"))
		h.Void("input", ui.A("id", "password"), ui.A("name", "password"), ui.A("type", "password"),
			ui.A("autocomplete", "current-password"), ui.If(true, "required"))
		h.Close("div")

		h.Open("div", ui.Class("wide resource-toolbar"))
		h.Elem("button", "دخول", ui.A("type", "submit"), ui.Class("btn btn-primary"))
		if v.GoogleEnabled {
			h.Elem("a", "الدخول عبر Google", ui.A("href", LoginPath+"/google?next="+url.QueryEscape(v.Next)), ui.Class("btn"))
		}
		h.Close("div")
		h.Close("form")
	}
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, v loginView) {
	v.CSRFToken = CSRFTokenFromContext(r.Context())
	v.GoogleEnabled = h.google.Enabled()
	data := h.pageData(r, "تسجيل الدخول", LoginPath)
	data.Bare = true
	h.render(w, r, status, data, ui.Page("تسجيل الدخول", "أدخل بيانات حسابك للمتابعة.", loginForm(v)))
}

// LoginPage handles GET /login.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.renderLogin(w, r, http.StatusOK, loginView{Next: safeNext(q.Get("next")), Error: loginErrors[q.Get("error")]})
}

// LoginSubmit handles POST /login. Both cookies are set on success; any
// failure clears them and shows the backend message as is.
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	v := loginView{Next: safeNext(r.FormValue("next")), Username: username}

	if username == "" || password == "" {
		v.Error = credentialsRequired
		h.renderLogin(w, r, http.StatusBadRequest, v)
		return
	}

	if _, err := h.bridge.Login(r.Context(), w, username, password); err != nil {
		v.Error = errorMessage(err)
		h.renderLogin(w, r, statusFor(err), v)
		return
	}
	h.logger.Info("user signed in", "username", username)
	http.Redirect(w, r, v.Next, http.StatusSeeOther)
}

// GoogleBegin handles GET /login/google.
func (h *Handler) GoogleBegin(w http.ResponseWriter, r *http.Request) {
	if !h.google.Enabled() {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	target, err := h.google.Begin(r.Context(), w)
	if err != nil {
		h.logger.Error("google sign-in start failed", "error", err)
		http.Redirect(w, r, LoginPath+"?error="+errCodeGoogle, http.StatusSeeOther)
		return
	}
	next := safeNext(r.URL.Query().Get("next"))
	http.SetCookie(w, h.mw.cookie(CookieLoginNext, url.QueryEscape(next), 10*time.Minute))
	http.Redirect(w, r, target, http.StatusFound)
}

// GoogleCallback handles GET /login/google/callback.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	next := DashboardPath
	if ck, err := r.Cookie(CookieLoginNext); err == nil {
		if raw, err := url.QueryUnescape(ck.Value); err == nil {
			next = safeNext(raw)
		}
		http.SetCookie(w, h.mw.cookie(CookieLoginNext, "", 0))
	}

	idToken, err := h.google.Complete(r.Context(), w, r)
	if err != nil {
		h.logger.Warn("google callback rejected", "error", err)
		http.Redirect(w, r, LoginPath+"?error="+errCodeGoogle, http.StatusSeeOther)
		return
	}
	if _, err := h.bridge.LoginGoogle(r.Context(), w, idToken, ""); err != nil {
		h.renderLogin(w, r, statusFor(err), loginView{Next: next, Error: errorMessage(err)})
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout clears both token cookies and returns to the login page. It
// succeeds whatever the cookie state.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.bridge.Logout(w)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}
