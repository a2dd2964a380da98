// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/validator"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/resource"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/web/ui"
)

const (
	payPath       = "/portal/pay"
	portalTitle   = "الدفع الإلكتروني"
	noIntent      = "يرجى اختيار دفعة أو فاتورة قبل المتابعة."
	intentFailed  = "تعذر تحميل تفاصيل الدفع. حاول مرة أخرى."
	paymentDone   = "تم إتمام الدفع لهذه العملية."
	missingTarget = "أدخل رقم الفاتورة أو القسط."
	invalidAmount = "أدخل مبلغًا صحيحًا أكبر من صفر."
)

type paymentForm struct {
	Invoice     string `form:"invoice" validate:"required_without=Installment"`
	Installment string `form:"installment"`
	Amount      string `form:"amount" validate:"positive_number"`
	Currency    string `form:"currency"`
	Errors      []string
}

func (f *paymentForm) validate() {
	errs := validator.GetValidationErrors(validator.Validate(f))
	if _, ok := errs["invoice"]; ok {
		f.Errors = append(f.Errors, missingTarget)
	}
	if _, ok := errs["amount"]; ok {
		f.Errors = append(f.Errors, invalidAmount)
	}
}

func (h *Handler) currency() string {
	if h.config.Currency != "" {
		return h.config.Currency
	}
	return resource.DefaultCurrency
}

func (h *Handler) renderPaymentForm(w http.ResponseWriter, r *http.Request, status int, f *paymentForm) {
	token := CSRFTokenFromContext(r.Context())
	body := ui.Page(portalTitle, "إنشاء عملية دفع لفاتورة أو قسط.", func(hw *ui.Writer) {
		for _, msg := range f.Errors {
			ui.Alert(hw, "error", msg)
		}
		hw.Open("form", ui.A("method", "post"), ui.A("action", paymentsPath), ui.Class("resource-form"))
		ui.CSRFField(hw, token)
		input := func(name, label, value, typ string) {
			hw.Open("label", ui.A("for", name))
			hw.Text(label)
			hw.Close("label")
			hw.Void("input", ui.A("id", name), ui.A("name", name), ui.A("type", typ), ui.A("value", value))
		}
		input("invoice", "رقم الفاتورة", f.Invoice, "text")
		input("installment", "رقم القسط", f.Installment, "text")
		input("amount", "المبلغ", f.Amount, "number")
		input("currency", "العملة", f.Currency, "text")
		hw.Elem("button", "متابعة الدفع", ui.A("type", "submit"), ui.Class("btn btn-primary"))
		hw.Close("form")
	})
	h.render(w, r, status, h.pageData(r, portalTitle, paymentsPath), body)
}

// PaymentForm handles GET /portal/payments. invoice and installment may be
// prefilled from the query.
func (h *Handler) PaymentForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.renderPaymentForm(w, r, http.StatusOK, &paymentForm{
		Invoice:     q.Get("invoice"),
		Installment: q.Get("installment"),
		Amount:      q.Get("amount"),
		Currency:    h.currency(),
	})
}

// PaymentSubmit handles POST /portal/payments.
func (h *Handler) PaymentSubmit(w http.ResponseWriter, r *http.Request) {
	f := &paymentForm{
		Invoice:     strings.TrimSpace(r.PostFormValue("invoice")),
		Installment: strings.TrimSpace(r.PostFormValue("installment")),
		Amount:      strings.TrimSpace(r.PostFormValue("amount")),
		Currency:    strings.ToUpper(strings.TrimSpace(r.PostFormValue("currency"))),
	}
	if f.Currency == "" {
		f.Currency = h.currency()
	}
	if f.validate(); len(f.Errors) > 0 {
		h.renderPaymentForm(w, r, http.StatusUnprocessableEntity, f)
		return
	}

	var intent *backend.PaymentIntent
	err := h.call(w, r, func(ctx context.Context, token string) error {
		var err error
		intent, err = h.backend.CreatePaymentIntent(ctx, token, backend.PaymentIntentRequest{
			Invoice:     f.Invoice,
			Installment: f.Installment,
			Amount:      f.Amount,
			Currency:    f.Currency,
		})
		return err
	})
	if err != nil {
		if sessionLost(w, r, err) {
			return
		}
		f.Errors = []string{errorMessage(err)}
		h.renderPaymentForm(w, r, statusFor(err), f)
		return
	}
	http.Redirect(w, r, payPath+"?intent="+url.QueryEscape(intent.ID.String()), http.StatusSeeOther)
}

// Pay handles GET /portal/pay?intent=<id>.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("intent"))
	if id == "" {
		h.renderPay(w, r, http.StatusBadRequest, nil, noIntent)
		return
	}

	var row backend.Row
	err := h.call(w, r, func(ctx context.Context, token string) error {
		var err error
		row, err = h.backend.Get(ctx, token, backend.PaymentIntentPath, id)
		return err
	})
	if err != nil {
		if sessionLost(w, r, err) {
			return
		}
		h.logger.Warn("payment intent load failed", "intent", id, "error", err)
		h.renderPay(w, r, statusFor(err), nil, intentFailed)
		return
	}
	h.renderPay(w, r, http.StatusOK, row, "")
}

func (h *Handler) renderPay(w http.ResponseWriter, r *http.Request, status int, row backend.Row, errMsg string) {
	body := ui.Page(portalTitle, "", func(hw *ui.Writer) {
		if errMsg != "" {
			ui.Alert(hw, "error", errMsg)
			hw.Elem("a", "العودة", ui.A("href", paymentsPath), ui.Class("btn"))
			return
		}
		intentStatus, _ := row["status"].(string)
		cur, _ := row["currency"].(string)
		secret, _ := row["client_secret"].(string)

		hw.Open("dl", ui.Class("payment-summary"),
			ui.Opt("data-client-secret", secret),
			ui.Opt("data-publishable-key", h.config.PublishableKey))
		hw.Elem("dt", "المبلغ")
		hw.Elem("dd", h.format.Money(row["amount"], cur))
		hw.Elem("dt", "الحالة")
		hw.Elem("dd", resource.StatusLabel(intentStatus), ui.Class(resource.StatusClass(intentStatus)))
		hw.Close("dl")
		if intentStatus == "succeeded" {
			ui.Alert(hw, "success", paymentDone)
		}
	})
	h.render(w, r, status, h.pageData(r, portalTitle, paymentsPath), body)
}
