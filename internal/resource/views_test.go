// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func mustContain(t *testing.T, html string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(html, p) {
			t.Errorf("output missing %q", p)
		}
	}
}

func invoicePage() *Page {
	return &Page{
		Slug:         "invoices",
		Title:        "الفواتير",
		ResourcePath: "/v1/finance/invoices/",
		Area:         access.AreaFinance,
		Columns: []Column{
			{Key: "invoice_number", Title: "الرقم"},
			{Key: "status", Title: "الحالة", Format: FormatStatus},
			{Key: "total_amount", Title: "الإجمالي", Format: FormatMoney, CurrencyField: "currency"},
		},
		Fields:  invoiceFields(),
		Actions: []Action{{Label: "اعتماد", Name: "approve", Variant: "success"}},
	}
}

// ============================================================================
// List
// ============================================================================

func TestList_Empty(t *testing.T) {
	v := &ListView{
		Page:     invoicePage(),
		Gates:    Gates{View: true},
		Result:   &backend.Page{},
		PageNum:  1,
		PageSize: 20,
		Format:   NewFormatter("en", ""),
	}
	html := render(t, List(v))
	mustContain(t, html, EmptyMessage, `colspan="3"`, "الصفحة 1 من 1 (0 سجل)")
	if strings.Contains(html, "/new") {
		t.Error("create button shown without the create gate")
	}
}

func TestList_Rows(t *testing.T) {
	p := invoicePage()
	v := &ListView{
		Page: p,
		Gates: Gates{View: true, Create: true, Edit: true, Delete: true,
			Actions: p.Actions},
		Result: &backend.Page{Count: 45, Next: "x", Previous: "y", Results: []backend.Row{{
			"id":             json.Number("3"),
			"invoice_number": `<b>INV-1</b>`,
			"status":         "approved",
			"total_amount":   json.Number("1500"),
			"currency":       "USD",
		}}},
		Search:   "INV",
		PageNum:  2,
		PageSize: 20,
		Format:   NewFormatter("en", ""),
	}
	html := render(t, List(v))

	mustContain(t, html,
		"&lt;b&gt;INV-1&lt;/b&gt;",
		`class="status-badge status-success"`, "معتمد",
		"1,500.00 USD",
		`href="/dashboard/finance/invoices/new"`,
		`href="/dashboard/finance/invoices/3/edit"`,
		`href="/dashboard/finance/invoices/3/actions/approve"`,
		`href="/dashboard/finance/invoices/3/delete"`,
		"الصفحة 2 من 3 (45 سجل)",
		`href="/dashboard/finance/invoices?search=INV"`,
		`href="/dashboard/finance/invoices?page=3&amp;search=INV"`,
	)
	if strings.Contains(html, "<b>INV-1") {
		t.Error("cell text must be escaped")
	}
}

func TestList_Import(t *testing.T) {
	p := invoicePage()
	p.UploadPath = "/v1/finance/journal-entries/import/"
	v := &ListView{Page: p, Gates: Gates{View: true, Create: true}, Format: NewFormatter("en", ""), CSRFToken: "tok"}
	html := render(t, List(v))
	mustContain(t, html, `action="/dashboard/finance/invoices/import"`, `enctype="multipart/form-data"`,
		`name="file"`, `name="_csrf" value="tok"`)

	v.Gates.Create = false
	if strings.Contains(render(t, List(v)), "multipart/form-data") {
		t.Error("import form shown without the create gate")
	}
}

func TestListView_TotalPages(t *testing.T) {
	tests := []struct {
		count, size, want int
	}{
		{0, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 1},
	}
	for _, tt := range tests {
		v := &ListView{Result: &backend.Page{Count: tt.count}, PageSize: tt.size}
		if got := v.TotalPages(); got != tt.want {
			t.Errorf("TotalPages(%d/%d) = %d, want %d", tt.count, tt.size, got, tt.want)
		}
	}
}

// ============================================================================
// Form
// ============================================================================

func TestForm_New(t *testing.T) {
	p := invoicePage()
	v := &FormView{
		Page:        p,
		Values:      InitialValues(p.Fields, nil),
		FieldErrors: map[string][]string{"invoice_number": {"الحقل رقم الفاتورة مطلوب."}},
		Format:      NewFormatter("en", ""),
		CSRFToken:   "tok",
	}
	html := render(t, Form(v))

	mustContain(t, html,
		"إضافة سجل جديد",
		`action="/dashboard/finance/invoices/new"`,
		`name="_csrf" value="tok"`,
		`name="invoice_number"`, "required",
		`type="checkbox"`, "checked",
		`type="number"`, `step="any"`,
		placeholderPick,
		"الحقل رقم الفاتورة مطلوب.",
		`name="items[0][quantity]"`,
	)
}

func TestForm_EditKeepsUnknownSelectValue(t *testing.T) {
	p := invoicePage()
	v := &FormView{
		Page:   p,
		ID:     "9",
		Values: InitialValues(p.Fields, backend.Row{"project": json.Number("77"), "notes": `"quoted" & <tag>`}),
		Format: NewFormatter("en", ""),
	}
	html := render(t, Form(v))
	mustContain(t, html,
		"تعديل السجل #9",
		`action="/dashboard/finance/invoices/9/edit"`,
		`<option value="77" selected>#77</option>`,
		"&#34;quoted&#34; &amp; &lt;tag&gt;",
	)
}

// ============================================================================
// Delete, actions and index
// ============================================================================

func TestDelete(t *testing.T) {
	html := render(t, Delete(&DeleteView{Page: invoicePage(), ID: "4", Error: "تعذر الحذف", CSRFToken: "tok"}))
	mustContain(t, html, "هل أنت متأكد من حذف هذا السجل (#4)؟", `action="/dashboard/finance/invoices/4/delete"`,
		"تعذر الحذف", `name="_csrf"`)
}

func TestActionDialog(t *testing.T) {
	a := &Action{Label: "رفض", Name: "reject", Variant: "danger", NeedsReason: true}
	d := NormalizeDialog(a, nil)
	html := render(t, ActionDialog(&ActionView{
		Page:   invoicePage(),
		Action: a,
		ID:     "5",
		Dialog: d,
		Values: DialogDefaults(d.Fields),
		Errors: []string{"الحقل سبب الرفض مطلوب."},
	}))
	mustContain(t, html, "تأكيد رفض", `action="/dashboard/finance/invoices/5/actions/reject"`,
		`name="reason"`, "الحقل سبب الرفض مطلوب.", a.ButtonClass())
}

func TestSectionIndexAndForbidden(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	s, _ := c.Section(access.AreaRealEstate)
	html := render(t, SectionIndex(s))
	mustContain(t, html, s.Title, `href="/dashboard/real-estate/units"`)

	html = render(t, Forbidden(invoicePage()))
	mustContain(t, html, ForbiddenMessage, `href="/dashboard/access"`)
}
