// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/web/ui"
)

// UI strings shared by the views and the handlers.
const (
	EmptyMessage     = "لا توجد نتائج مطابقة."
	ForbiddenMessage = "لا تملك صلاحية الوصول إلى هذه الوحدة."
	placeholderPick  = "-- اختر --"
	blockedMessage   = "اختر الحقول المرتبطة أولًا ثم حدّث الخيارات."
	failedMessage    = "تعذر تحميل الخيارات."
)

// RowID returns the row's id as text.
func RowID(row backend.Row) string {
	return stringify(row["id"])
}

// ============================================================================
// List
// ============================================================================

// ListView is the state of a list screen.
type ListView struct {
	Page      *Page
	Gates     Gates
	Result    *backend.Page
	Error     string
	Search    string
	Status    string
	PageNum   int
	PageSize  int
	Format    *Formatter
	CSRFToken string
}

// TotalPages is at least one.
func (v *ListView) TotalPages() int {
	if v.Result == nil || v.PageSize <= 0 || v.Result.Count <= 0 {
		return 1
	}
	return (v.Result.Count + v.PageSize - 1) / v.PageSize
}

// ListURL builds the list URL for page n keeping the current filters.
func (v *ListView) ListURL(n int) string {
	q := url.Values{}
	if v.Search != "" {
		q.Set("search", v.Search)
	}
	if v.Status != "" {
		q.Set("status", v.Status)
	}
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	if len(q) == 0 {
		return v.Page.Href()
	}
	return v.Page.Href() + "?" + q.Encode()
}

// List renders the searchable, filterable, paginated table.
func List(v *ListView) templ.Component {
	return ui.Component(func(h *ui.Writer) {
		p := v.Page
		h.Open("section", ui.Class("resource-section"))
		pageHeader(h, p, func() {
			for _, l := range p.Links {
				h.Elem("a", l.Label, ui.A("href", l.Href), ui.Class("btn"))
			}
			if v.Gates.Create {
				h.Elem("a", p.CreateText(), ui.A("href", p.Href()+"/new"), ui.Class("btn btn-primary"))
			}
		})

		h.Open("form", ui.A("method", "get"), ui.A("action", p.Href()), ui.Class("resource-toolbar"), ui.A("role", "search"))
		h.Void("input", ui.A("type", "search"), ui.A("name", "search"), ui.A("value", v.Search),
			ui.A("placeholder", p.Placeholder()), ui.A("aria-label", "بحث"))
		if p.StatusShown() {
			h.Open("select", ui.A("name", "status"), ui.A("aria-label", "الحالة"))
			for _, o := range p.Statuses() {
				option(h, o, v.Status)
			}
			h.Close("select")
		}
		h.Elem("button", "بحث", ui.A("type", "submit"), ui.Class("btn"))
		h.Close("form")

		if p.UploadPath != "" && v.Gates.Create {
			h.Open("form", ui.A("method", "post"), ui.A("action", p.Href()+"/import"),
				ui.A("enctype", "multipart/form-data"), ui.Class("resource-toolbar"))
			ui.CSRFField(h, v.CSRFToken)
			h.Void("input", ui.A("type", "file"), ui.A("name", "file"), ui.A("accept", ".xlsx,.xls"))
			h.Elem("button", "استيراد", ui.A("type", "submit"), ui.Class("btn"))
			h.Close("form")
		}

		if v.Error != "" {
			ui.Alert(h, "error", v.Error)
		}
		table(h, v)
		if v.Result != nil {
			pagination(h, v)
		}
		h.Close("section")
	})
}

func pageHeader(h *ui.Writer, p *Page, buttons func()) {
	h.Open("header", ui.Class("resource-header"))
	h.Open("div")
	h.Elem("h3", p.Title)
	if p.Description != "" {
		h.Elem("p", p.Description)
	}
	h.Close("div")
	h.Wrap("div", buttons, ui.Class("resource-toolbar"))
	h.Close("header")
}

func table(h *ui.Writer, v *ListView) {
	p := v.Page
	controls := v.Gates.RowControls()
	h.Open("table", ui.Class("resource-table"))
	h.Open("thead")
	h.Open("tr")
	for _, c := range p.Columns {
		h.Elem("th", c.Title, ui.A("scope", "col"))
	}
	if controls {
		h.Elem("th", "الإجراءات", ui.A("scope", "col"))
	}
	h.Close("tr")
	h.Close("thead")

	h.Open("tbody")
	var rows []backend.Row
	if v.Result != nil {
		rows = v.Result.Results
	}
	if len(rows) == 0 {
		span := len(p.Columns)
		if controls {
			span++
		}
		h.Open("tr")
		h.Elem("td", EmptyMessage, ui.A("colspan", strconv.Itoa(span)), ui.Class("empty"))
		h.Close("tr")
	}
	for _, row := range rows {
		h.Open("tr")
		for _, c := range p.Columns {
			h.Open("td")
			cell(h, v.Format, c, row)
			h.Close("td")
		}
		if controls {
			h.Wrap("td", func() { rowControls(h, v, row) })
		}
		h.Close("tr")
	}
	h.Close("tbody")
	h.Close("table")
}

func cell(h *ui.Writer, f *Formatter, c Column, row backend.Row) {
	value := row[c.Key]
	switch c.Format {
	case FormatStatus:
		status := stringify(value)
		h.Elem("span", StatusLabel(status), ui.Class(StatusClass(status)))
	case FormatMoney:
		if value == nil {
			h.Text("-")
			return
		}
		cur := ""
		if c.CurrencyField != "" {
			cur = stringify(row[c.CurrencyField])
		}
		h.Text(f.Money(value, cur))
	default:
		h.Text(f.Cell(c.Format, value))
	}
}

func rowControls(h *ui.Writer, v *ListView, row backend.Row) {
	id := RowID(row)
	if id == "" {
		return
	}
	base := v.Page.Href() + "/" + url.PathEscape(id)
	h.Open("div", ui.Class("resource-toolbar"))
	if v.Gates.Edit {
		h.Elem("a", "تعديل", ui.A("href", base+"/edit"), ui.Class("btn"))
	}
	for _, a := range v.Gates.Actions {
		h.Elem("a", a.Label, ui.A("href", base+"/actions/"+url.PathEscape(a.Name)), ui.Class(a.ButtonClass()))
	}
	if v.Gates.Delete {
		h.Elem("a", "حذف", ui.A("href", base+"/delete"), ui.Class("btn btn-danger"))
	}
	h.Close("div")
}

func pagination(h *ui.Writer, v *ListView) {
	h.Open("nav", ui.Class("pagination"), ui.A("aria-label", "التنقل بين الصفحات"))
	if v.Result.Previous != "" && v.PageNum > 1 {
		h.Elem("a", "السابق", ui.A("href", v.ListURL(v.PageNum-1)), ui.Class("btn"))
	}
	h.Elem("span", fmt.Sprintf("الصفحة %d من %d (%d سجل)", v.PageNum, v.TotalPages(), v.Result.Count))
	if v.Result.Next != "" {
		h.Elem("a", "التالي", ui.A("href", v.ListURL(v.PageNum+1)), ui.Class("btn"))
	}
	h.Close("nav")
}

func option(h *ui.Writer, o Option, selected string) {
	h.Elem("option", o.Label, ui.A("value", o.Value), ui.If(o.Value == selected, "selected"))
}

// ============================================================================
// Create and edit
// ============================================================================

// FormView is the state of a create or edit screen.
type FormView struct {
	Page        *Page
	ID          string
	Values      Values
	Options     FormOptions
	Errors      []string
	FieldErrors map[string][]string
	Timeline    *TimelineView
	Format      *Formatter
	CSRFToken   string
}

// Editing reports whether the form edits an existing row.
func (v *FormView) Editing() bool {
	return v.ID != ""
}

// Action is the URL the form posts to.
func (v *FormView) Action() string {
	if v.Editing() {
		return v.Page.Href() + "/" + url.PathEscape(v.ID) + "/edit"
	}
	return v.Page.Href() + "/new"
}

// Heading is the form title.
func (v *FormView) Heading() string {
	if v.Editing() {
		return fmt.Sprintf("تعديل السجل #%s", v.ID)
	}
	return "إضافة سجل جديد"
}

// Form renders the create or edit form.
func Form(v *FormView) templ.Component {
	return ui.Component(func(h *ui.Writer) {
		p := v.Page
		h.Open("section", ui.Class("resource-section"))
		h.Open("header", ui.Class("resource-header"))
		h.Open("div")
		h.Elem("h3", p.Title+": "+v.Heading())
		h.Close("div")
		h.Close("header")

		if v.Timeline != nil {
			timeline(h, v.Timeline)
		}
		for _, msg := range v.Errors {
			ui.Alert(h, "error", msg)
		}

		h.Open("form", ui.A("method", "post"), ui.A("action", v.Action()), ui.Class("resource-form"))
		ui.CSRFField(h, v.CSRFToken)
		sources := DependencySources(p.Fields)
		for _, name := range sources {
			h.Void("input", ui.A("type", "hidden"), ui.A("name", formWasPrefix+name), ui.A("value", v.Values.Get(name)))
		}
		for i := range p.Fields {
			field(h, v, &p.Fields[i])
		}

		h.Open("div", ui.Class("wide resource-toolbar"))
		h.Elem("button", "حفظ", ui.A("type", "submit"), ui.Class("btn btn-primary"))
		if len(sources) > 0 {
			h.Elem("button", "تحديث الخيارات", ui.A("type", "submit"), ui.A("name", formRefresh),
				ui.A("value", "1"), ui.If(true, "formnovalidate"), ui.Class("btn"))
		}
		h.Elem("a", "إلغاء", ui.A("href", p.Href()), ui.Class("btn"))
		h.Close("div")
		h.Close("form")
		h.Close("section")
	})
}

func field(h *ui.Writer, v *FormView, f *Field) {
	wide := f.Type == FieldTextarea || f.Type == FieldJSON
	cls := "form-field"
	if wide {
		cls += " wide"
	}
	h.Open("div", ui.Class(cls))
	id := "field-" + f.Name
	if f.Type != FieldCheckbox {
		label := f.Label
		if f.Required {
			label += " *"
		}
		h.Elem("label", label, ui.A("for", id))
	}

	switch {
	case f.IsLineEditor():
		lineEditor(h, v, f)
	case f.Type == FieldCheckbox:
		h.Open("label")
		h.Void("input", ui.A("type", "checkbox"), ui.A("id", id), ui.A("name", f.Name), ui.A("value", "true"),
			ui.If(v.Values.Checked(f.Name), "checked"), ui.If(f.ReadOnly, "disabled"))
		h.Text(" " + f.Label)
		h.Close("label")
	case f.Type == FieldSelect:
		state, dynamic := v.Options.Fields[f.Name]
		opts := f.Options
		if dynamic {
			opts = state.Options
		}
		selectInput(h, id, f.Name, v.Values.Get(f.Name), opts, f.Required, f.ReadOnly)
		optionNotice(h, state)
	case f.Type == FieldTextarea || f.Type == FieldJSON:
		h.Elem("textarea", v.Values.Get(f.Name), ui.A("id", id), ui.A("name", f.Name),
			ui.A("rows", strconv.Itoa(f.TextareaRows())), ui.Opt("placeholder", f.Placeholder),
			ui.If(f.Required, "required"), ui.If(f.ReadOnly, "readonly"))
	default:
		inputType := "text"
		switch f.Type {
		case FieldNumber:
			inputType = "number"
		case FieldDate:
			inputType = "date"
		}
		h.Void("input", ui.A("type", inputType), ui.A("id", id), ui.A("name", f.Name),
			ui.A("value", v.Values.Get(f.Name)), ui.Opt("placeholder", f.Placeholder),
			ui.Float("min", f.Min), ui.Float("max", f.Max), stepAttr(f.Type, f.Step),
			ui.If(f.Required, "required"), ui.If(f.ReadOnly, "readonly"))
	}

	if f.Help != "" {
		h.Elem("small", f.Help, ui.Class("field-help"))
	}
	for _, msg := range v.FieldErrors[f.Name] {
		h.Elem("small", msg, ui.Class("field-help alert-error"))
	}
	h.Close("div")
}

// stepAttr lets number inputs accept decimals unless a step is declared.
func stepAttr(t FieldType, step *float64) ui.Attr {
	if step == nil && t == FieldNumber {
		return ui.A("step", "any")
	}
	return ui.Float("step", step)
}

func selectInput(h *ui.Writer, id, name, value string, opts []Option, required, readOnly bool) {
	h.Open("select", ui.Opt("id", id), ui.A("name", name), ui.If(required, "required"), ui.If(readOnly, "disabled"))
	h.Elem("option", placeholderPick, ui.A("value", ""))
	found := value == ""
	for _, o := range opts {
		if o.Value == value {
			found = true
		}
		option(h, o, value)
	}
	if !found {
		option(h, Option{Label: "#" + value, Value: value}, value)
	}
	h.Close("select")
	if readOnly {
		h.Void("input", ui.A("type", "hidden"), ui.A("name", name), ui.A("value", value))
	}
}

func optionNotice(h *ui.Writer, s OptionState) {
	switch {
	case s.Blocked:
		h.Elem("small", blockedMessage, ui.Class("field-help"))
	case s.Failed:
		h.Elem("small", failedMessage, ui.Class("field-help alert-error"))
	}
}

func lineEditor(h *ui.Writer, v *FormView, f *Field) {
	e := f.JSONEditor
	rows := v.Values.Rows[f.Name]
	sample := Summarize([]EditorRow{{}}, e)
	showLine := sample != nil && sample.HasLineTotals

	h.Open("table", ui.Class("resource-table"), ui.A("id", "field-"+f.Name))
	h.Open("thead")
	h.Open("tr")
	h.Elem("th", "#")
	for _, c := range e.Columns {
		label := c.Label
		if c.Required {
			label += " *"
		}
		h.Elem("th", label)
	}
	if showLine {
		h.Elem("th", "الإجمالي")
	}
	if !f.ReadOnly {
		h.Elem("th", "")
	}
	h.Close("tr")
	h.Close("thead")

	h.Open("tbody")
	for i, row := range rows {
		h.Open("tr")
		h.Elem("td", strconv.Itoa(i+1))
		for _, c := range e.Columns {
			name := fmt.Sprintf("%s[%d][%s]", f.Name, i, c.Key)
			h.Open("td")
			switch c.Type {
			case FieldSelect:
				state, dynamic := v.Options.Cells[CellKey(f.Name, i, c.Key)]
				opts := c.Options
				if dynamic {
					opts = state.Options
				}
				selectInput(h, "", name, row[c.Key], opts, false, f.ReadOnly)
				optionNotice(h, state)
			case FieldCheckbox:
				h.Void("input", ui.A("type", "checkbox"), ui.A("name", name), ui.A("value", "true"),
					ui.If(row[c.Key] == "true", "checked"), ui.If(f.ReadOnly, "disabled"))
			case FieldTextarea:
				h.Elem("textarea", row[c.Key], ui.A("name", name), ui.A("rows", "2"),
					ui.Opt("placeholder", c.Placeholder), ui.If(f.ReadOnly, "readonly"))
			default:
				h.Void("input", ui.A("type", c.InputType()), ui.A("name", name), ui.A("value", row[c.Key]),
					ui.Opt("placeholder", c.Placeholder), ui.Float("min", c.Min), ui.Float("max", c.Max),
					stepAttr(c.Type, c.Step), ui.If(f.ReadOnly, "readonly"))
			}
			h.Close("td")
		}
		if showLine {
			total := "-"
			if a, ok := RowAmounts(row); ok {
				total = v.Format.Amount(a.Total)
			}
			h.Elem("td", total)
		}
		if !f.ReadOnly {
			h.Open("td")
			h.Elem("button", "حذف السطر", ui.A("type", "submit"), ui.A("name", formRemoveRow),
				ui.A("value", fmt.Sprintf("%s:%d", f.Name, i)), ui.If(true, "formnovalidate"), ui.Class("btn btn-danger"))
			h.Close("td")
		}
		h.Close("tr")
	}
	h.Close("tbody")
	h.Close("table")

	if !f.ReadOnly {
		addLabel := e.AddLabel
		if addLabel == "" {
			addLabel = "إضافة سطر"
			if e.ItemLabel != "" {
				addLabel = "إضافة " + e.ItemLabel
			}
		}
		h.Elem("button", addLabel, ui.A("type", "submit"), ui.A("name", formAddRow), ui.A("value", f.Name),
			ui.If(true, "formnovalidate"), ui.Class("btn"))
	}

	if s := Summarize(rows, e); s != nil {
		totals(h, v.Format, s)
	}
}

func totals(h *ui.Writer, f *Formatter, s *Summary) {
	h.Open("div", ui.Class("totals"))
	item := func(label string, value float64) {
		h.Open("span")
		h.Elem("strong", label+": ")
		h.Text(f.Amount(value))
		h.Close("span")
	}
	if s.HasLineTotals {
		item("الإجمالي قبل الضريبة", s.Subtotal)
		item("الضريبة", s.Tax)
		item("الإجمالي", s.Total)
	}
	if s.HasJournalTotals {
		item("إجمالي المدين", s.Debit)
		item("إجمالي الدائن", s.Credit)
		item("الفرق", s.Debit-s.Credit)
	}
	if s.HasChangeOrderTotals {
		item("فرق قيمة العقد", s.ContractDelta)
		item("فرق الميزانية", s.BudgetDelta)
	}
	h.Close("div")
}

func timeline(h *ui.Writer, t *TimelineView) {
	h.Open("div", ui.Class("timeline-card"))
	h.Elem("h4", t.Title)
	h.Open("ol", ui.Class("timeline"))
	for _, s := range t.Steps {
		h.Open("li", ui.Class(string(s.State)))
		h.Elem("strong", s.Label)
		if s.Description != "" {
			h.Elem("p", s.Description)
		}
		if s.Timestamp != "" {
			h.Elem("small", s.Timestamp)
		}
		h.Close("li")
	}
	h.Close("ol")
	h.Close("div")
}

// ============================================================================
// Delete and actions
// ============================================================================

// DeleteView is the delete confirmation.
type DeleteView struct {
	Page      *Page
	ID        string
	Error     string
	CSRFToken string
}

// Delete renders the delete confirmation.
func Delete(v *DeleteView) templ.Component {
	return ui.Component(func(h *ui.Writer) {
		h.Open("section", ui.Class("resource-section"), ui.A("role", "alertdialog"))
		h.Elem("h3", "حذف السجل")
		h.Elem("p", fmt.Sprintf("هل أنت متأكد من حذف هذا السجل (#%s)؟", v.ID))
		if v.Error != "" {
			ui.Alert(h, "error", v.Error)
		}
		h.Open("form", ui.A("method", "post"), ui.A("action", v.Page.Href()+"/"+url.PathEscape(v.ID)+"/delete"),
			ui.Class("resource-toolbar"))
		ui.CSRFField(h, v.CSRFToken)
		h.Elem("button", "حذف", ui.A("type", "submit"), ui.Class("btn btn-danger"))
		h.Elem("a", "إلغاء", ui.A("href", v.Page.Href()), ui.Class("btn"))
		h.Close("form")
		h.Close("section")
	})
}

// ActionView is an action confirmation dialog.
type ActionView struct {
	Page      *Page
	Action    *Action
	ID        string
	Dialog    Dialog
	Values    map[string]string
	Errors    []string
	CSRFToken string
}

// ActionDialog renders the confirmation of a workflow action.
func ActionDialog(v *ActionView) templ.Component {
	return ui.Component(func(h *ui.Writer) {
		d := v.Dialog
		h.Open("section", ui.Class("resource-section"), ui.A("role", "alertdialog"))
		h.Elem("h3", d.Title)
		h.Elem("p", d.Description)
		for _, msg := range v.Errors {
			ui.Alert(h, "error", msg)
		}
		action := v.Page.Href() + "/" + url.PathEscape(v.ID) + "/actions/" + url.PathEscape(v.Action.Name)
		h.Open("form", ui.A("method", "post"), ui.A("action", action), ui.Class("resource-form"))
		ui.CSRFField(h, v.CSRFToken)
		for _, f := range d.Fields {
			actionField(h, f, v.Values[f.Name])
		}
		h.Open("div", ui.Class("wide resource-toolbar"))
		h.Elem("button", d.ConfirmLabel, ui.A("type", "submit"), ui.Class(v.Action.ButtonClass()))
		h.Elem("a", "إلغاء", ui.A("href", v.Page.Href()), ui.Class("btn"))
		h.Close("div")
		h.Close("form")
		h.Close("section")
	})
}

func actionField(h *ui.Writer, f ActionField, value string) {
	id := "action-" + f.Name
	cls := "form-field"
	if f.Type == FieldTextarea {
		cls += " wide"
	}
	h.Open("div", ui.Class(cls))
	label := f.Label
	if f.Required {
		label += " *"
	}
	h.Elem("label", label, ui.A("for", id))
	switch f.Type {
	case FieldTextarea:
		h.Elem("textarea", value, ui.A("id", id), ui.A("name", f.Name), ui.A("rows", "4"),
			ui.Opt("placeholder", f.Placeholder), ui.If(f.Required, "required"))
	case FieldSelect:
		selectInput(h, id, f.Name, value, f.Options, f.Required, false)
	default:
		h.Void("input", ui.A("type", EditorColumn{Type: f.Type}.InputType()), ui.A("id", id), ui.A("name", f.Name),
			ui.A("value", value), ui.Opt("placeholder", f.Placeholder), ui.Float("min", f.Min),
			ui.Float("max", f.Max), stepAttr(f.Type, f.Step), ui.If(f.Required, "required"))
	}
	if f.Help != "" {
		h.Elem("small", f.Help, ui.Class("field-help"))
	}
	h.Close("div")
}

// ============================================================================
// Area index and forbidden
// ============================================================================

// SectionIndex renders the card grid of an area's pages.
func SectionIndex(s *Section) templ.Component {
	items := make([]ui.NavItem, 0, len(s.Pages))
	descriptions := map[string]string{}
	for i := range s.Pages {
		p := &s.Pages[i]
		items = append(items, ui.NavItem{Label: p.Title, Href: p.Href()})
		descriptions[p.Href()] = p.Description
	}
	return ui.Page(s.Title, s.Description, func(h *ui.Writer) {
		ui.CardGrid(h, items, descriptions)
	})
}

// Forbidden renders the banner shown when the page gates deny viewing.
func Forbidden(p *Page) templ.Component {
	return ui.Page(p.Title, p.Description, func(h *ui.Writer) {
		ui.Alert(h, "warning", ForbiddenMessage)
		h.Elem("a", "عرض صلاحياتي", ui.A("href", "/dashboard/access"), ui.Class("btn"))
	})
}
