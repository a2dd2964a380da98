// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package resource implements the declarative CRUD renderer: page schemas
// loaded from the embedded catalog, form state, validation, payload
// building, option resolution and the HTML views.
package resource

import (
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
)

// FieldType is the closed set of form input kinds.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldTextarea FieldType = "textarea"
	FieldJSON     FieldType = "json"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldSelect, FieldCheckbox, FieldTextarea, FieldJSON:
		return true
	}
	return false
}

// Format selects how a table cell is rendered.
type Format string

const (
	FormatText    Format = ""
	FormatMoney   Format = "money"
	FormatNumber  Format = "number"
	FormatDate    Format = "date"
	FormatPercent Format = "percent"
	FormatBool    Format = "bool"
	FormatStatus  Format = "status"
	FormatRef     Format = "ref"
)

// Valid reports whether f is a known column format.
func (f Format) Valid() bool {
	switch f {
	case FormatText, FormatMoney, FormatNumber, FormatDate, FormatPercent, FormatBool, FormatStatus, FormatRef:
		return true
	}
	return false
}

// Variant is the visual style of an action button.
type Variant string

const (
	VariantDefault Variant = "default"
	VariantSuccess Variant = "success"
	VariantDanger  Variant = "danger"
	VariantWarning Variant = "warning"
)

// Option is a static select choice.
type Option struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// ============================================================================
// Fields
// ============================================================================

// DynamicOptions populates a select from another collection.
//
// DependsOn maps a query parameter to the form field whose value filters the
// list. DependsOnForm and DependsOnRow do the same for line-editor columns,
// reading the parent form and the current row respectively. A required
// dependency that is empty blocks the lookup.
type DynamicOptions struct {
	ResourcePath         string            `yaml:"resource_path"`
	ValueField           string            `yaml:"value_field"`
	LabelField           string            `yaml:"label_field"`
	LabelFields          []string          `yaml:"label_fields"`
	Ordering             string            `yaml:"ordering"`
	Filters              map[string]string `yaml:"filters"`
	DependsOn            map[string]string `yaml:"depends_on"`
	RequireDependsOn     *bool             `yaml:"require_depends_on"`
	DependsOnForm        map[string]string `yaml:"depends_on_form"`
	RequireDependsOnForm *bool             `yaml:"require_depends_on_form"`
	DependsOnRow         map[string]string `yaml:"depends_on_row"`
	RequireDependsOnRow  *bool             `yaml:"require_depends_on_row"`
}

// Value returns the row key used as the option value.
func (d *DynamicOptions) Value() string {
	if d.ValueField == "" {
		return "id"
	}
	return d.ValueField
}

// EditorColumn is one cell of a line-editor row.
type EditorColumn struct {
	Key            string          `yaml:"key"`
	Label          string          `yaml:"label"`
	Type           FieldType       `yaml:"type"`
	Required       bool            `yaml:"required"`
	Placeholder    string          `yaml:"placeholder"`
	Options        []Option        `yaml:"options"`
	Default        string          `yaml:"default"`
	Min            *float64        `yaml:"min"`
	Max            *float64        `yaml:"max"`
	Step           *float64        `yaml:"step"`
	DynamicOptions *DynamicOptions `yaml:"dynamic_options"`
}

// InputType is the HTML input type for a non-select column.
func (c EditorColumn) InputType() string {
	switch c.Type {
	case FieldDate:
		return "date"
	case FieldNumber:
		return "number"
	}
	return "text"
}

// JSONEditor turns a json field into a table of typed rows.
type JSONEditor struct {
	ItemLabel  string         `yaml:"item_label"`
	AddLabel   string         `yaml:"add_label"`
	MinItems   int            `yaml:"min_items"`
	HideTotals bool           `yaml:"hide_totals"`
	Columns    []EditorColumn `yaml:"columns"`
}

// HasColumn reports whether a column with key exists.
func (e *JSONEditor) HasColumn(key string) bool {
	for _, c := range e.Columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

// Field describes one form input.
type Field struct {
	Name           string          `yaml:"name"`
	Label          string          `yaml:"label"`
	Type           FieldType       `yaml:"type"`
	Required       bool            `yaml:"required"`
	Placeholder    string          `yaml:"placeholder"`
	Options        []Option        `yaml:"options"`
	Help           string          `yaml:"help"`
	Default        string          `yaml:"default"`
	Min            *float64        `yaml:"min"`
	Max            *float64        `yaml:"max"`
	Step           *float64        `yaml:"step"`
	ReadOnly       bool            `yaml:"read_only"`
	Rows           int             `yaml:"rows"`
	DynamicOptions *DynamicOptions `yaml:"dynamic_options"`
	JSONEditor     *JSONEditor     `yaml:"json_editor"`
}

// IsLineEditor reports whether the field is edited as rows.
func (f *Field) IsLineEditor() bool {
	return f.Type == FieldJSON && f.JSONEditor != nil
}

// DefaultChecked is the initial state of a checkbox.
func (f *Field) DefaultChecked() bool {
	return f.Default == "true"
}

// TextareaRows is the rendered height of a textarea or raw json field.
func (f *Field) TextareaRows() int {
	if f.Rows > 0 {
		return f.Rows
	}
	if f.Type == FieldJSON {
		return 6
	}
	return 3
}

// Column describes one table column. Money columns read their currency
// from CurrencyField when the row carries one.
type Column struct {
	Key           string `yaml:"key"`
	Title         string `yaml:"title"`
	Format        Format `yaml:"format"`
	CurrencyField string `yaml:"currency_field"`
}

// ============================================================================
// Actions
// ============================================================================

// ActionField is an input of an action dialog.
type ActionField struct {
	Name        string    `yaml:"name"`
	Label       string    `yaml:"label"`
	Type        FieldType `yaml:"type"`
	Required    bool      `yaml:"required"`
	Placeholder string    `yaml:"placeholder"`
	Default     string    `yaml:"default"`
	Help        string    `yaml:"help"`
	Min         *float64  `yaml:"min"`
	Max         *float64  `yaml:"max"`
	Step        *float64  `yaml:"step"`
	Options     []Option  `yaml:"options"`
}

// Dialog is the confirmation shown before an action runs.
type Dialog struct {
	Title        string        `yaml:"title"`
	Description  string        `yaml:"description"`
	ConfirmLabel string        `yaml:"confirm_label"`
	Fields       []ActionField `yaml:"fields"`
}

// PayloadBuilder names a built-in transformation from dialog values to the
// action request body.
type PayloadBuilder string

const (
	// PayloadDialog sends the non-empty dialog values as is.
	PayloadDialog PayloadBuilder = ""
	// PayloadReceiveLines builds {items:[{item_id, quantity}]} from per-line
	// quantities; the dialog fields are generated from the row's items.
	PayloadReceiveLines PayloadBuilder = "receive_lines"
	// PayloadJSONLines sends {reason, lines} with lines parsed from JSON.
	PayloadJSONLines PayloadBuilder = "json_lines"
)

// Action is a server-side transition invocable on a row:
// POST {resourcePath}{id}/{action}/.
type Action struct {
	Label          string         `yaml:"label"`
	Name           string         `yaml:"action"`
	Variant        Variant        `yaml:"variant"`
	NeedsReason    bool           `yaml:"needs_reason"`
	RequiredLevel  access.Level   `yaml:"required_level"`
	ConfirmMessage string         `yaml:"confirm_message"`
	Dialog         *Dialog        `yaml:"dialog"`
	Payload        PayloadBuilder `yaml:"payload"`
}

// Level is the area permission level the action needs when no explicit
// action claim is present.
func (a *Action) Level() access.Level {
	if a.RequiredLevel != "" {
		return a.RequiredLevel
	}
	if a.Name == "approve" || a.Name == "reject" {
		return access.LevelApprove
	}
	return access.LevelManage
}

// ButtonClass is the CSS class for the action button.
func (a *Action) ButtonClass() string {
	switch a.Variant {
	case VariantSuccess:
		return "btn btn-success"
	case VariantDanger:
		return "btn btn-danger"
	case VariantWarning:
		return "btn btn-warning"
	}
	return "btn btn-outline"
}

// ============================================================================
// Timeline
// ============================================================================

// TimelineStep is one stage of a workflow.
type TimelineStep struct {
	Key            string `yaml:"key"`
	Label          string `yaml:"label"`
	Description    string `yaml:"description"`
	TimestampField string `yaml:"timestamp_field"`
}

// Timeline shows where an edited row sits in its workflow.
type Timeline struct {
	Title            string            `yaml:"title"`
	Steps            []TimelineStep    `yaml:"steps"`
	StatusToStep     map[string]string `yaml:"status_to_step"`
	CurrentStepField string            `yaml:"current_step_field"`
}

// ============================================================================
// Page
// ============================================================================

// Link is an extra header or toolbar link, usually a download through the
// backend proxy.
type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// Page is the full declarative description of one CRUD screen.
type Page struct {
	Slug              string    `yaml:"slug"`
	Title             string    `yaml:"title"`
	Description       string    `yaml:"description"`
	ResourcePath      string    `yaml:"resource_path"`
	Ordering          string    `yaml:"ordering"`
	SearchPlaceholder string    `yaml:"search_placeholder"`
	Columns           []Column  `yaml:"columns"`
	Fields            []Field   `yaml:"fields"`
	Actions           []Action  `yaml:"actions"`
	StatusOptions     []Option  `yaml:"status_options"`
	ShowStatus        *bool     `yaml:"show_status"`
	AllowCreate       *bool     `yaml:"allow_create"`
	AllowEdit         *bool     `yaml:"allow_edit"`
	AllowDelete       *bool     `yaml:"allow_delete"`
	CreateLabel       string    `yaml:"create_label"`
	Timeline          *Timeline `yaml:"timeline"`
	Links             []Link    `yaml:"links"`
	UploadPath        string    `yaml:"upload_path"`

	// Area is filled from the catalog file the page belongs to.
	Area access.Area `yaml:"-"`
}

// DefaultOrdering is used when a page declares none.
const DefaultOrdering = "-created_at"

var defaultStatusOptions = []Option{
	{Label: "الكل", Value: ""},
	{Label: "مسودة", Value: "draft"},
	{Label: "بانتظار الاعتماد", Value: "pending_approval"},
	{Label: "معتمد", Value: "approved"},
	{Label: "مرفوض", Value: "rejected"},
	{Label: "مكتمل", Value: "completed"},
	{Label: "ملغي", Value: "cancelled"},
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// ListOrdering returns the ordering sent with list requests.
func (p *Page) ListOrdering() string {
	if p.Ordering == "" {
		return DefaultOrdering
	}
	return p.Ordering
}

// Placeholder is the search box placeholder.
func (p *Page) Placeholder() string {
	if p.SearchPlaceholder == "" {
		return "ابحث..."
	}
	return p.SearchPlaceholder
}

// CreateText is the label of the create button.
func (p *Page) CreateText() string {
	if p.CreateLabel == "" {
		return "إنشاء جديد"
	}
	return p.CreateLabel
}

// Statuses returns the status filter choices.
func (p *Page) Statuses() []Option {
	if len(p.StatusOptions) == 0 {
		return defaultStatusOptions
	}
	return p.StatusOptions
}

// StatusShown reports whether the status filter and column are rendered.
func (p *Page) StatusShown() bool { return boolOr(p.ShowStatus, true) }

// CreateAllowed reports the declared create flag.
func (p *Page) CreateAllowed() bool { return boolOr(p.AllowCreate, true) && len(p.Fields) > 0 }

// EditAllowed reports the declared edit flag.
func (p *Page) EditAllowed() bool { return boolOr(p.AllowEdit, true) && len(p.Fields) > 0 }

// DeleteAllowed reports the declared delete flag.
func (p *Page) DeleteAllowed() bool { return boolOr(p.AllowDelete, true) }

// Field returns the field named name.
func (p *Page) Field(name string) (*Field, bool) {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return &p.Fields[i], true
		}
	}
	return nil, false
}

// Action returns the action named name.
func (p *Page) Action(name string) (*Action, bool) {
	for i := range p.Actions {
		if p.Actions[i].Name == name {
			return &p.Actions[i], true
		}
	}
	return nil, false
}

// ResourcePaths lists every collection the page reads: its own and every
// dynamic option source.
func (p *Page) ResourcePaths() []string {
	paths := []string{p.ResourcePath}
	for _, f := range p.Fields {
		if f.DynamicOptions != nil {
			paths = append(paths, f.DynamicOptions.ResourcePath)
		}
		if f.JSONEditor != nil {
			for _, c := range f.JSONEditor.Columns {
				if c.DynamicOptions != nil {
					paths = append(paths, c.DynamicOptions.ResourcePath)
				}
			}
		}
	}
	return paths
}
