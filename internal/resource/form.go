// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/errors"
)

// Form control names used by the line editor and dependency refresh.
const (
	formAddRow    = "_add_row"
	formRemoveRow = "_remove_row"
	formRefresh   = "_refresh"
	formWasPrefix = "_was_"
)

// ErrInvalidJSON is returned when a raw json field does not parse.
var ErrInvalidJSON = errors.NewWithStatus(errors.CodeValidationFailed,
	"صيغة JSON غير صحيحة. راجع الحقول من نوع JSON.", http.StatusBadRequest)

// EditorRow is one line-editor row keyed by column.
type EditorRow map[string]string

// Values is the state of a create or edit form. Scalar holds every non
// line-editor field, with "true" or "" for checkboxes.
type Values struct {
	Scalar map[string]string
	Rows   map[string][]EditorRow
}

func newValues() Values {
	return Values{Scalar: map[string]string{}, Rows: map[string][]EditorRow{}}
}

// Get returns a scalar value.
func (v Values) Get(name string) string {
	return v.Scalar[name]
}

// Checked reports a checkbox state.
func (v Values) Checked(name string) bool {
	return v.Scalar[name] == "true"
}

// ============================================================================
// Initial values
// ============================================================================

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return fmt.Sprint(v)
}

func newEditorRow(e *JSONEditor) EditorRow {
	row := EditorRow{}
	for _, c := range e.Columns {
		row[c.Key] = c.Default
	}
	return row
}

func normalizeEditorRows(v any, e *JSONEditor) []EditorRow {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	rows := make([]EditorRow, 0, len(items))
	for _, item := range items {
		src, _ := item.(map[string]any)
		row := EditorRow{}
		for _, c := range e.Columns {
			cell, present := src[c.Key]
			if !present || cell == nil {
				row[c.Key] = c.Default
				continue
			}
			row[c.Key] = stringify(cell)
		}
		rows = append(rows, row)
	}
	return rows
}

func defaultEditorRows(f *Field) []EditorRow {
	if f.Default == "" {
		return nil
	}
	parsed, err := decodeJSON(f.Default)
	if err != nil {
		return nil
	}
	return normalizeEditorRows(parsed, f.JSONEditor)
}

func ensureMinRows(rows []EditorRow, e *JSONEditor) []EditorRow {
	for len(rows) < e.MinItems {
		rows = append(rows, newEditorRow(e))
	}
	return rows
}

func isRowEmpty(row EditorRow, e *JSONEditor) bool {
	for _, c := range e.Columns {
		if strings.TrimSpace(row[c.Key]) != "" {
			return false
		}
	}
	return true
}

// InitialValues builds the form state for a new record (row == nil) or for
// editing row.
func InitialValues(fields []Field, row backend.Row) Values {
	v := newValues()
	for i := range fields {
		setInitial(v, &fields[i], row)
	}
	return v
}

func setInitial(v Values, f *Field, row backend.Row) {
	if f.Type == FieldCheckbox {
		checked := f.DefaultChecked()
		if b, ok := row[f.Name].(bool); ok {
			checked = b
		}
		v.Scalar[f.Name] = checkedValue(checked)
		return
	}

	if row != nil {
		value := row[f.Name]
		switch {
		case value == nil && f.IsLineEditor():
			v.Rows[f.Name] = ensureMinRows(defaultEditorRows(f), f.JSONEditor)
		case value == nil:
			v.Scalar[f.Name] = f.Default
		case f.IsLineEditor():
			v.Rows[f.Name] = ensureMinRows(normalizeEditorRows(value, f.JSONEditor), f.JSONEditor)
		case f.Type == FieldJSON:
			data, err := json.MarshalIndent(value, "", "  ")
			if err == nil {
				v.Scalar[f.Name] = string(data)
			}
		default:
			v.Scalar[f.Name] = stringify(value)
		}
		return
	}

	if f.IsLineEditor() {
		v.Rows[f.Name] = ensureMinRows(defaultEditorRows(f), f.JSONEditor)
		return
	}
	v.Scalar[f.Name] = f.Default
}

func checkedValue(b bool) string {
	if b {
		return "true"
	}
	return ""
}

// ============================================================================
// Submitted values
// ============================================================================

// ParseForm reads a submitted form. Line-editor cells arrive as
// name[index][column].
func ParseForm(fields []Field, form url.Values) Values {
	v := newValues()
	for i := range fields {
		f := &fields[i]
		switch {
		case f.Type == FieldCheckbox:
			v.Scalar[f.Name] = checkedValue(form.Get(f.Name) != "")
		case f.IsLineEditor():
			v.Rows[f.Name] = parseEditorRows(f, form)
		default:
			v.Scalar[f.Name] = form.Get(f.Name)
		}
	}
	return v
}

func parseEditorRows(f *Field, form url.Values) []EditorRow {
	prefix := f.Name + "["
	cells := map[int]EditorRow{}
	for key, vals := range form {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		idxText, col, ok := strings.Cut(rest, "][")
		if !ok || !strings.HasSuffix(col, "]") {
			continue
		}
		idx, err := strconv.Atoi(idxText)
		if err != nil || idx < 0 {
			continue
		}
		row, exists := cells[idx]
		if !exists {
			row = EditorRow{}
			for _, c := range f.JSONEditor.Columns {
				row[c.Key] = ""
			}
			cells[idx] = row
		}
		row[strings.TrimSuffix(col, "]")] = vals[0]
	}

	indexes := make([]int, 0, len(cells))
	for idx := range cells {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	rows := make([]EditorRow, 0, len(indexes))
	for _, idx := range indexes {
		rows = append(rows, cells[idx])
	}
	return rows
}

// IsRefresh reports whether the submission only asks to re-render the form
// (add or remove a line, or reload dependent options) rather than save it.
func IsRefresh(form url.Values) bool {
	return form.Get(formAddRow) != "" || form.Get(formRemoveRow) != "" || form.Get(formRefresh) != ""
}

// ApplyEditorCommands performs a posted add-row or remove-row command.
func ApplyEditorCommands(fields []Field, v Values, form url.Values) {
	if name := form.Get(formAddRow); name != "" {
		for i := range fields {
			f := &fields[i]
			if f.Name == name && f.IsLineEditor() && !f.ReadOnly {
				v.Rows[name] = append(v.Rows[name], newEditorRow(f.JSONEditor))
			}
		}
	}
	if cmd := form.Get(formRemoveRow); cmd != "" {
		name, idxText, ok := strings.Cut(cmd, ":")
		idx, err := strconv.Atoi(idxText)
		rows := v.Rows[name]
		if ok && err == nil && idx >= 0 && idx < len(rows) {
			v.Rows[name] = append(rows[:idx:idx], rows[idx+1:]...)
		}
	}
}

// ResetDependents clears every select whose options depend on a field that
// changed since the form was rendered, following the dependency chain. The
// previous value of each dependency source is posted as _was_<name>.
func ResetDependents(fields []Field, v Values, form url.Values) {
	dependents := map[string][]string{}
	for _, f := range fields {
		if f.DynamicOptions == nil {
			continue
		}
		for _, source := range sortedValues(f.DynamicOptions.DependsOn) {
			dependents[source] = appendUnique(dependents[source], f.Name)
		}
	}

	var queue []string
	for source := range dependents {
		was, posted := form[formWasPrefix+source]
		if posted && len(was) > 0 && was[0] != v.Get(source) {
			queue = append(queue, dependents[source]...)
		}
	}
	sort.Strings(queue)

	visited := map[string]bool{}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true
		for i := range fields {
			if fields[i].Name == name {
				setInitial(v, &fields[i], nil)
			}
		}
		queue = append(queue, dependents[name]...)
	}
}

// DependencySources lists the fields other selects depend on; their current
// values are echoed back as _was_<name> hidden inputs.
func DependencySources(fields []Field) []string {
	var out []string
	for _, f := range fields {
		if f.DynamicOptions == nil {
			continue
		}
		for _, source := range sortedValues(f.DynamicOptions.DependsOn) {
			out = appendUnique(out, source)
		}
	}
	sort.Strings(out)
	return out
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}

// ============================================================================
// Validation
// ============================================================================

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Validate returns the messages that block submission. An empty result means
// the form may be sent to the backend.
func Validate(fields []Field, v Values) []string {
	var errs []string
	for i := range fields {
		f := &fields[i]
		switch {
		case f.Type == FieldCheckbox:
			if f.Required && !v.Checked(f.Name) {
				errs = append(errs, fmt.Sprintf("الحقل %s مطلوب.", f.Label))
			}
		case f.IsLineEditor():
			errs = append(errs, validateEditor(f, v.Rows[f.Name])...)
		default:
			text := strings.TrimSpace(v.Get(f.Name))
			if f.Required && text == "" {
				errs = append(errs, fmt.Sprintf("الحقل %s مطلوب.", f.Label))
				continue
			}
			if f.Type == FieldNumber && text != "" {
				if _, ok := ParseFiniteNumber(text); !ok {
					errs = append(errs, fmt.Sprintf("الحقل %s يجب أن يكون رقماً صحيحاً.", f.Label))
				}
			}
		}
	}
	return errs
}

func nonEmptyRows(rows []EditorRow, e *JSONEditor) []EditorRow {
	out := make([]EditorRow, 0, len(rows))
	for _, row := range rows {
		if !isRowEmpty(row, e) {
			out = append(out, row)
		}
	}
	return out
}

func validateEditor(f *Field, rows []EditorRow) []string {
	e := f.JSONEditor
	filled := nonEmptyRows(rows, e)
	if f.Required && len(filled) == 0 {
		return []string{fmt.Sprintf("الحقل %s مطلوب.", f.Label)}
	}

	var errs []string
	balanced := e.HasColumn("debit") || e.HasColumn("credit")
	for i, row := range filled {
		line := i + 1
		for _, c := range e.Columns {
			text := strings.TrimSpace(row[c.Key])
			if c.Required && text == "" {
				errs = append(errs, fmt.Sprintf("%s: %s مطلوب (السطر %d).", f.Label, c.Label, line))
				continue
			}
			if c.Type != FieldNumber || text == "" {
				continue
			}
			n, ok := ParseFiniteNumber(text)
			if !ok {
				errs = append(errs, fmt.Sprintf("%s: %s يجب أن يكون رقماً صحيحاً (السطر %d).", f.Label, c.Label, line))
				continue
			}
			if c.Min != nil && n < *c.Min {
				errs = append(errs, fmt.Sprintf("%s: %s يجب أن يكون أكبر أو يساوي %s (السطر %d).", f.Label, c.Label, formatLimit(*c.Min), line))
			}
			if c.Max != nil && n > *c.Max {
				errs = append(errs, fmt.Sprintf("%s: %s يجب أن يكون أقل أو يساوي %s (السطر %d).", f.Label, c.Label, formatLimit(*c.Max), line))
			}
		}

		if balanced {
			debit := numberOrZero(row["debit"])
			credit := numberOrZero(row["credit"])
			if (debit > 0) == (credit > 0) {
				errs = append(errs, fmt.Sprintf("%s: السطر %d يجب أن يحتوي على مدين أو دائن فقط.", f.Label, line))
			}
		}
	}

	if balanced && len(filled) > 0 {
		var debit, credit float64
		for _, row := range filled {
			debit += numberOrZero(row["debit"])
			credit += numberOrZero(row["credit"])
		}
		if abs(debit-credit) > 0.0001 {
			errs = append(errs, fmt.Sprintf("%s: إجمالي المدين يجب أن يساوي إجمالي الدائن.", f.Label))
		}
	}
	return errs
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// ============================================================================
// Payload
// ============================================================================

func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return out, nil
}

// Payload converts form state to the request body. Checkboxes become
// booleans, empty values are omitted, raw json fields are parsed and
// line-editor rows keep their non-empty trimmed cells.
func Payload(fields []Field, v Values) (map[string]any, error) {
	payload := map[string]any{}
	for i := range fields {
		f := &fields[i]
		switch {
		case f.Type == FieldCheckbox:
			payload[f.Name] = v.Checked(f.Name)
		case f.IsLineEditor():
			rows := []map[string]any{}
			for _, row := range v.Rows[f.Name] {
				out := map[string]any{}
				for _, c := range f.JSONEditor.Columns {
					if cell := strings.TrimSpace(row[c.Key]); cell != "" {
						out[c.Key] = cell
					}
				}
				if len(out) > 0 {
					rows = append(rows, out)
				}
			}
			payload[f.Name] = rows
		default:
			text := strings.TrimSpace(v.Get(f.Name))
			if text == "" {
				continue
			}
			if f.Type == FieldJSON {
				parsed, err := decodeJSON(text)
				if err != nil {
					return nil, ErrInvalidJSON
				}
				payload[f.Name] = parsed
				continue
			}
			payload[f.Name] = text
		}
	}
	return payload, nil
}
