// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/errors"
)

const (
	defaultDialogDescription = "يرجى تأكيد الإجراء قبل المتابعة."
	reasonField              = "reason"
)

var reasonActionField = ActionField{
	Name:        reasonField,
	Label:       "سبب الرفض",
	Type:        FieldTextarea,
	Required:    true,
	Placeholder: "اكتب سبب الرفض",
	Help:        "يتم إرسال هذا السبب إلى سجل التحقق في النظام.",
}

func actionError(msg string) error {
	return errors.NewWithStatus(errors.CodeValidationFailed, msg, http.StatusBadRequest)
}

func quantity(v any) float64 {
	n, ok := ParseFiniteNumber(stringify(v))
	if !ok {
		return 0
	}
	return n
}

type receiveLine struct {
	id        string
	remaining float64
}

func receiveLines(row backend.Row) []receiveLine {
	items, _ := row["items"].([]any)
	lines := make([]receiveLine, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		remaining := math.Max(quantity(item["quantity"])-quantity(item["received_quantity"]), 0)
		lines = append(lines, receiveLine{id: stringify(item["id"]), remaining: remaining})
	}
	return lines
}

// NormalizeDialog returns the confirmation dialog for running a on row,
// filling in defaults and the fields generated by the payload builder.
func NormalizeDialog(a *Action, row backend.Row) Dialog {
	var d Dialog
	if a.Dialog != nil {
		d = *a.Dialog
		d.Fields = append([]ActionField(nil), a.Dialog.Fields...)
	}

	if a.Payload == PayloadReceiveLines {
		for _, line := range receiveLines(row) {
			lo, hi, step := 0.0, line.remaining, 0.001
			d.Fields = append(d.Fields, ActionField{
				Name:        "receive_" + line.id,
				Label:       fmt.Sprintf("Item #%s (Remaining %.3f)", line.id, line.remaining),
				Type:        FieldNumber,
				Min:         &lo,
				Max:         &hi,
				Step:        &step,
				Placeholder: "0.000",
			})
		}
	}

	if a.NeedsReason && !hasActionField(d.Fields, reasonField) {
		d.Fields = append(d.Fields, reasonActionField)
	}

	if d.Title == "" {
		d.Title = "تأكيد " + a.Label
	}
	if d.Description == "" {
		d.Description = a.ConfirmMessage
	}
	if d.Description == "" {
		d.Description = defaultDialogDescription
	}
	if d.ConfirmLabel == "" {
		d.ConfirmLabel = a.Label
	}
	return d
}

func hasActionField(fields []ActionField, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// DialogDefaults is the initial state of a dialog's inputs.
func DialogDefaults(fields []ActionField) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Default
	}
	return out
}

// ParseDialog reads submitted dialog inputs.
func ParseDialog(fields []ActionField, form url.Values) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = form.Get(f.Name)
	}
	return out
}

// ValidateDialog checks required and numeric dialog inputs.
func ValidateDialog(fields []ActionField, values map[string]string) []string {
	var errs []string
	for _, f := range fields {
		text := strings.TrimSpace(values[f.Name])
		if f.Required && text == "" {
			errs = append(errs, fmt.Sprintf("الحقل %s مطلوب.", f.Label))
			continue
		}
		if f.Type != FieldNumber || text == "" {
			continue
		}
		n, ok := ParseFiniteNumber(text)
		if !ok {
			errs = append(errs, fmt.Sprintf("الحقل %s يجب أن يكون رقماً صحيحاً.", f.Label))
			continue
		}
		if f.Min != nil && n < *f.Min {
			errs = append(errs, fmt.Sprintf("الحقل %s يجب أن يكون أكبر أو يساوي %s.", f.Label, formatLimit(*f.Min)))
		}
		if f.Max != nil && n > *f.Max {
			errs = append(errs, fmt.Sprintf("الحقل %s يجب أن يكون أقل أو يساوي %s.", f.Label, formatLimit(*f.Max)))
		}
	}
	return errs
}

// DialogPayload keeps the trimmed non-empty dialog values.
func DialogPayload(fields []ActionField, values map[string]string) map[string]any {
	out := map[string]any{}
	for _, f := range fields {
		if text := strings.TrimSpace(values[f.Name]); text != "" {
			out[f.Name] = text
		}
	}
	return out
}

// BuildPayload produces the action request body. A nil body with skip set
// means the action must not be sent.
func BuildPayload(a *Action, row backend.Row, dialog map[string]any) (body map[string]any, skip bool, err error) {
	switch a.Payload {
	case PayloadReceiveLines:
		body, err = buildReceivePayload(row, dialog)
		return body, false, err
	case PayloadJSONLines:
		text := strings.TrimSpace(stringify(dialog["lines"]))
		if text == "" {
			return nil, true, nil
		}
		lines, err := decodeJSON(text)
		if err != nil {
			return nil, false, ErrInvalidJSON
		}
		return map[string]any{reasonField: dialog[reasonField], "lines": lines}, false, nil
	}
	if len(dialog) == 0 {
		return nil, false, nil
	}
	return dialog, false, nil
}

func buildReceivePayload(row backend.Row, dialog map[string]any) (map[string]any, error) {
	lines := receiveLines(row)
	if len(lines) == 0 {
		return nil, actionError("This purchase order has no lines to receive.")
	}
	items := []map[string]any{}
	for _, line := range lines {
		qty := quantity(dialog["receive_"+line.id])
		if qty <= 0 {
			continue
		}
		if qty > line.remaining {
			return nil, actionError(fmt.Sprintf("Quantity for item #%s exceeds remaining amount (%.3f).", line.id, line.remaining))
		}
		itemID := any(line.id)
		if n, ok := ParseFiniteNumber(line.id); ok && n == math.Trunc(n) {
			itemID = int64(n)
		}
		items = append(items, map[string]any{"item_id": itemID, "quantity": fmt.Sprintf("%.3f", qty)})
	}
	if len(items) == 0 {
		return nil, actionError("Enter at least one received quantity greater than zero.")
	}
	return map[string]any{"items": items}, nil
}
