// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/errors"
)

func purchaseOrderRow() backend.Row {
	return backend.Row{
		"id": json.Number("7"),
		"items": []any{
			map[string]any{"id": json.Number("11"), "quantity": json.Number("10"), "received_quantity": json.Number("4")},
			map[string]any{"id": json.Number("12"), "quantity": "2", "received_quantity": "3"},
			"garbage",
		},
	}
}

// ============================================================================
// Dialog
// ============================================================================

func TestNormalizeDialog_Defaults(t *testing.T) {
	a := &Action{Label: "رفض", Name: "reject", NeedsReason: true}
	d := NormalizeDialog(a, nil)

	if d.Title != "تأكيد رفض" || d.ConfirmLabel != "رفض" || d.Description != defaultDialogDescription {
		t.Errorf("dialog = %+v", d)
	}
	if len(d.Fields) != 1 || d.Fields[0].Name != "reason" || !d.Fields[0].Required {
		t.Errorf("reason field missing: %+v", d.Fields)
	}

	a.ConfirmMessage = "سيتم رفض الطلب."
	a.Dialog = &Dialog{Title: "Custom", Fields: []ActionField{{Name: "reason", Label: "Why"}}}
	d = NormalizeDialog(a, nil)
	if d.Title != "Custom" || d.Description != "سيتم رفض الطلب." {
		t.Errorf("dialog = %+v", d)
	}
	if len(d.Fields) != 1 || d.Fields[0].Label != "Why" {
		t.Errorf("declared reason field must not be duplicated: %+v", d.Fields)
	}
	if len(a.Dialog.Fields) != 1 {
		t.Error("declared dialog must not be mutated")
	}
}

func TestNormalizeDialog_ReceiveLines(t *testing.T) {
	a := &Action{Label: "استلام", Name: "receive", Payload: PayloadReceiveLines}
	d := NormalizeDialog(a, purchaseOrderRow())

	if len(d.Fields) != 2 {
		t.Fatalf("fields = %+v", d.Fields)
	}
	first := d.Fields[0]
	if first.Name != "receive_11" || first.Label != "Item #11 (Remaining 6.000)" || *first.Max != 6 {
		t.Errorf("first = %+v", first)
	}
	if second := d.Fields[1]; *second.Max != 0 {
		t.Errorf("over-received line must clamp to 0, got %v", *second.Max)
	}
}

func TestValidateDialog(t *testing.T) {
	lo, hi := 0.0, 5.0
	fields := []ActionField{
		{Name: "reason", Label: "السبب", Required: true},
		{Name: "qty", Label: "الكمية", Type: FieldNumber, Min: &lo, Max: &hi},
	}

	tests := []struct {
		name   string
		values map[string]string
		want   []string
	}{
		{"valid", map[string]string{"reason": "x", "qty": "2"}, nil},
		{"required", map[string]string{"reason": "  ", "qty": ""}, []string{"الحقل السبب مطلوب."}},
		{"not a number", map[string]string{"reason": "x", "qty": "abc"}, []string{"الحقل الكمية يجب أن يكون رقماً صحيحاً."}},
		{"above max", map[string]string{"reason": "x", "qty": "7"}, []string{"الحقل الكمية يجب أن يكون أقل أو يساوي 5."}},
		{"below min", map[string]string{"reason": "x", "qty": "-1"}, []string{"الحقل الكمية يجب أن يكون أكبر أو يساوي 0."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDialog(fields, tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("errors = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("error %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseDialogAndPayload(t *testing.T) {
	fields := []ActionField{{Name: "reason", Default: "default"}, {Name: "note"}}
	if d := DialogDefaults(fields); d["reason"] != "default" || d["note"] != "" {
		t.Errorf("defaults = %v", d)
	}
	values := ParseDialog(fields, url.Values{"reason": {" late "}, "note": {"  "}, "other": {"x"}})
	payload := DialogPayload(fields, values)
	if len(payload) != 1 || payload["reason"] != "late" {
		t.Errorf("payload = %v", payload)
	}
}

// ============================================================================
// BuildPayload
// ============================================================================

func TestBuildPayload_ReceiveLines(t *testing.T) {
	a := &Action{Name: "receive", Payload: PayloadReceiveLines}

	t.Run("items", func(t *testing.T) {
		body, skip, err := BuildPayload(a, purchaseOrderRow(), map[string]any{"receive_11": "2.5", "receive_12": "0"})
		if err != nil || skip {
			t.Fatalf("err=%v skip=%v", err, skip)
		}
		items := body["items"].([]map[string]any)
		if len(items) != 1 {
			t.Fatalf("items = %v", items)
		}
		if items[0]["item_id"] != int64(11) || items[0]["quantity"] != "2.500" {
			t.Errorf("item = %v", items[0])
		}
	})

	errCases := []struct {
		name   string
		row    backend.Row
		dialog map[string]any
		msg    string
	}{
		{"no lines", backend.Row{}, nil, "This purchase order has no lines to receive."},
		{"exceeds", purchaseOrderRow(), map[string]any{"receive_11": "6.5"}, "Quantity for item #11 exceeds remaining amount (6.000)."},
		{"nothing entered", purchaseOrderRow(), map[string]any{}, "Enter at least one received quantity greater than zero."},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildPayload(a, tt.row, tt.dialog)
			ae, ok := errors.GetAppError(err)
			if !ok {
				t.Fatalf("err = %v, want AppError", err)
			}
			if ae.Message != tt.msg || ae.HTTPStatus != http.StatusBadRequest {
				t.Errorf("err = %+v", ae)
			}
		})
	}
}

func TestBuildPayload_JSONLines(t *testing.T) {
	a := &Action{Name: "reverse", Payload: PayloadJSONLines}

	if body, skip, err := BuildPayload(a, nil, map[string]any{"lines": "  "}); body != nil || !skip || err != nil {
		t.Errorf("empty lines: body=%v skip=%v err=%v", body, skip, err)
	}
	if _, _, err := BuildPayload(a, nil, map[string]any{"lines": "[{"}); err != ErrInvalidJSON {
		t.Errorf("err = %v, want ErrInvalidJSON", err)
	}
	body, _, err := BuildPayload(a, nil, map[string]any{"reason": "fix", "lines": `[{"debit": 5}]`})
	if err != nil {
		t.Fatal(err)
	}
	lines := body["lines"].([]any)
	if body["reason"] != "fix" || len(lines) != 1 {
		t.Errorf("body = %v", body)
	}
}

func TestBuildPayload_Dialog(t *testing.T) {
	a := &Action{Name: "submit"}
	if body, skip, err := BuildPayload(a, nil, nil); body != nil || skip || err != nil {
		t.Errorf("empty dialog: body=%v skip=%v err=%v", body, skip, err)
	}
	body, _, _ := BuildPayload(a, nil, map[string]any{"reason": "x"})
	if body["reason"] != "x" {
		t.Errorf("body = %v", body)
	}
}
