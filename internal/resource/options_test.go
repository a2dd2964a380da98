// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sync"
	"testing"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
)

// fakeLister records list calls and serves canned rows per resource path.
type fakeLister struct {
	mu    sync.Mutex
	calls []string
	rows  map[string][]backend.Row
	fail  map[string]bool
}

func (f *fakeLister) list(_ context.Context, path string, params backend.ListParams) (*backend.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path+"?"+params.Query().Encode())
	if f.fail[path] {
		return nil, fmt.Errorf("backend down")
	}
	rows := f.rows[path]
	return &backend.Page{Count: len(rows), Results: rows}, nil
}

func projectRows() []backend.Row {
	return []backend.Row{
		{"id": json.Number("1"), "code": "P-1", "name": "Tower"},
		{"id": json.Number("2"), "code": "P-2", "name": "Mall"},
	}
}

// ============================================================================
// Labels and queries
// ============================================================================

func TestOptionLabel(t *testing.T) {
	tests := []struct {
		name string
		row  backend.Row
		def  DynamicOptions
		want string
	}{
		{"label fields joined", backend.Row{"code": "P-1", "name": "Tower"}, DynamicOptions{LabelFields: []string{"code", "name"}}, "P-1 - Tower"},
		{"empty label fields skipped", backend.Row{"code": "", "name": "Tower"}, DynamicOptions{LabelFields: []string{"code", "name"}}, "Tower"},
		{"label field", backend.Row{"title": "Main"}, DynamicOptions{LabelField: "title"}, "Main"},
		{"name fallback", backend.Row{"name": "Tower", "code": "P-1"}, DynamicOptions{}, "Tower"},
		{"code fallback", backend.Row{"code": "P-1"}, DynamicOptions{}, "P-1"},
		{"id fallback", backend.Row{"id": json.Number("9")}, DynamicOptions{}, "9"},
		{"nothing", backend.Row{}, DynamicOptions{}, "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OptionLabel(tt.row, &tt.def); got != tt.want {
				t.Errorf("OptionLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFieldQuery(t *testing.T) {
	def := &DynamicOptions{
		ResourcePath: "/v1/projects/phases/",
		Filters:      map[string]string{"is_active": "true"},
		DependsOn:    map[string]string{"project": "project"},
	}

	q, ok := FieldQuery(def, Values{Scalar: map[string]string{"project": " 4 "}})
	if !ok {
		t.Fatal("dependency is set, lookup should run")
	}
	if want := (url.Values{"is_active": {"true"}, "project": {"4"}}); !reflect.DeepEqual(q, want) {
		t.Errorf("query = %v, want %v", q, want)
	}

	if _, ok := FieldQuery(def, Values{Scalar: map[string]string{}}); ok {
		t.Error("empty required dependency must block the lookup")
	}

	optional := false
	def.RequireDependsOn = &optional
	q, ok = FieldQuery(def, Values{Scalar: map[string]string{}})
	if !ok || q.Has("project") {
		t.Errorf("optional dependency: ok=%v query=%v", ok, q)
	}
}

func TestCellQuery(t *testing.T) {
	def := &DynamicOptions{
		ResourcePath:  "/v1/projects/cost-codes/",
		DependsOnForm: map[string]string{"project": "project"},
		DependsOnRow:  map[string]string{"phase": "phase"},
	}
	v := Values{Scalar: map[string]string{"project": "1"}}

	q, ok := CellQuery(def, EditorRow{"phase": "3"}, v)
	if !ok || q.Get("project") != "1" || q.Get("phase") != "3" {
		t.Errorf("query = %v ok=%v", q, ok)
	}
	if _, ok := CellQuery(def, EditorRow{"phase": ""}, v); ok {
		t.Error("empty row dependency must block the lookup")
	}
}

// ============================================================================
// Resolve
// ============================================================================

func TestOptionResolver_Resolve(t *testing.T) {
	lister := &fakeLister{rows: map[string][]backend.Row{
		"/v1/projects/projects/": projectRows(),
		"/v1/projects/phases/":   {{"id": json.Number("10"), "name": "Foundation"}},
	}}
	projectLookup := &DynamicOptions{ResourcePath: "/v1/projects/projects/", LabelFields: []string{"code", "name"}, Ordering: "code"}
	fields := []Field{
		{Name: "project", Type: FieldSelect, DynamicOptions: projectLookup},
		{Name: "other_project", Type: FieldSelect, DynamicOptions: projectLookup,
			Options: []Option{{Label: "None", Value: "0"}, {Label: "Dup", Value: "1"}}},
		{Name: "phase", Type: FieldSelect, Options: []Option{{Label: "Keep", Value: "k"}}, DynamicOptions: &DynamicOptions{
			ResourcePath: "/v1/projects/phases/", DependsOn: map[string]string{"project": "project"}}},
	}

	r := NewOptionResolver(nil, nil)

	t.Run("blocked dependency", func(t *testing.T) {
		lister.calls = nil
		got := r.Resolve(context.Background(), "u1", fields, Values{Scalar: map[string]string{}}, lister.list)

		if len(lister.calls) != 1 {
			t.Fatalf("identical lookups must be made once, calls = %v", lister.calls)
		}
		if want := "/v1/projects/projects/?ordering=code&page_size=200"; lister.calls[0] != want {
			t.Errorf("call = %q, want %q", lister.calls[0], want)
		}
		phase := got.Field("phase")
		if !phase.Blocked || len(phase.Options) != 1 || phase.Options[0].Value != "k" {
			t.Errorf("phase = %+v", phase)
		}
		want := []Option{{Label: "P-1 - Tower", Value: "1"}, {Label: "P-2 - Mall", Value: "2"}}
		if !reflect.DeepEqual(got.Field("project").Options, want) {
			t.Errorf("project options = %+v", got.Field("project").Options)
		}
		merged := got.Field("other_project").Options
		if len(merged) != 3 || merged[0].Value != "0" || merged[1].Label != "Dup" || merged[2].Value != "2" {
			t.Errorf("static options must come first without duplicates: %+v", merged)
		}
	})

	t.Run("dependency set", func(t *testing.T) {
		lister.calls = nil
		got := r.Resolve(context.Background(), "u1", fields, Values{Scalar: map[string]string{"project": "1"}}, lister.list)
		if len(lister.calls) != 2 {
			t.Fatalf("calls = %v", lister.calls)
		}
		phase := got.Field("phase")
		if phase.Blocked || len(phase.Options) != 2 || phase.Options[1].Label != "Foundation" {
			t.Errorf("phase = %+v", phase)
		}
	})

	t.Run("failure degrades", func(t *testing.T) {
		lister.fail = map[string]bool{"/v1/projects/projects/": true}
		defer func() { lister.fail = nil }()
		got := r.Resolve(context.Background(), "u1", fields[:1], Values{Scalar: map[string]string{}}, lister.list)
		if !got.Field("project").Failed {
			t.Errorf("project = %+v, want Failed", got.Field("project"))
		}
	})
}

func TestOptionResolver_ResolveCells(t *testing.T) {
	lister := &fakeLister{rows: map[string][]backend.Row{
		"/v1/finance/accounts/": {{"id": json.Number("5"), "code": "1000", "name": "Cash"}},
	}}
	fields := []Field{{Name: "lines", Type: FieldJSON, JSONEditor: &JSONEditor{Columns: []EditorColumn{
		{Key: "account", Type: FieldSelect, DynamicOptions: &DynamicOptions{
			ResourcePath: "/v1/finance/accounts/", LabelFields: []string{"code", "name"}}},
		{Key: "debit", Type: FieldNumber},
	}}}}
	v := Values{Rows: map[string][]EditorRow{"lines": {{"account": ""}, {"account": "5"}}}}

	got := NewOptionResolver(nil, nil).Resolve(context.Background(), "u1", fields, v, lister.list)

	if len(lister.calls) != 1 {
		t.Errorf("rows sharing a lookup must fetch once, calls = %v", lister.calls)
	}
	for i := 0; i < 2; i++ {
		opts := got.Cell("lines", i, "account").Options
		if len(opts) != 1 || opts[0].Label != "1000 - Cash" {
			t.Errorf("row %d options = %+v", i, opts)
		}
	}
}
