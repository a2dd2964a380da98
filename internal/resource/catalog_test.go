// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/permmap"
)

// ============================================================================
// Embedded catalog
// ============================================================================

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(c.Sections) != len(access.Areas) {
		t.Fatalf("sections = %d, want one per area", len(c.Sections))
	}
	for i, s := range c.Sections {
		if s.Area != access.Areas[i] {
			t.Errorf("section %d = %s, want %s", i, s.Area, access.Areas[i])
		}
		if s.Title == "" || len(s.Pages) == 0 {
			t.Errorf("section %s is empty", s.Area)
		}
	}

	p, ok := c.Page("real-estate", "units")
	if !ok {
		t.Fatal("real-estate/units not found")
	}
	if p.Area != access.AreaRealEstate || p.Href() != "/dashboard/real-estate/units" {
		t.Errorf("page = %s %s", p.Area, p.Href())
	}
	if _, ok := c.Page("real_estate", "units"); ok {
		t.Error("lookup must use the URL slug")
	}
	if _, ok := c.Page("projects", "missing"); ok {
		t.Error("unknown page found")
	}

	again, _ := Load()
	if again != c {
		t.Error("Load must parse once")
	}
}

func TestLoad_EveryPathIsMapped(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, rp := range c.ResourcePaths() {
		if _, ok := permmap.Lookup(rp); !ok {
			t.Errorf("resource path %s has no permission mapping", rp)
		}
	}
	for _, p := range c.Pages() {
		if p.UploadPath == "" {
			continue
		}
		if _, ok := permmap.Lookup(p.UploadPath); !ok {
			t.Errorf("upload path %s has no permission mapping", p.UploadPath)
		}
	}
}

func TestLoad_ActionsAreGated(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range c.Pages() {
		def, ok := permmap.Lookup(p.ResourcePath)
		if !ok {
			continue
		}
		for _, a := range p.Actions {
			if len(permmap.ActionCodenames(def, a.Name)) == 0 {
				t.Errorf("%s action %s has no codenames", p.Href(), a.Name)
			}
		}
	}
}

// ============================================================================
// LoadFS validation
// ============================================================================

func TestLoadFS(t *testing.T) {
	const good = `
area: projects
title: Projects
pages:
  - slug: phases
    title: Phases
    resource_path: /v1/projects/phases/
    columns:
      - key: name
        label: Name
    fields:
      - name: name
        label: Name
`
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{"valid", fstest.MapFS{"projects.yaml": {Data: []byte(good)}, "README.md": {Data: []byte("x")}}, ""},
		{"unknown area", fstest.MapFS{"x.yaml": {Data: []byte("area: hr\ntitle: HR\n")}}, "unknown area"},
		{"bad yaml", fstest.MapFS{"x.yaml": {Data: []byte("area: [")}}, "parse x.yaml"},
		{"duplicate page", fstest.MapFS{
			"a.yaml": {Data: []byte(good)},
			"b.yaml": {Data: []byte(good)},
		}, "duplicate page"},
		{"bad resource path", fstest.MapFS{"x.yaml": {Data: []byte(strings.Replace(good, "/v1/projects/phases/", "v1/phases", 1))}}, "must start and end with /"},
		{"bad field type", fstest.MapFS{"x.yaml": {Data: []byte(good + "        type: blob\n")}}, "unknown type"},
		{"reserved field name", fstest.MapFS{"x.yaml": {Data: []byte(strings.Replace(good, "- name: name", "- name: _csrf", 1))}}, "invalid name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadFS(tt.files)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("LoadFS() error = %v", err)
				}
				p, ok := c.Page("projects", "phases")
				if !ok || p.Fields[0].Type != FieldText {
					t.Errorf("page = %+v", p)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFS() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestPageValidate_Dependencies(t *testing.T) {
	p := &Page{
		Slug: "x", Title: "X", ResourcePath: "/v1/x/",
		Columns: []Column{{Key: "id"}},
		Fields: []Field{{Name: "phase", Type: FieldSelect, DynamicOptions: &DynamicOptions{
			ResourcePath: "/v1/projects/phases/", DependsOn: map[string]string{"project": "project"}}}},
	}
	if err := p.Validate(); err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Errorf("Validate() = %v", err)
	}
	p.Fields = append(p.Fields, Field{Name: "project", Type: FieldText})
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
