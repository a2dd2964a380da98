// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
)

//go:embed catalog/*.yaml
var embeddedFS embed.FS

// Section is one area's catalog file.
type Section struct {
	Area        access.Area `yaml:"area"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Pages       []Page      `yaml:"pages"`
}

// Catalog holds every page schema, grouped by area in sidebar order.
type Catalog struct {
	Sections []Section
	byKey    map[string]*Page
}

var (
	once    sync.Once
	builtin *Catalog
	loadErr error
)

// Load returns the embedded catalog. It is parsed once.
func Load() (*Catalog, error) {
	once.Do(func() {
		sub, err := fs.Sub(embeddedFS, "catalog")
		if err != nil {
			loadErr = err
			return
		}
		builtin, loadErr = LoadFS(sub)
	})
	return builtin, loadErr
}

// LoadFS parses and validates every *.yaml file at the root of fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	c := &Catalog{byKey: map[string]*Page{}}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var s Section
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if _, ok := access.ParseArea(string(s.Area)); !ok {
			return nil, fmt.Errorf("%s: unknown area %q", e.Name(), s.Area)
		}
		for i := range s.Pages {
			s.Pages[i].Area = s.Area
			s.Pages[i].applyDefaults()
		}
		c.Sections = append(c.Sections, s)
	}

	order := map[access.Area]int{}
	for i, a := range access.Areas {
		order[a] = i
	}
	sort.SliceStable(c.Sections, func(i, j int) bool {
		return order[c.Sections[i].Area] < order[c.Sections[j].Area]
	})

	for si := range c.Sections {
		s := &c.Sections[si]
		for pi := range s.Pages {
			p := &s.Pages[pi]
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("%s/%s: %w", s.Area.Slug(), p.Slug, err)
			}
			key := pageKey(s.Area, p.Slug)
			if _, dup := c.byKey[key]; dup {
				return nil, fmt.Errorf("%s/%s: duplicate page", s.Area.Slug(), p.Slug)
			}
			c.byKey[key] = p
		}
	}
	return c, nil
}

func pageKey(area access.Area, slug string) string {
	return string(area) + "/" + slug
}

// Page returns the page at /dashboard/{areaSlug}/{slug}.
func (c *Catalog) Page(areaSlug, slug string) (*Page, bool) {
	area, ok := access.AreaFromSlug(areaSlug)
	if !ok {
		return nil, false
	}
	p, ok := c.byKey[pageKey(area, slug)]
	return p, ok
}

// Section returns the catalog section of an area.
func (c *Catalog) Section(area access.Area) (*Section, bool) {
	for i := range c.Sections {
		if c.Sections[i].Area == area {
			return &c.Sections[i], true
		}
	}
	return nil, false
}

// Pages lists every page in sidebar order.
func (c *Catalog) Pages() []*Page {
	var out []*Page
	for si := range c.Sections {
		for pi := range c.Sections[si].Pages {
			out = append(out, &c.Sections[si].Pages[pi])
		}
	}
	return out
}

// ResourcePaths lists every distinct backend collection the catalog reads.
func (c *Catalog) ResourcePaths() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.Pages() {
		for _, rp := range p.ResourcePaths() {
			if !seen[rp] {
				seen[rp] = true
				out = append(out, rp)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Href is the list URL of p.
func (p *Page) Href() string {
	return "/dashboard/" + p.Area.Slug() + "/" + p.Slug
}

func (p *Page) applyDefaults() {
	for i := range p.Fields {
		f := &p.Fields[i]
		if f.Type == "" {
			f.Type = FieldText
		}
		if f.JSONEditor == nil {
			continue
		}
		for ci := range f.JSONEditor.Columns {
			if f.JSONEditor.Columns[ci].Type == "" {
				f.JSONEditor.Columns[ci].Type = FieldText
			}
		}
	}
	for i := range p.Actions {
		if d := p.Actions[i].Dialog; d != nil {
			for fi := range d.Fields {
				if d.Fields[fi].Type == "" {
					d.Fields[fi].Type = FieldText
				}
			}
		}
	}
}

// Validate checks a page schema for mistakes that would break rendering.
func (p *Page) Validate() error {
	if p.Slug == "" || p.Title == "" {
		return fmt.Errorf("slug and title are required")
	}
	if !strings.HasPrefix(p.ResourcePath, "/") || !strings.HasSuffix(p.ResourcePath, "/") {
		return fmt.Errorf("resource_path %q must start and end with /", p.ResourcePath)
	}
	if len(p.Columns) == 0 {
		return fmt.Errorf("at least one column is required")
	}
	for _, col := range p.Columns {
		if col.Key == "" || !col.Format.Valid() {
			return fmt.Errorf("column %q: invalid key or format %q", col.Key, col.Format)
		}
	}

	names := map[string]bool{}
	for i := range p.Fields {
		f := &p.Fields[i]
		if f.Name == "" || strings.HasPrefix(f.Name, "_") {
			return fmt.Errorf("field %q: invalid name", f.Name)
		}
		if names[f.Name] {
			return fmt.Errorf("field %q: duplicate name", f.Name)
		}
		names[f.Name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		if f.JSONEditor != nil && f.Type != FieldJSON {
			return fmt.Errorf("field %q: json_editor requires type json", f.Name)
		}
		if err := validateDynamic(f.DynamicOptions); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		if f.JSONEditor == nil {
			continue
		}
		if len(f.JSONEditor.Columns) == 0 {
			return fmt.Errorf("field %q: json_editor needs columns", f.Name)
		}
		for _, c := range f.JSONEditor.Columns {
			if c.Key == "" || !c.Type.Valid() || c.Type == FieldJSON {
				return fmt.Errorf("field %q column %q: invalid column", f.Name, c.Key)
			}
			if err := validateDynamic(c.DynamicOptions); err != nil {
				return fmt.Errorf("field %q column %q: %w", f.Name, c.Key, err)
			}
		}
	}

	for _, f := range p.Fields {
		if f.DynamicOptions == nil {
			continue
		}
		for _, source := range f.DynamicOptions.DependsOn {
			if !names[source] {
				return fmt.Errorf("field %q depends on unknown field %q", f.Name, source)
			}
		}
	}

	for _, a := range p.Actions {
		if a.Name == "" || a.Label == "" {
			return fmt.Errorf("action %q: name and label are required", a.Name)
		}
		switch a.Payload {
		case PayloadDialog, PayloadReceiveLines, PayloadJSONLines:
		default:
			return fmt.Errorf("action %q: unknown payload builder %q", a.Name, a.Payload)
		}
	}
	return nil
}

func validateDynamic(d *DynamicOptions) error {
	if d == nil {
		return nil
	}
	if !strings.HasPrefix(d.ResourcePath, "/") {
		return fmt.Errorf("dynamic_options.resource_path %q must start with /", d.ResourcePath)
	}
	return nil
}
