// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/cache"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/logger"
)

// OptionsPageSize is the number of rows loaded for a dynamic select.
const OptionsPageSize = 200

const optionFetchLimit = 4

// ListFunc loads one page of a collection on behalf of the current user.
type ListFunc func(ctx context.Context, resourcePath string, params backend.ListParams) (*backend.Page, error)

// OptionState is what a select renders: its choices, whether a required
// dependency is still empty, and whether loading failed.
type OptionState struct {
	Options []Option
	Blocked bool
	Failed  bool
}

// FormOptions holds the resolved options of every dynamic select in a form.
// Editor cells are keyed by CellKey.
type FormOptions struct {
	Fields map[string]OptionState
	Cells  map[string]OptionState
}

// CellKey identifies one line-editor select.
func CellKey(field string, row int, column string) string {
	return fmt.Sprintf("%s:%d:%s", field, row, column)
}

// Field returns the state of a top-level select.
func (o FormOptions) Field(name string) OptionState {
	return o.Fields[name]
}

// Cell returns the state of a line-editor select.
func (o FormOptions) Cell(field string, row int, column string) OptionState {
	return o.Cells[CellKey(field, row, column)]
}

// OptionLabel builds the display text of a looked-up row: the joined
// label_fields, then label_field, then name, code and id.
func OptionLabel(row backend.Row, d *DynamicOptions) string {
	if len(d.LabelFields) > 0 {
		var parts []string
		for _, name := range d.LabelFields {
			if s := strings.TrimSpace(stringify(row[name])); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " - ")
		}
	}
	if d.LabelField != "" {
		if s := strings.TrimSpace(stringify(row[d.LabelField])); s != "" {
			return s
		}
	}
	for _, key := range []string{"name", "code"} {
		if s := strings.TrimSpace(stringify(row[key])); s != "" {
			return s
		}
	}
	if s := stringify(row["id"]); s != "" {
		return s
	}
	return "N/A"
}

// resolveFilters merges the static filters with values read through deps.
// missing is true when a required dependency has no value.
func resolveFilters(into url.Values, deps map[string]string, require *bool, lookup func(string) string) (missing bool) {
	required := boolOr(require, len(deps) > 0)
	for _, param := range sortedKeys(deps) {
		value := strings.TrimSpace(lookup(deps[param]))
		if value == "" {
			if required {
				missing = true
			}
			continue
		}
		into.Set(param, value)
	}
	return missing
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func staticFilters(d *DynamicOptions) url.Values {
	q := url.Values{}
	for _, k := range sortedKeys(d.Filters) {
		if v := d.Filters[k]; v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// FieldQuery returns the filters for a top-level dynamic select. ok is false
// when a required dependency is empty.
func FieldQuery(d *DynamicOptions, v Values) (url.Values, bool) {
	q := staticFilters(d)
	missing := resolveFilters(q, d.DependsOn, d.RequireDependsOn, v.Get)
	return q, !missing
}

// CellQuery returns the filters for a line-editor select in row.
func CellQuery(d *DynamicOptions, row EditorRow, v Values) (url.Values, bool) {
	q := staticFilters(d)
	missingForm := resolveFilters(q, d.DependsOnForm, d.RequireDependsOnForm, v.Get)
	missingRow := resolveFilters(q, d.DependsOnRow, d.RequireDependsOnRow, func(key string) string { return row[key] })
	return q, !missingForm && !missingRow
}

// OptionResolver loads dynamic select options through a per-user cache.
type OptionResolver struct {
	cache  cache.OptionsCache
	logger *logger.Logger
}

// NewOptionResolver creates a resolver. A nil cache disables caching.
func NewOptionResolver(c cache.OptionsCache, log *logger.Logger) *OptionResolver {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OptionResolver{cache: c, logger: log.Named("options")}
}

type optionRequest struct {
	def   *DynamicOptions
	query url.Values
	key   string
}

type optionResult struct {
	options []Option
	failed  bool
}

// Resolve loads the options of every dynamic select in fields. Identical
// lookups are made once; a failed lookup marks its selects Failed without
// failing the form. scope identifies the user the cache entries belong to.
func (r *OptionResolver) Resolve(ctx context.Context, scope string, fields []Field, v Values, list ListFunc) FormOptions {
	out := FormOptions{Fields: map[string]OptionState{}, Cells: map[string]OptionState{}}
	requests := map[string]*optionRequest{}
	fieldKeys := map[string]string{}
	cellKeys := map[string]string{}

	add := func(d *DynamicOptions, q url.Values) string {
		key := d.ResourcePath + "?" + q.Encode() + "#" + d.Value() + "|" + d.LabelField + "|" + strings.Join(d.LabelFields, ",") + "|" + d.Ordering
		if _, ok := requests[key]; !ok {
			requests[key] = &optionRequest{def: d, query: q, key: key}
		}
		return key
	}

	for i := range fields {
		f := &fields[i]
		switch {
		case f.DynamicOptions != nil && !f.IsLineEditor():
			q, ok := FieldQuery(f.DynamicOptions, v)
			if !ok {
				out.Fields[f.Name] = OptionState{Options: f.Options, Blocked: true}
				continue
			}
			fieldKeys[f.Name] = add(f.DynamicOptions, q)
		case f.IsLineEditor():
			for idx, row := range v.Rows[f.Name] {
				for ci := range f.JSONEditor.Columns {
					c := &f.JSONEditor.Columns[ci]
					if c.DynamicOptions == nil {
						continue
					}
					cell := CellKey(f.Name, idx, c.Key)
					q, ok := CellQuery(c.DynamicOptions, row, v)
					if !ok {
						out.Cells[cell] = OptionState{Options: c.Options, Blocked: true}
						continue
					}
					cellKeys[cell] = add(c.DynamicOptions, q)
				}
			}
		}
	}

	results := r.fetch(ctx, scope, requests, list)

	for i := range fields {
		f := &fields[i]
		if key, ok := fieldKeys[f.Name]; ok {
			res := results[key]
			out.Fields[f.Name] = OptionState{Options: mergeOptions(f.Options, res.options), Failed: res.failed}
		}
		if !f.IsLineEditor() {
			continue
		}
		for idx := range v.Rows[f.Name] {
			for _, c := range f.JSONEditor.Columns {
				cell := CellKey(f.Name, idx, c.Key)
				if key, ok := cellKeys[cell]; ok {
					res := results[key]
					out.Cells[cell] = OptionState{Options: mergeOptions(c.Options, res.options), Failed: res.failed}
				}
			}
		}
	}
	return out
}

func (r *OptionResolver) fetch(ctx context.Context, scope string, requests map[string]*optionRequest, list ListFunc) map[string]optionResult {
	keys := make([]string, 0, len(requests))
	for k := range requests {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]optionResult, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(optionFetchLimit)
	for i, key := range keys {
		i := i
		req := requests[key]
		g.Go(func() error {
			opts, err := r.load(gctx, scope, req, list)
			if err != nil {
				r.logger.Warn("option lookup failed", "path", req.def.ResourcePath, "error", err)
				results[i] = optionResult{failed: true}
				return nil
			}
			results[i] = optionResult{options: opts}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]optionResult, len(keys))
	for i, key := range keys {
		out[key] = results[i]
	}
	return out
}

func (r *OptionResolver) load(ctx context.Context, scope string, req *optionRequest, list ListFunc) ([]Option, error) {
	params := backend.ListParams{PageSize: OptionsPageSize, Ordering: req.def.Ordering, Extra: req.query}
	cacheQuery := params.Query()
	cacheQuery.Set("_label", req.key)

	var opts []Option
	err := r.cache.GetOrSet(ctx, scope, req.def.ResourcePath, cacheQuery, &opts, func() (any, error) {
		page, err := list(ctx, req.def.ResourcePath, params)
		if err != nil {
			return nil, err
		}
		loaded := make([]Option, 0, len(page.Results))
		for _, row := range page.Results {
			loaded = append(loaded, Option{Value: stringify(row[req.def.Value()]), Label: OptionLabel(row, req.def)})
		}
		return loaded, nil
	})
	return opts, err
}

// mergeOptions puts static choices first and drops dynamic duplicates.
func mergeOptions(static, dynamic []Option) []Option {
	if len(static) == 0 {
		return dynamic
	}
	seen := map[string]bool{}
	out := make([]Option, 0, len(static)+len(dynamic))
	for _, list := range [][]Option{static, dynamic} {
		for _, o := range list {
			if seen[o.Value] {
				continue
			}
			seen[o.Value] = true
			out = append(out, o)
		}
	}
	return out
}

// InvalidateOptions drops cached option lists for a collection after it was
// written to.
func (r *OptionResolver) InvalidateOptions(ctx context.Context, resourcePath string) {
	if err := r.cache.InvalidatePath(ctx, resourcePath); err != nil {
		r.logger.Warn("option cache invalidation failed", "path", resourcePath, "error", err)
	}
}
