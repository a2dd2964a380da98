// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package permmap

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	quotedPathPattern = regexp.MustCompile("[\"'`](/v[12]/[a-z0-9\\-/]+/)[\"'`]")
	yamlPathPattern   = regexp.MustCompile(`(?m)^\s*resource_path:\s*["']?(/v[12]/[a-z0-9\-/]+/)["']?\s*$`)
)

var scannedExtensions = map[string]bool{
	".go":    true,
	".yaml":  true,
	".yml":   true,
	".templ": true,
}

// ExtractPaths returns the backend resource paths referenced in src.
func ExtractPaths(src []byte) []string {
	var out []string
	for _, re := range []*regexp.Regexp{quotedPathPattern, yamlPathPattern} {
		for _, m := range re.FindAllSubmatch(src, -1) {
			out = append(out, string(m[1]))
		}
	}
	return out
}

// ScanSource walks root and collects every distinct resource path literal.
// Test files and vendored trees are skipped.
func ScanSource(root string) ([]string, error) {
	found := map[string]bool{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !scannedExtensions[filepath.Ext(path)] || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, p := range ExtractPaths(src) {
			found[p] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	paths := make([]string, 0, len(found))
	for p := range found {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Check returns the paths that have no definition. It fails when paths is
// empty, since that means the scan matched nothing.
func Check(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no resource paths found")
	}
	var missing []string
	for _, p := range paths {
		if _, ok := Lookup(p); !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return missing, fmt.Errorf("%d resource path(s) without a permission definition", len(missing))
	}
	return nil, nil
}
