// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package guides

import (
	"strings"
	"testing"
	"testing/fstest"
)

// ============================================================================
// Embedded topics
// ============================================================================

func TestLoad(t *testing.T) {
	lib, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	topics := lib.Topics()
	if len(topics) != len(order) {
		t.Fatalf("topics = %d, want %d", len(topics), len(order))
	}
	for i, tp := range topics {
		if tp.Slug != order[i] {
			t.Errorf("topic %d = %s, want %s", i, tp.Slug, order[i])
		}
		if tp.Title == "" || tp.Summary == "" || tp.HTML == "" {
			t.Errorf("topic %s is incomplete: %+v", tp.Slug, tp)
		}
		if strings.Contains(tp.HTML, "<h1") {
			t.Errorf("topic %s still renders its title heading", tp.Slug)
		}
	}

	je, ok := lib.Topic("journal-entries")
	if !ok {
		t.Fatal("journal-entries not found")
	}
	if je.Title != "دليل القيود اليومية" {
		t.Errorf("Title = %q", je.Title)
	}
	if je.Href() != "/dashboard/finance/guides/journal-entries" {
		t.Errorf("Href() = %q", je.Href())
	}
	if !strings.Contains(je.HTML, "<ol>") || !strings.Contains(je.HTML, "<strong>أو</strong>") {
		t.Errorf("HTML = %s", je.HTML)
	}

	if _, ok := lib.Topic("missing"); ok {
		t.Error("unknown topic found")
	}
	if again, _ := Load(); again != lib {
		t.Error("Load must render once")
	}
}

// ============================================================================
// LoadFS
// ============================================================================

func TestLoadFS(t *testing.T) {
	t.Run("order and summary", func(t *testing.T) {
		lib, err := LoadFS(fstest.MapFS{
			"zeta.md":     {Data: []byte("# Zeta\n\nLast one.\n")},
			"invoices.md": {Data: []byte("# Invoices\n\nFirst line\nsecond line.\n\n## Steps\n\n- one\n")},
			"notes.txt":   {Data: []byte("ignored")},
		})
		if err != nil {
			t.Fatalf("LoadFS() error = %v", err)
		}
		topics := lib.Topics()
		if len(topics) != 2 || topics[0].Slug != "invoices" || topics[1].Slug != "zeta" {
			t.Fatalf("topics = %+v", topics)
		}
		if topics[0].Summary != "First line second line." {
			t.Errorf("Summary = %q", topics[0].Summary)
		}
		if !strings.Contains(topics[0].HTML, "<h2>Steps</h2>") {
			t.Errorf("HTML = %s", topics[0].HTML)
		}
	})

	t.Run("raw html is dropped", func(t *testing.T) {
		lib, err := LoadFS(fstest.MapFS{
			"x.md": {Data: []byte("# X\n\nsummary\n\n<script>alert(1)</script>\n")},
		})
		if err != nil {
			t.Fatal(err)
		}
		tp, _ := lib.Topic("x")
		if strings.Contains(tp.HTML, "<script>") {
			t.Errorf("HTML = %s", tp.HTML)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := LoadFS(fstest.MapFS{"x.md": {Data: []byte("## Not a title\n")}})
		if err == nil || !strings.Contains(err.Error(), "missing title heading") {
			t.Errorf("LoadFS() error = %v", err)
		}
	})
}
