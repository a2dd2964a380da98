// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package guides serves the finance how-to pages. Topics are markdown files
// embedded at build time and rendered once with goldmark.
package guides

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

//go:embed topics/*.md
var topicsFS embed.FS

// order is the sidebar order. Topics missing here sort last.
var order = []string{"journal-entries", "invoices", "payments", "accounts"}

// Topic is one rendered guide.
type Topic struct {
	Slug    string
	Title   string
	Summary string
	// HTML is goldmark output. Raw HTML in the source is not passed through.
	HTML string
}

// Href is the page URL of the topic.
func (t *Topic) Href() string {
	return "/dashboard/finance/guides/" + t.Slug
}

// Library holds every topic in display order.
type Library struct {
	topics []*Topic
	bySlug map[string]*Topic
}

var (
	md = goldmark.New(goldmark.WithExtensions(extension.GFM))

	once    sync.Once
	builtin *Library
	loadErr error
)

// Load returns the embedded library. It is rendered once.
func Load() (*Library, error) {
	once.Do(func() {
		sub, err := fs.Sub(topicsFS, "topics")
		if err != nil {
			loadErr = err
			return
		}
		builtin, loadErr = LoadFS(sub)
	})
	return builtin, loadErr
}

// LoadFS renders every *.md file at the root of fsys. Each file must start
// with a level-one heading.
func LoadFS(fsys fs.FS) (*Library, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read guides: %w", err)
	}

	lib := &Library{bySlug: map[string]*Topic{}}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		src, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		t, err := render(strings.TrimSuffix(e.Name(), ".md"), src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		lib.topics = append(lib.topics, t)
		lib.bySlug[t.Slug] = t
	}

	rank := func(slug string) int {
		for i, s := range order {
			if s == slug {
				return i
			}
		}
		return len(order)
	}
	sort.SliceStable(lib.topics, func(i, j int) bool {
		ri, rj := rank(lib.topics[i].Slug), rank(lib.topics[j].Slug)
		if ri != rj {
			return ri < rj
		}
		return lib.topics[i].Slug < lib.topics[j].Slug
	})
	return lib, nil
}

func render(slug string, src []byte) (*Topic, error) {
	doc := md.Parser().Parse(text.NewReader(src))

	h, ok := doc.FirstChild().(*ast.Heading)
	if !ok || h.Level != 1 {
		return nil, fmt.Errorf("missing title heading")
	}
	t := &Topic{Slug: slug, Title: inlineText(h, src)}
	doc.RemoveChild(doc, h)
	if p, ok := doc.FirstChild().(*ast.Paragraph); ok {
		t.Summary = inlineText(p, src)
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	t.HTML = buf.String()
	return t, nil
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// Topics lists the topics in display order.
func (l *Library) Topics() []*Topic {
	return l.topics
}

// Topic returns the topic with the given slug.
func (l *Library) Topic(slug string) (*Topic, bool) {
	t, ok := l.bySlug[slug]
	return t, ok
}
