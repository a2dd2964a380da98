// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package ui holds the shared HTML building blocks: an escaping markup
// writer that produces templ components, the page layout and the sidebar.
package ui

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// Attr is one HTML attribute. Boolean attributes are written without a
// value and skipped when Off is set.
type Attr struct {
	Name  string
	Value string
	Bool  bool
	Off   bool
}

// A returns a name="value" attribute.
func A(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// Class returns a class attribute.
func Class(value string) Attr {
	return Attr{Name: "class", Value: value}
}

// If returns a boolean attribute that is present only when on.
func If(on bool, name string) Attr {
	return Attr{Name: name, Bool: true, Off: !on}
}

// Opt returns name="value" when value is not empty.
func Opt(name, value string) Attr {
	return Attr{Name: name, Value: value, Off: value == ""}
}

// Float returns a numeric attribute when v is set.
func Float(name string, v *float64) Attr {
	if v == nil {
		return Attr{Name: name, Off: true}
	}
	return Attr{Name: name, Value: strconv.FormatFloat(*v, 'f', -1, 64)}
}

// Writer writes escaped markup. The first write error is kept and every
// later call becomes a no-op.
type Writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

// Component turns a markup function into a templ component.
func Component(fn func(h *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &Writer{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

// Context is the render context.
func (h *Writer) Context() context.Context {
	return h.ctx
}

func (h *Writer) write(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// Raw writes trusted markup as is.
func (h *Writer) Raw(s string) {
	h.write(s)
}

// Text writes escaped text.
func (h *Writer) Text(s string) {
	h.write(templ.EscapeString(s))
}

func (h *Writer) attrs(attrs []Attr) {
	for _, a := range attrs {
		if a.Off {
			continue
		}
		h.write(" " + a.Name)
		if a.Bool {
			continue
		}
		h.write(`="` + templ.EscapeString(a.Value) + `"`)
	}
}

// Open writes a start tag.
func (h *Writer) Open(tag string, attrs ...Attr) {
	h.write("<" + tag)
	h.attrs(attrs)
	h.write(">")
}

// Close writes an end tag.
func (h *Writer) Close(tag string) {
	h.write("</" + tag + ">")
}

// Void writes an element without content, such as input or br.
func (h *Writer) Void(tag string, attrs ...Attr) {
	h.Open(tag, attrs...)
}

// Elem writes an element holding escaped text.
func (h *Writer) Elem(tag, text string, attrs ...Attr) {
	h.Open(tag, attrs...)
	h.Text(text)
	h.Close(tag)
}

// Wrap writes an element around the markup produced by body.
func (h *Writer) Wrap(tag string, body func(), attrs ...Attr) {
	h.Open(tag, attrs...)
	body()
	h.Close(tag)
}

// Render writes a nested component.
func (h *Writer) Render(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

// Err returns the first write error.
func (h *Writer) Err() error {
	return h.err
}
