package dom

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// View produces the content of a component for one render pass.
type View func(ctx context.Context) templ.Component

// Renderer renders a templ view into the inner HTML of an element. It
// implements hxmount.Renderer.
//
//	r := dom.NewRenderer(el, func(ctx context.Context) templ.Component {
//	    return cardBody(title.Get())
//	})
//	c, err := hxmount.New(reg, el, hxmount.WithRenderer(r))
type Renderer struct {
	el   *Element
	view View

	mu      sync.Mutex
	renders int
}

// NewRenderer creates a renderer for el.
func NewRenderer(el *Element, view View) *Renderer {
	return &Renderer{el: el, view: view}
}

// Update renders the view once. Rendered content goes into the shadow scope
// when the element has one.
func (r *Renderer) Update(ctx context.Context) error {
	var buf bytes.Buffer
	if err := r.view(ctx).Render(ctx, &buf); err != nil {
		return err
	}
	r.el.SetInnerHTML(buf.String())

	r.mu.Lock()
	r.renders++
	r.mu.Unlock()
	return nil
}

// Renders returns the number of completed render passes.
func (r *Renderer) Renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}

// Render writes the document as HTML. Document implements templ.Component,
// so it can be embedded in other templates or served directly.
func (d *Document) Render(ctx context.Context, w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><head>")
	if d.title != "" {
		sb.WriteString("<title>")
		sb.WriteString(templ.EscapeString(d.title))
		sb.WriteString("</title>")
	}
	for _, n := range d.Head() {
		switch n := n.(type) {
		case *Style:
			writeStyle(&sb, n)
		case *Link:
			sb.WriteString(`<link rel="stylesheet" href="`)
			sb.WriteString(templ.EscapeString(n.Href))
			sb.WriteString(`">`)
		}
	}
	sb.WriteString("</head>")
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	if err := d.body.Render(ctx, w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</html>")
	return err
}

// Render writes the element and its subtree as HTML. A shadow scope is
// written as a declarative shadow root holding its styles and the rendered
// content.
func (e *Element) Render(ctx context.Context, w io.Writer) error {
	e.mu.Lock()
	tag := e.tag
	classes := strings.Join(e.classes, " ")
	attrs := make([][2]string, 0, len(e.attrOrder))
	for _, name := range e.attrOrder {
		attrs = append(attrs, [2]string{name, e.attrs[name]})
	}
	inner := e.inner
	shadow := e.shadow
	children := e.children
	e.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(tag)
	for _, a := range attrs {
		writeAttr(&sb, a[0], a[1])
	}
	if classes != "" {
		writeAttr(&sb, "class", classes)
	}
	sb.WriteString(">")
	if shadow != nil {
		sb.WriteString(`<template shadowrootmode="open">`)
		for _, s := range shadow.Styles() {
			writeStyle(&sb, s)
		}
		sb.WriteString(inner)
		sb.WriteString("</template>")
	} else {
		sb.WriteString(inner)
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	for _, c := range children {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Render(ctx, w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+tag+">")
	return err
}

func writeAttr(sb *strings.Builder, name, value string) {
	sb.WriteString(" ")
	sb.WriteString(name)
	if value == "" {
		return
	}
	sb.WriteString(`="`)
	sb.WriteString(templ.EscapeString(value))
	sb.WriteString(`"`)
}

func writeStyle(sb *strings.Builder, s *Style) {
	sb.WriteString("<style")
	if s.ID != "" {
		writeAttr(sb, "data-style-id", s.ID)
	}
	sb.WriteString(">")
	sb.WriteString(s.CSS)
	sb.WriteString("</style>")
}

var (
	_ templ.Component = (*Document)(nil)
	_ templ.Component = (*Element)(nil)
)
