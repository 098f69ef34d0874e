package hxmount

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// fakeElement is a minimal Element for white-box tests.
type fakeElement struct {
	mu      sync.Mutex
	tag     string
	attrs   map[string]string
	classes []string
	events  []*Event
	prevent bool
	doc     Document
}

func newFakeElement(tag string) *fakeElement {
	return &fakeElement{tag: tag, attrs: make(map[string]string)}
}

func (e *fakeElement) NodeName() string { return e.tag }
func (e *fakeElement) TagName() string  { return e.tag }
func (e *fakeElement) ID() string {
	id, _ := e.Attribute("id")
	return id
}

func (e *fakeElement) Attribute(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[strings.ToLower(name)]
	return v, ok
}

func (e *fakeElement) SetAttribute(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[strings.ToLower(name)] = value
}

func (e *fakeElement) HasAttribute(name string) bool {
	_, ok := e.Attribute(name)
	return ok
}

func (e *fakeElement) AddClass(classes ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.classes = append(e.classes, classes...)
}

func (e *fakeElement) DispatchEvent(ev *Event) bool {
	e.mu.Lock()
	e.events = append(e.events, ev)
	prevent := e.prevent
	e.mu.Unlock()
	if prevent {
		ev.PreventDefault()
	}
	return !ev.DefaultPrevented()
}

func (e *fakeElement) OwnerDocument() Document {
	return e.doc
}

func (e *fakeElement) dispatched() []*Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.events)
}

// fakeNode is a head node of fakeDocument.
type fakeNode struct{ name string }

func (n *fakeNode) NodeName() string { return n.name }

// fakeDocument keeps an ordered head and notifies style observers.
type fakeDocument struct {
	mu        sync.Mutex
	head      []Node
	observers []func(Node)
}

func (d *fakeDocument) NodeName() string { return "#document" }

func (d *fakeDocument) FirstStylesheetLink() Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.head {
		if n.NodeName() == "link" {
			return n
		}
	}
	return nil
}

func (d *fakeDocument) InsertBefore(node, ref Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := slices.Index(d.head, node); i >= 0 {
		d.head = slices.Delete(d.head, i, i+1)
	}
	j := slices.Index(d.head, ref)
	if j < 0 {
		d.head = append(d.head, node)
		return
	}
	d.head = slices.Insert(d.head, j, node)
}

func (d *fakeDocument) ObserveStyles(fn func(Node)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
	return func() {}
}

func (d *fakeDocument) append(n Node) {
	d.mu.Lock()
	d.head = append(d.head, n)
	obs := slices.Clone(d.observers)
	d.mu.Unlock()
	if n.NodeName() == "style" {
		for _, fn := range obs {
			fn(n)
		}
	}
}

func (d *fakeDocument) names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.head))
	for i, n := range d.head {
		out[i] = n.NodeName()
	}
	return out
}

// countingInjector records injections per id.
type countingInjector struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (i *countingInjector) Inject(css string, opts InjectOptions) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return i.err
	}
	if i.calls == nil {
		i.calls = make(map[string]int)
	}
	i.calls[opts.ID]++
	return nil
}

func (i *countingInjector) count(id string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls[id]
}

// never is a scheduler that only returns when canceled.
var never = SchedulerFunc(func(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestComponent builds a component without starting its lifecycle.
func newTestComponent(tag string, opts ...Option) (*Component, *fakeElement) {
	el := newFakeElement(tag)
	c := &Component{
		reg:      NewRegistry(WithLogger(discardLogger())),
		el:       el,
		tag:      tag,
		cfg:      defaultConfig(tag),
		propsSet: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, el
}
