// Package dom is an in-memory document tree implementing the host
// interfaces of hxmount. It is used for server-side rendering and tests:
// components mount against it and the resulting document renders to HTML
// through templ.
package dom

import (
	"slices"
	"strings"
	"sync"

	"github.com/pthm/hxmount"
)

// Listener receives events dispatched on an element or bubbling through it.
type Listener func(ev *hxmount.Event)

// Element is an element of a Document. It implements hxmount.Element and
// hxmount.ShadowHost.
type Element struct {
	mu        sync.Mutex
	tag       string
	attrs     map[string]string
	attrOrder []string
	classes   []string
	inner     string
	listeners map[string][]Listener
	shadow    *ShadowRoot
	upgraded  bool

	parent   *Element
	children []*Element
	doc      *Document
}

// NewElement creates a detached element. attrs are name/value pairs.
func NewElement(tag string, attrs ...string) *Element {
	el := &Element{
		tag:       strings.ToLower(tag),
		attrs:     make(map[string]string),
		listeners: make(map[string][]Listener),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.SetAttribute(attrs[i], attrs[i+1])
	}
	return el
}

// NodeName returns the tag name.
func (e *Element) NodeName() string { return e.tag }

// TagName returns the lowercased tag name.
func (e *Element) TagName() string { return e.tag }

// ID returns the id attribute.
func (e *Element) ID() string {
	id, _ := e.Attribute("id")
	return id
}

// Attribute returns the named attribute. Names are case-insensitive.
func (e *Element) Attribute(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[strings.ToLower(name)]
	return v, ok
}

// SetAttribute sets the named attribute. Setting "class" replaces the
// class list.
func (e *Element) SetAttribute(name, value string) {
	name = strings.ToLower(name)
	e.mu.Lock()
	defer e.mu.Unlock()

	if name == "class" {
		e.classes = strings.Fields(value)
		return
	}
	if _, ok := e.attrs[name]; !ok {
		e.attrOrder = append(e.attrOrder, name)
	}
	e.attrs[name] = value
}

// HasAttribute reports whether the named attribute is present.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.Attribute(name)
	return ok
}

// AddClass adds class tokens. Tokens already present are skipped.
func (e *Element) AddClass(classes ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range classes {
		for _, tok := range strings.Fields(c) {
			if !slices.Contains(e.classes, tok) {
				e.classes = append(e.classes, tok)
			}
		}
	}
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.classes)
}

// HasClass reports whether the class list holds class.
func (e *Element) HasClass(class string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Contains(e.classes, class)
}

// AddEventListener registers fn for events of type typ.
func (e *Element) AddEventListener(typ string, fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[typ] = append(e.listeners[typ], fn)
}

// DispatchEvent runs the listeners of e, then of each ancestor while the
// event bubbles. It reports whether the default action was not prevented.
func (e *Element) DispatchEvent(ev *hxmount.Event) bool {
	for cur := e; cur != nil; {
		cur.mu.Lock()
		ls := slices.Clone(cur.listeners[ev.Type])
		parent := cur.parent
		cur.mu.Unlock()

		for _, fn := range ls {
			fn(ev)
		}
		if !ev.Bubbles {
			break
		}
		cur = parent
	}
	return !ev.DefaultPrevented()
}

// OwnerDocument returns the document e is attached to, nil when detached.
func (e *Element) OwnerDocument() hxmount.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return nil
	}
	return e.doc
}

// AppendChild attaches child, and its subtree, below e.
func (e *Element) AppendChild(child *Element) *Element {
	e.mu.Lock()
	e.children = append(e.children, child)
	doc := e.doc
	e.mu.Unlock()

	child.mu.Lock()
	child.parent = e
	child.mu.Unlock()
	child.setDocument(doc)
	return child
}

// Children returns the direct children of e.
func (e *Element) Children() []*Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.children)
}

func (e *Element) setDocument(doc *Document) {
	e.mu.Lock()
	e.doc = doc
	children := slices.Clone(e.children)
	e.mu.Unlock()
	for _, c := range children {
		c.setDocument(doc)
	}
}

// AttachShadow attaches an isolated style scope. Calling it again returns
// the existing scope.
func (e *Element) AttachShadow() *ShadowRoot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shadow == nil {
		e.shadow = &ShadowRoot{host: e}
	}
	return e.shadow
}

// ShadowRoot returns the attached scope, nil when there is none.
func (e *Element) ShadowRoot() hxmount.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shadow == nil {
		return nil
	}
	return e.shadow
}

// SetInnerHTML replaces the rendered content of e.
func (e *Element) SetInnerHTML(html string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inner = html
}

// InnerHTML returns the rendered content of e.
func (e *Element) InnerHTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner
}

// ShadowRoot is an isolated style scope attached to an element.
type ShadowRoot struct {
	mu     sync.Mutex
	host   *Element
	styles []*Style
}

// NodeName returns "#shadow-root".
func (s *ShadowRoot) NodeName() string { return "#shadow-root" }

// Host returns the element the scope is attached to.
func (s *ShadowRoot) Host() *Element { return s.host }

// AddStyle adds style to the scope unless a style with the same id is
// already there.
func (s *ShadowRoot) AddStyle(style *Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if style.ID != "" && slices.ContainsFunc(s.styles, func(o *Style) bool { return o.ID == style.ID }) {
		return
	}
	s.styles = append(s.styles, style)
}

// Styles returns the styles of the scope.
func (s *ShadowRoot) Styles() []*Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.styles)
}
