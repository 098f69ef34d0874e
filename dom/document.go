package dom

import (
	"maps"
	"slices"
	"sync"

	"github.com/pthm/hxmount"
)

// Style is a <style> element of a document head or shadow scope.
type Style struct {
	ID  string
	CSS string
}

// NodeName returns "style".
func (*Style) NodeName() string { return "style" }

// Link is a <link rel="stylesheet"> element of a document head.
type Link struct {
	Href string
}

// NodeName returns "link".
func (*Link) NodeName() string { return "link" }

// Document is an in-memory document. It implements hxmount.Document.
type Document struct {
	mu        sync.Mutex
	title     string
	head      []hxmount.Node
	body      *Element
	observers map[int]func(hxmount.Node)
	nextObs   int
}

// NewDocument creates an empty document.
func NewDocument(title string) *Document {
	d := &Document{
		title:     title,
		observers: make(map[int]func(hxmount.Node)),
	}
	d.body = NewElement("body")
	d.body.doc = d
	return d
}

// NodeName returns "#document".
func (d *Document) NodeName() string { return "#document" }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Body returns the body element.
func (d *Document) Body() *Element { return d.body }

// AddStylesheet appends a stylesheet link to the head.
func (d *Document) AddStylesheet(href string) *Link {
	l := &Link{Href: href}
	d.mu.Lock()
	d.head = append(d.head, l)
	d.mu.Unlock()
	return l
}

// AppendStyle appends style to the head and notifies style observers.
func (d *Document) AppendStyle(style *Style) {
	d.mu.Lock()
	d.head = append(d.head, style)
	obs := make([]func(hxmount.Node), 0, len(d.observers))
	for _, id := range slices.Sorted(maps.Keys(d.observers)) {
		obs = append(obs, d.observers[id])
	}
	d.mu.Unlock()

	for _, fn := range obs {
		fn(style)
	}
}

// Head returns the head nodes in document order.
func (d *Document) Head() []hxmount.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.head)
}

// Styles returns the <style> elements of the head in document order.
func (d *Document) Styles() []*Style {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*Style
	for _, n := range d.head {
		if s, ok := n.(*Style); ok {
			out = append(out, s)
		}
	}
	return out
}

// FirstStylesheetLink returns the first stylesheet link of the head.
func (d *Document) FirstStylesheetLink() hxmount.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.head {
		if l, ok := n.(*Link); ok {
			return l
		}
	}
	return nil
}

// InsertBefore moves node in front of ref. A node that is not in the head
// is inserted; a missing ref appends.
func (d *Document) InsertBefore(node, ref hxmount.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i := slices.Index(d.head, node); i >= 0 {
		d.head = slices.Delete(d.head, i, i+1)
	}
	j := slices.Index(d.head, ref)
	if ref == nil || j < 0 {
		d.head = append(d.head, node)
		return
	}
	d.head = slices.Insert(d.head, j, node)
}

// ObserveStyles calls fn for every style appended after the call.
func (d *Document) ObserveStyles(fn func(style hxmount.Node)) (cancel func()) {
	d.mu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

// Walk calls fn for every element of the body, in document order.
func (d *Document) Walk(fn func(el *Element)) {
	var visit func(el *Element)
	visit = func(el *Element) {
		fn(el)
		for _, c := range el.Children() {
			visit(c)
		}
	}
	for _, c := range d.body.Children() {
		visit(c)
	}
}

// GetElementByID returns the first element with the given id.
func (d *Document) GetElementByID(id string) *Element {
	var found *Element
	d.Walk(func(el *Element) {
		if found == nil && el.ID() == id {
			found = el
		}
	})
	return found
}

// QueryAll returns the elements with the given tag name.
func (d *Document) QueryAll(tag string) []*Element {
	var out []*Element
	d.Walk(func(el *Element) {
		if el.TagName() == tag {
			out = append(out, el)
		}
	})
	return out
}
