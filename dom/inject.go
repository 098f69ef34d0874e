package dom

import (
	"context"
	"errors"
	"fmt"

	"github.com/pthm/hxmount"
)

// ErrNoDocument is returned when a style has no document to go to.
var ErrNoDocument = errors.New("dom: no target document")

// Injector inserts styles into a document head or a shadow scope. It
// implements hxmount.StyleInjector.
type Injector struct {
	doc *Document
}

// NewInjector creates an injector targeting doc unless the inject options
// name another root.
func NewInjector(doc *Document) *Injector {
	return &Injector{doc: doc}
}

// Inject appends a <style> holding css.
func (i *Injector) Inject(css string, opts hxmount.InjectOptions) error {
	style := &Style{ID: opts.ID, CSS: css}
	switch root := opts.Root.(type) {
	case nil:
		if i.doc == nil {
			return ErrNoDocument
		}
		i.doc.AppendStyle(style)
	case *Document:
		root.AppendStyle(style)
	case *ShadowRoot:
		root.AddStyle(style)
	default:
		return fmt.Errorf("dom: cannot inject styles into %s", root.NodeName())
	}
	return nil
}

// Adopter copies the styles of a document into a shadow scope. It
// implements hxmount.StyleAdopter.
type Adopter struct{}

// Adopt copies every <style> of from into scope.
func (Adopter) Adopt(ctx context.Context, scope hxmount.Node, from hxmount.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	root, ok := scope.(*ShadowRoot)
	if !ok {
		return fmt.Errorf("dom: cannot adopt styles into %s", scope.NodeName())
	}
	doc, ok := from.(*Document)
	if !ok {
		return ErrNoDocument
	}
	for _, s := range doc.Styles() {
		root.AddStyle(s)
	}
	return nil
}
