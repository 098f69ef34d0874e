package hxmount

import (
	"maps"
	"slices"
	"sync"
)

// Wildcard is the selector whose bag applies to every component.
const Wildcard = "*"

// DefaultProps maps selectors ("*", "my-tag", "my-tag#some-id") to property
// bags. Bags are merged shallowly, last write wins per key, and lookups
// always read the current state.
type DefaultProps struct {
	mu   sync.RWMutex
	bags map[string]Props
}

// NewDefaultProps creates an empty registry.
func NewDefaultProps() *DefaultProps {
	return &DefaultProps{bags: make(map[string]Props)}
}

// Set merges props into the bag of every selector.
func (d *DefaultProps) Set(props Props, selectors ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, sel := range selectors {
		bag, ok := d.bags[sel]
		if !ok {
			bag = make(Props, len(props))
			d.bags[sel] = bag
		}
		bag.Merge(props)
	}
}

// Get returns the wildcard bag overridden by the bag of selector. The
// result is a copy the caller may modify.
func (d *DefaultProps) Get(selector string) Props {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := d.bags[Wildcard].Clone()
	if selector != Wildcard {
		out.Merge(d.bags[selector])
	}
	return out
}

// Lookup returns the defaults for an element: the wildcard bag, then the
// tag bag, then the "tag#id" bag when id is set.
func (d *DefaultProps) Lookup(tag, id string) Props {
	out := d.Get(tag)
	if id == "" {
		return out
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	out.Merge(d.bags[tag+"#"+id])
	return out
}

// Selectors returns the registered selectors in sorted order.
func (d *DefaultProps) Selectors() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Sorted(maps.Keys(d.bags))
}
