package dom

import (
	"errors"
	"fmt"

	"github.com/pthm/hxmount"
)

// Upgrade constructs a component for every element of d whose tag is
// defined in reg, the way a browser upgrades custom elements, and connects
// it. Elements are upgraded at most once. Construction errors are joined
// and returned with the components that were created.
func (d *Document) Upgrade(reg *hxmount.Registry) ([]*hxmount.Component, error) {
	var (
		out  []*hxmount.Component
		errs []error
	)
	d.Walk(func(el *Element) {
		factory, ok := reg.Factory(el.TagName())
		if !ok {
			return
		}

		el.mu.Lock()
		done := el.upgraded
		el.upgraded = true
		el.mu.Unlock()
		if done {
			return
		}

		c, err := factory(reg, el)
		if err != nil {
			errs = append(errs, fmt.Errorf("dom: upgrade <%s>: %w", el.TagName(), err))
			return
		}
		c.Connect()
		out = append(out, c)
	})
	return out, errors.Join(errs...)
}
