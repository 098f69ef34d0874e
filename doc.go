// Package hxmount provides deferred-mount UI components: a component is
// bound to a host element and only activates (renders, injects styles,
// runs its mount hook) once its mount policy is satisfied.
//
// The host platform (document tree, visibility detection, style insertion,
// rendering) is reached through small interfaces. The dom, visibility and
// hxmounttest packages provide implementations for server-side rendering
// and tests.
//
// # Lifecycle
//
// Every component moves through
//
//	constructed -> awaiting -> mounting -> mounted
//
// and may be disconnected from any of them. The mount policy decides when
// the awaiting state ends:
//
//	hxmount.Immediate          // next scheduler tick
//	hxmount.ViewportProximity  // first viewport entry
//
// Named conditions ("visible", "interact", "stylesheetReady"...) are
// delegated to a ConditionWaiter. Mounting happens exactly once per wait:
//
//	c, err := hxmount.New(reg, el,
//	    hxmount.WithMountPolicy(hxmount.ViewportProximity),
//	    hxmount.WithMounter(hxmount.MounterFunc(func(ctx context.Context, c *hxmount.Component) error {
//	        return loadRows(ctx)
//	    })),
//	)
//
// A failing mount hook leaves the component unrendered and is reported by
// Wait. Disconnect cancels the pending wait; a hook completing afterwards
// has no visible effect.
//
// # Registry
//
// A Registry is the application context. It holds the default properties,
// the style registry and the collaborators components use. Tests build an
// isolated registry per test; Default returns a process-wide one.
//
//	reg := hxmount.NewRegistry(
//	    hxmount.WithTracker(tracker),
//	    hxmount.WithInjector(injector),
//	    hxmount.WithLogger(logger),
//	)
//	reg.Defaults.Set(hxmount.Props{"verbose": true}, "my-card")
//
// # Class names and events
//
// Cls synthesizes class names from the tag, internal and display names:
//
//	c.Cls("title")  // "my-card-title"
//	c.Cls("__icon") // "my-card__icon"
//
// Dispatch fans one logical event out to a namespaced and an unnamespaced
// form so both kinds of listener observe it:
//
//	c.Dispatch("ready") // "my-card.ready", then "my-card" with eventType=ready
//
// # State
//
// Each component owns a state bag. WithPersistState mirrors it to the
// registry's storage backend under the state key, which defaults to the
// identity. Unreadable blobs fall back to the in-memory copy.
package hxmount
