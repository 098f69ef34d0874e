package hxmount

import (
	"context"
	"time"
)

// Node is any node of the host document tree. The tree itself is owned by
// the host platform; hxmount only needs identity and a name for logging.
type Node interface {
	NodeName() string
}

// Element is the host element a component is bound to.
//
// Attribute names are matched case-insensitively, the way HTML does.
type Element interface {
	Node
	TagName() string
	ID() string
	Attribute(name string) (string, bool)
	SetAttribute(name, value string)
	HasAttribute(name string) bool
	AddClass(classes ...string)
	DispatchEvent(ev *Event) bool
	OwnerDocument() Document
}

// Document is the document an element lives in. It exposes just enough of
// the head to keep injected styles ordered before external stylesheets.
type Document interface {
	Node

	// FirstStylesheetLink returns the first <link rel="stylesheet"> in the
	// head, or nil when there is none.
	FirstStylesheetLink() Node

	// InsertBefore moves node in front of ref inside the head.
	InsertBefore(node, ref Node)

	// ObserveStyles calls fn for every <style> inserted into the head after
	// the call. Moving an existing style with InsertBefore does not notify.
	ObserveStyles(fn func(style Node)) (cancel func())
}

// ShadowHost is implemented by elements that can render into an isolated
// style scope. ShadowRoot returns nil when no scope is attached.
type ShadowHost interface {
	ShadowRoot() Node
}

// VisibilityHandler receives viewport transitions for a node.
type VisibilityHandler struct {
	OnEnter func()
	OnExit  func()
}

// Subscription is a cancelable visibility subscription. Cancel must be safe
// to call more than once.
type Subscription interface {
	Cancel()
}

// VisibilityTracker reports enter/exit-of-viewport transitions for a node.
type VisibilityTracker interface {
	Subscribe(n Node, h VisibilityHandler) Subscription
}

// InjectOptions selects where a style payload goes. Root overrides the
// registry's document when set.
type InjectOptions struct {
	ID   string
	Root Node
}

// StyleInjector is the low-level primitive that inserts CSS into a document.
type StyleInjector interface {
	Inject(css string, opts InjectOptions) error
}

// StyleAdopter applies the styles of a document into an isolated scope.
type StyleAdopter interface {
	Adopt(ctx context.Context, scope Node, from Document) error
}

// Renderer is the rendering engine of one component. Update performs a
// single render pass and returns once that pass has completed, which makes
// the first call the first-render-complete point of the lifecycle.
type Renderer interface {
	Update(ctx context.Context) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context) error

// Update calls f(ctx).
func (f RendererFunc) Update(ctx context.Context) error {
	return f(ctx)
}

// ConditionWaiter evaluates named mount conditions that are not plain
// viewport entry (nearViewport, visible, interact, stylesheetReady...).
type ConditionWaiter interface {
	WaitFor(ctx context.Context, el Element, cond Condition) error
}

// Scheduler yields until the next tick of the host event loop.
type Scheduler interface {
	Next(ctx context.Context) error
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(ctx context.Context) error

// Next calls f(ctx).
func (f SchedulerFunc) Next(ctx context.Context) error {
	return f(ctx)
}

// NextTick is the default scheduler. It lets the goroutine that constructed
// the component finish its current work before the mount proceeds.
var NextTick Scheduler = SchedulerFunc(func(ctx context.Context) error {
	t := time.NewTimer(0)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
})

// Mounter is the mount extension point. OnMount runs once, after the mount
// condition is satisfied and defaults are merged, and before the first
// render. A returned error aborts the mount and is reported by Wait.
//
// The context is canceled when the component is disconnected; OnMount may
// honor it but is never interrupted otherwise.
type Mounter interface {
	OnMount(ctx context.Context, c *Component) error
}

// MounterFunc adapts a function to Mounter.
type MounterFunc func(ctx context.Context, c *Component) error

// OnMount calls f(ctx, c).
func (f MounterFunc) OnMount(ctx context.Context, c *Component) error {
	return f(ctx, c)
}

// PropsMerger is implemented by component specific props structs. It is
// usually generated by 'hxmount generate'.
//
// MergeProps assigns the keys of bag it knows about, skipping keys isSet
// reports as explicitly set, and returns the keys it rejected.
type PropsMerger interface {
	MergeProps(bag Props, isSet func(key string) bool) (rejected []string)
}

// Factory constructs the component for an element of a defined tag.
type Factory func(reg *Registry, el Element) (*Component, error)

// ElementRegistry is the host's custom element registry.
type ElementRegistry interface {
	Define(tag string, f Factory) error
	IsDefined(tag string) bool
}
