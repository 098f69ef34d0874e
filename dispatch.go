package hxmount

import "maps"

// Reserved detail keys added by Dispatch.
const (
	DetailEventType      = "eventType"
	DetailEventComponent = "eventComponent"
)

// Event is a custom event dispatched on a host element.
type Event struct {
	Type       string
	Target     Element
	Bubbles    bool
	Cancelable bool
	Detail     map[string]any

	defaultPrevented bool
}

// PreventDefault marks a cancelable event as canceled.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether a listener canceled the event.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

type dispatchSettings struct {
	target     Element
	bubbles    bool
	cancelable bool
	detail     map[string]any
}

// DispatchOption configures a Dispatch call.
type DispatchOption func(*dispatchSettings)

// Target dispatches on el instead of the host element.
func Target(el Element) DispatchOption {
	return func(s *dispatchSettings) { s.target = el }
}

// Bubbles sets whether the events bubble. Defaults to true.
func Bubbles(v bool) DispatchOption {
	return func(s *dispatchSettings) { s.bubbles = v }
}

// Cancelable sets whether the events can be canceled. Defaults to true.
func Cancelable(v bool) DispatchOption {
	return func(s *dispatchSettings) { s.cancelable = v }
}

// Detail sets the detail payload.
func Detail(d map[string]any) DispatchOption {
	return func(s *dispatchSettings) { s.detail = d }
}

// Dispatch emits the correlated custom events of one logical action, in
// order, from the calling goroutine:
//
//  1. "{name}.{event}" when event prefixing is on,
//  2. "{name}" with detail "eventType" set to event,
//  3. "{event}" with detail "eventComponent" set to name when prefixing is off.
//
// name is the internal name of the component. The first event carries the
// caller's detail map as is; the others carry copies extended with their
// reserved key, so the caller's map is never mutated. Dispatch reports
// whether no listener canceled any of the events.
func (c *Component) Dispatch(event string, opts ...DispatchOption) bool {
	s := dispatchSettings{
		target:     c.el,
		bubbles:    true,
		cancelable: true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.detail == nil {
		s.detail = map[string]any{}
	}

	cfg := c.Config()
	name := cfg.InternalName
	newEvent := func(typ string, detail map[string]any) *Event {
		return &Event{
			Type:       typ,
			Target:     s.target,
			Bubbles:    s.bubbles,
			Cancelable: s.cancelable,
			Detail:     detail,
		}
	}
	withKey := func(key string, value any) map[string]any {
		d := maps.Clone(s.detail)
		d[key] = value
		return d
	}

	var events []*Event
	if cfg.PrefixEvents {
		events = append(events, newEvent(name+"."+event, s.detail))
	}
	events = append(events, newEvent(name, withKey(DetailEventType, event)))
	if !cfg.PrefixEvents {
		events = append(events, newEvent(event, withKey(DetailEventComponent, name)))
	}

	ok := true
	for _, ev := range events {
		c.Log("dispatching event", "event", ev.Type)
		if !s.target.DispatchEvent(ev) {
			ok = false
		}
	}
	c.reg.metrics.eventDispatched(c.tag, len(events))
	return ok
}
