// Package visibility provides hxmount.VisibilityTracker implementations for
// environments without a real viewport.
package visibility

import (
	"context"
	"sync"

	"github.com/pthm/hxmount"
)

// Manual reports viewport transitions when told to. Tests and servers
// drive it with Enter and Exit.
type Manual struct {
	mu     sync.Mutex
	subs   map[*subscription]struct{}
	inside map[hxmount.Node]bool
}

type subscription struct {
	node    hxmount.Node
	handler hxmount.VisibilityHandler
	tracker *Manual
}

// Cancel removes the subscription. It is safe to call more than once.
func (s *subscription) Cancel() {
	s.tracker.mu.Lock()
	defer s.tracker.mu.Unlock()
	delete(s.tracker.subs, s)
}

// NewManual creates a tracker with every node outside the viewport.
func NewManual() *Manual {
	return &Manual{
		subs:   make(map[*subscription]struct{}),
		inside: make(map[hxmount.Node]bool),
	}
}

// Subscribe registers h for transitions of n. A node already inside the
// viewport is reported on subscription.
func (m *Manual) Subscribe(n hxmount.Node, h hxmount.VisibilityHandler) hxmount.Subscription {
	s := &subscription{node: n, handler: h, tracker: m}
	m.mu.Lock()
	m.subs[s] = struct{}{}
	inside := m.inside[n]
	m.mu.Unlock()

	if inside && h.OnEnter != nil {
		h.OnEnter()
	}
	return s
}

// Enter marks n inside the viewport and notifies its subscribers.
func (m *Manual) Enter(n hxmount.Node) {
	for _, h := range m.transition(n, true) {
		if h.OnEnter != nil {
			h.OnEnter()
		}
	}
}

// Exit marks n outside the viewport and notifies its subscribers.
func (m *Manual) Exit(n hxmount.Node) {
	for _, h := range m.transition(n, false) {
		if h.OnExit != nil {
			h.OnExit()
		}
	}
}

func (m *Manual) transition(n hxmount.Node, inside bool) []hxmount.VisibilityHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inside[n] = inside
	var hs []hxmount.VisibilityHandler
	for s := range m.subs {
		if s.node == n {
			hs = append(hs, s.handler)
		}
	}
	return hs
}

// Subscribers returns the number of live subscriptions for n.
func (m *Manual) Subscribers(n hxmount.Node) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for s := range m.subs {
		if s.node == n {
			count++
		}
	}
	return count
}

// Static reports every node inside the viewport as soon as it subscribes,
// and is also a hxmount.ConditionWaiter for which every condition holds.
// Server-side rendering uses it so every policy mounts right away.
type Static struct{}

type noop struct{}

func (noop) Cancel() {}

// Subscribe calls h.OnEnter and returns a no-op subscription.
func (Static) Subscribe(_ hxmount.Node, h hxmount.VisibilityHandler) hxmount.Subscription {
	if h.OnEnter != nil {
		h.OnEnter()
	}
	return noop{}
}

// WaitFor treats every named mount condition as already met.
func (Static) WaitFor(ctx context.Context, _ hxmount.Element, _ hxmount.Condition) error {
	return ctx.Err()
}
