// Package hxmounttest provides fakes and a harness for testing components
// without a browser.
//
//	h := hxmounttest.NewHarness()
//	el := h.Element("my-card")
//	c, err := hxmount.New(h.Registry, el)
//	...
//	h.Scheduler.Tick()
//	err = h.WaitMounted(ctx, c)
package hxmounttest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/pthm/hxmount"
	"github.com/pthm/hxmount/dom"
	"github.com/pthm/hxmount/storage"
	"github.com/pthm/hxmount/visibility"
)

// ManualScheduler is a hxmount.Scheduler whose ticks are driven by the
// test. Next blocks until the following Tick.
type ManualScheduler struct {
	mu      sync.Mutex
	waiters []chan struct{}
	ticks   int
	arrived chan struct{}
}

// NewManualScheduler creates a scheduler with no pending waiters.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{arrived: make(chan struct{}, 1)}
}

// Next blocks until Tick or ctx is done.
func (s *ManualScheduler) Next(ctx context.Context) error {
	ch := make(chan struct{})
	s.mu.Lock()
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case s.arrived <- struct{}{}:
	default:
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick releases every goroutine blocked in Next and returns how many were
// released.
func (s *ManualScheduler) Tick() int {
	s.mu.Lock()
	waiters := s.waiters
	s.waiters = nil
	s.ticks++
	s.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
	return len(waiters)
}

// Ticks returns the number of Tick calls.
func (s *ManualScheduler) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Pending returns the number of goroutines blocked in Next.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// AwaitPending blocks until n goroutines are blocked in Next.
func (s *ManualScheduler) AwaitPending(ctx context.Context, n int) error {
	for s.Pending() < n {
		select {
		case <-s.arrived:
		case <-time.After(time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ManualWaiter is a hxmount.ConditionWaiter whose conditions are released
// by the test.
type ManualWaiter struct {
	mu       sync.Mutex
	released map[hxmount.Condition]chan struct{}
	calls    map[hxmount.Condition]int
}

// NewManualWaiter creates a waiter with every condition pending.
func NewManualWaiter() *ManualWaiter {
	return &ManualWaiter{
		released: make(map[hxmount.Condition]chan struct{}),
		calls:    make(map[hxmount.Condition]int),
	}
}

func (w *ManualWaiter) chanFor(c hxmount.Condition) chan struct{} {
	ch, ok := w.released[c]
	if !ok {
		ch = make(chan struct{})
		w.released[c] = ch
	}
	return ch
}

// WaitFor blocks until cond is released or ctx is done.
func (w *ManualWaiter) WaitFor(ctx context.Context, _ hxmount.Element, cond hxmount.Condition) error {
	w.mu.Lock()
	ch := w.chanFor(cond)
	w.calls[cond]++
	w.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release satisfies cond for current and future waits.
func (w *ManualWaiter) Release(cond hxmount.Condition) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := w.chanFor(cond)
	select {
	case <-ch:
	default:
		close(ch)
	}
}

// Calls returns the number of waits started for cond.
func (w *ManualWaiter) Calls(cond hxmount.Condition) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[cond]
}

// Injection is one recorded style insertion.
type Injection struct {
	CSS  string
	Opts hxmount.InjectOptions
}

// RecordingInjector records style insertions and forwards them to Next
// when set.
type RecordingInjector struct {
	Next hxmount.StyleInjector
	Err  error

	mu    sync.Mutex
	calls []Injection
}

// Inject records the call.
func (r *RecordingInjector) Inject(css string, opts hxmount.InjectOptions) error {
	r.mu.Lock()
	r.calls = append(r.calls, Injection{CSS: css, Opts: opts})
	r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	if r.Next != nil {
		return r.Next.Inject(css, opts)
	}
	return nil
}

// Calls returns the recorded insertions.
func (r *RecordingInjector) Calls() []Injection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Injection(nil), r.calls...)
}

// Count returns the number of insertions recorded for id.
func (r *RecordingInjector) Count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Opts.ID == id {
			n++
		}
	}
	return n
}

// MountRecorder is a hxmount.Mounter that counts calls. When Block is set,
// OnMount waits for it to be closed before returning Err.
type MountRecorder struct {
	Err     error
	Block   chan struct{}
	Started chan struct{}

	mu    sync.Mutex
	calls int
}

// NewMountRecorder creates a recorder whose Started channel receives one
// value per call.
func NewMountRecorder() *MountRecorder {
	return &MountRecorder{Started: make(chan struct{}, 16)}
}

// OnMount records the call.
func (m *MountRecorder) OnMount(ctx context.Context, _ *hxmount.Component) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Started != nil {
		select {
		case m.Started <- struct{}{}:
		default:
		}
	}
	if m.Block != nil {
		<-m.Block
	}
	return m.Err
}

// Calls returns the number of OnMount calls.
func (m *MountRecorder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// CountingRenderer is a hxmount.Renderer that counts render passes.
type CountingRenderer struct {
	Err error

	mu      sync.Mutex
	updates int
}

// Update records a render pass.
func (r *CountingRenderer) Update(context.Context) error {
	r.mu.Lock()
	r.updates++
	r.mu.Unlock()
	return r.Err
}

// Updates returns the number of render passes.
func (r *CountingRenderer) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

// Harness wires a registry to an in-memory document and manual fakes.
type Harness struct {
	Registry  *hxmount.Registry
	Document  *dom.Document
	Scheduler *ManualScheduler
	Tracker   *visibility.Manual
	Waiter    *ManualWaiter
	Injector  *RecordingInjector
	Storage   *storage.Memory
}

// NewHarness creates a harness. Extra options are applied after the
// harness defaults. Logging is discarded.
func NewHarness(opts ...hxmount.RegistryOption) *Harness {
	h := &Harness{
		Document:  dom.NewDocument("test"),
		Scheduler: NewManualScheduler(),
		Tracker:   visibility.NewManual(),
		Waiter:    NewManualWaiter(),
		Storage:   storage.NewMemory(),
	}
	h.Injector = &RecordingInjector{Next: dom.NewInjector(h.Document)}

	base := []hxmount.RegistryOption{
		hxmount.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		hxmount.WithDocument(h.Document),
		hxmount.WithScheduler(h.Scheduler),
		hxmount.WithTracker(h.Tracker),
		hxmount.WithConditionWaiter(h.Waiter),
		hxmount.WithInjector(h.Injector),
		hxmount.WithAdopter(dom.Adopter{}),
		hxmount.WithStorage(h.Storage, nil),
	}
	h.Registry = hxmount.NewRegistry(append(base, opts...)...)
	return h
}

// Element creates an element attached to the document body. attrs are
// name/value pairs.
func (h *Harness) Element(tag string, attrs ...string) *dom.Element {
	return h.Document.Body().AppendChild(dom.NewElement(tag, attrs...))
}

// Tick waits until n components are blocked on the scheduler, then
// releases them.
func (h *Harness) Tick(ctx context.Context, n int) error {
	if err := h.Scheduler.AwaitPending(ctx, n); err != nil {
		return err
	}
	h.Scheduler.Tick()
	return nil
}

// WaitMounted waits for c to settle, at most one second.
func (h *Harness) WaitMounted(ctx context.Context, c *hxmount.Component) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return c.Wait(ctx)
}

// Result holds a rendered document.
type Result struct {
	HTML string
}

// HTMLContains checks if the rendered HTML contains s.
func (r *Result) HTMLContains(s string) bool {
	return strings.Contains(r.HTML, s)
}

// Render renders a templ component, typically a dom.Document, for
// assertions.
func Render(ctx context.Context, c templ.Component) (*Result, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return nil, err
	}
	return &Result{HTML: sb.String()}, nil
}
