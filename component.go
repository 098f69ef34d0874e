package hxmount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a component.
type Status int

const (
	StatusConstructed Status = iota
	StatusAwaiting
	StatusMounting
	StatusMounted
	StatusDisconnected
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusConstructed:
		return "constructed"
	case StatusAwaiting:
		return "awaiting"
	case StatusMounting:
		return "mounting"
	case StatusMounted:
		return "mounted"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Component is one deferred-mount component instance bound to a host
// element.
//
// Construction moves the instance to StatusAwaiting. Once the mount policy
// is met it mounts exactly once: defaults are merged, classes applied, the
// mount hook awaited, rendering enabled, one render pass requested and the
// static styles injected. Disconnect stops a pending mount; Connect after a
// disconnect starts a new wait.
//
// Example:
//
//	c, err := hxmount.New(reg, el,
//	    hxmount.WithMountPolicy(hxmount.ViewportProximity),
//	    hxmount.WithMounter(hxmount.MounterFunc(loadData)),
//	    hxmount.WithRenderer(renderer),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := c.Wait(ctx); err != nil {
//	    return err
//	}
type Component struct {
	reg          *Registry
	el           Element
	tag          string
	props        PropsMerger
	propsSet     map[string]bool
	mounter      Mounter
	renderer     Renderer
	store        *StateStore
	autoIdentity bool

	mu            sync.Mutex
	cfg           Config
	status        Status
	inViewport    bool
	renderEnabled bool
	gen           *generation
}

// generation is one wait-then-mount attempt. A reconnect starts a new one;
// callbacks of a stale generation are ignored.
type generation struct {
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time

	subMu    sync.Mutex
	sub      Subscription
	canceled bool

	entered   chan struct{}
	enterOnce sync.Once

	done     chan struct{}
	doneOnce sync.Once
	err      error
}

func newGeneration() *generation {
	ctx, cancel := context.WithCancel(context.Background())
	return &generation{
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
		entered: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (g *generation) setSub(s Subscription) {
	g.subMu.Lock()
	if g.canceled {
		g.subMu.Unlock()
		s.Cancel()
		return
	}
	g.sub = s
	g.subMu.Unlock()
}

func (g *generation) cancelSub() {
	g.subMu.Lock()
	g.canceled = true
	s := g.sub
	g.sub = nil
	g.subMu.Unlock()
	if s != nil {
		s.Cancel()
	}
}

func (g *generation) enter() {
	g.enterOnce.Do(func() { close(g.entered) })
}

func (g *generation) finish(err error) {
	g.doneOnce.Do(func() {
		g.err = err
		close(g.done)
	})
}

// New binds a component to el and starts waiting for its mount policy. A
// nil registry selects Default().
//
// Configuration errors are returned synchronously: an element without a
// tag name, a viewport policy or gate without a visibility tracker, a named
// condition without a condition waiter, and persistence without a state key.
func New(reg *Registry, el Element, opts ...Option) (*Component, error) {
	if reg == nil {
		reg = Default()
	}
	if el == nil {
		return nil, fmt.Errorf("%w: nil element", ErrInvalidConfig)
	}
	tag := strings.ToLower(strings.TrimSpace(el.TagName()))
	if tag == "" {
		return nil, ErrMissingTagName
	}

	c := &Component{
		reg:      reg,
		el:       el,
		tag:      tag,
		cfg:      defaultConfig(tag),
		propsSet: make(map[string]bool),
		status:   StatusConstructed,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.cfg.applyAttributes(el); err != nil {
		return nil, err
	}
	if c.autoIdentity && c.cfg.ID == "" {
		c.cfg.ID = tag + "-" + uuid.NewString()
		c.cfg.mark(PropID)
		el.SetAttribute(PropID, c.cfg.ID)
	}

	// The policy and gate are needed before mounting, so they are read from
	// the defaults now. Everything else is merged at mount time.
	bag := reg.Defaults.Lookup(tag, c.cfg.ID)
	for _, key := range []string{PropMountWhen, PropActiveWhen} {
		if v, ok := bag[key]; ok && !c.cfg.IsSet(key) {
			if err := c.cfg.assign(key, v); err != nil {
				return nil, err
			}
		}
	}

	if err := c.checkPolicy(c.cfg.MountWhen); err != nil {
		return nil, err
	}
	if c.cfg.ActiveWhen == GateRequireViewport && reg.tracker == nil {
		return nil, fmt.Errorf("%w: %s: activation gate %s needs a visibility tracker", ErrInvalidConfig, tag, c.cfg.ActiveWhen)
	}

	c.store = NewStateStore(reg.storage, reg.codec)
	c.store.logger = reg.logger
	c.store.metrics = reg.metrics
	if c.cfg.SaveState {
		key, ok := c.cfg.ResolvedStateKey()
		if !ok {
			return nil, fmt.Errorf("%w: <%s>", ErrMissingStateKey, tag)
		}
		if err := c.store.Bind(true, key); err != nil {
			return nil, err
		}
	}

	if doc := el.OwnerDocument(); doc != nil {
		reg.Ordering.Ensure(doc)
	}
	c.Log("constructed", "mountWhen", c.cfg.MountWhen.String())
	c.await()
	return c, nil
}

// checkPolicy verifies that the registry can evaluate every condition of p.
func (c *Component) checkPolicy(p MountPolicy) error {
	if p.IsImmediate() {
		return nil
	}
	for _, cond := range p {
		switch cond {
		case CondInViewport:
			if c.reg.tracker == nil {
				return fmt.Errorf("%w: %s: condition %s needs a visibility tracker", ErrInvalidConfig, c.tag, cond)
			}
		default:
			if c.reg.waiter == nil {
				return fmt.Errorf("%w: %s: condition %s needs a condition waiter", ErrInvalidConfig, c.tag, cond)
			}
		}
	}
	return nil
}

// await starts a new generation: it subscribes to the visibility tracker
// and waits for the mount policy in the background.
func (c *Component) await() {
	g := newGeneration()

	c.mu.Lock()
	c.status = StatusAwaiting
	c.renderEnabled = false
	c.gen = g
	policy := c.cfg.MountWhen
	c.mu.Unlock()

	if c.reg.tracker != nil {
		sub := c.reg.tracker.Subscribe(c.el, VisibilityHandler{
			OnEnter: func() { c.setInViewport(g, true) },
			OnExit:  func() { c.setInViewport(g, false) },
		})
		if sub != nil {
			g.setSub(sub)
		}
	}

	go func() {
		if err := c.awaitConditions(g.ctx, g, policy); err != nil {
			if g.ctx.Err() == nil {
				c.reg.logger.Warn("mount condition failed", "tag", c.tag, "error", err)
				g.finish(err)
			}
			return
		}
		c.reg.metrics.observeWait(c.tag, policy, time.Since(g.started))
		c.satisfy(g)
	}()
}

func (c *Component) setInViewport(g *generation, v bool) {
	c.mu.Lock()
	if c.gen != g || c.status == StatusDisconnected {
		c.mu.Unlock()
		return
	}
	c.inViewport = v
	c.mu.Unlock()

	if v {
		g.enter()
	}
}

// awaitConditions blocks until every condition of p has been met. A policy
// listing "direct" only waits for the next scheduler tick.
func (c *Component) awaitConditions(ctx context.Context, g *generation, p MountPolicy) error {
	if p.IsImmediate() {
		return c.reg.scheduler.Next(ctx)
	}
	for _, cond := range p {
		if cond == CondInViewport {
			select {
			case <-g.entered:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := c.reg.waiter.WaitFor(ctx, c.el, cond); err != nil {
			return err
		}
	}
	return nil
}

// satisfy moves the generation from awaiting to mounting and mounts. Only
// the first call per generation has an effect.
func (c *Component) satisfy(g *generation) {
	c.mu.Lock()
	if c.gen != g || c.status != StatusAwaiting {
		c.mu.Unlock()
		return
	}
	c.status = StatusMounting
	c.mu.Unlock()

	c.mount(g)
}

// alive reports whether g is still the mounting generation.
func (c *Component) alive(g *generation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == g && c.status == StatusMounting
}

func (c *Component) mount(g *generation) {
	if err := c.mergeDefaults(); err != nil {
		c.failMount(g, err)
		return
	}
	cfg := c.Config()

	classes := strings.Fields(c.Cls(""))
	if cfg.LookAndFeel {
		classes = append(classes, "-lnf")
	}
	c.el.AddClass(classes...)

	if c.mounter != nil {
		if err := c.mounter.OnMount(g.ctx, c); err != nil {
			c.failMount(g, fmt.Errorf("%w: %s: %w", ErrMountHook, c.tag, err))
			return
		}
	}

	c.mu.Lock()
	if c.gen != g || c.status != StatusMounting {
		c.mu.Unlock()
		c.Log("mount hook completed after disconnect")
		return
	}
	c.renderEnabled = true
	c.mu.Unlock()

	if err := c.RequestUpdate(g.ctx); err != nil {
		c.failMount(g, fmt.Errorf("hxmount: first render of %s: %w", c.tag, err))
		return
	}

	if !c.alive(g) {
		c.Log("first render completed after disconnect")
		return
	}
	injected, err := c.reg.Styles.Inject(c.reg.injector, cfg.Styles, c.tag)
	if err != nil {
		c.reg.logger.Warn("style injection failed", "tag", c.tag, "error", err)
	} else if injected {
		c.reg.metrics.styleInjected(c.tag)
	}
	if cfg.ShadowDOM && cfg.AdoptStyle {
		c.adoptStyles(g.ctx)
	}

	c.mu.Lock()
	if c.gen != g || c.status != StatusMounting {
		c.mu.Unlock()
		return
	}
	c.status = StatusMounted
	c.el.SetAttribute("mounted", "true")
	g.finish(nil)
	c.mu.Unlock()

	c.reg.metrics.mounted(c.tag)
	c.Log("mounted", "wait", time.Since(g.started))
}

// failMount leaves the component in StatusMounting and reports err through
// Wait.
func (c *Component) failMount(g *generation, err error) {
	if !c.alive(g) {
		c.reg.logger.Debug("mount failed after disconnect", "tag", c.tag, "error", err)
		return
	}
	c.reg.metrics.mountFailed(c.tag)
	c.reg.logger.Warn("mount failed", "tag", c.tag, "id", c.ID(), "error", err)
	g.finish(err)
}

func (c *Component) adoptStyles(ctx context.Context) {
	if c.reg.adopter == nil {
		return
	}
	host, ok := c.el.(ShadowHost)
	if !ok {
		return
	}
	root := host.ShadowRoot()
	if root == nil {
		return
	}
	if err := c.reg.adopter.Adopt(ctx, root, c.el.OwnerDocument()); err != nil {
		c.reg.logger.Warn("style adoption failed", "tag", c.tag, "error", err)
	}
}

// mergeDefaults overlays the registry defaults on every property that was
// not explicitly set. Keys neither the base configuration nor the
// component props know are logged and dropped.
func (c *Component) mergeDefaults() error {
	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()

	bag := c.reg.Defaults.Lookup(c.tag, cfg.ID)
	unknown, invalid := cfg.mergeProps(bag)
	for _, err := range invalid {
		c.reg.logger.Warn("ignoring default property", "tag", c.tag, "error", err)
	}
	if c.props != nil && len(unknown) > 0 {
		rest := make(Props, len(unknown))
		for _, key := range unknown {
			rest[key] = bag[key]
		}
		unknown = c.props.MergeProps(rest, func(key string) bool {
			return c.propsSet[key] || c.el.HasAttribute(key)
		})
	}
	for _, key := range unknown {
		c.reg.logger.Warn("rejected unknown default property", "tag", c.tag, "key", key)
	}

	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()

	if !cfg.SaveState {
		return c.store.Bind(false, "")
	}
	key, ok := cfg.ResolvedStateKey()
	if !ok {
		return fmt.Errorf("%w: <%s>", ErrMissingStateKey, c.tag)
	}
	return c.store.Bind(true, key)
}

// Connect is the platform connect callback. It installs the style ordering
// keeper of the element's document, injects the static styles into
// documents other than the registry's, and starts a new mount wait when the
// component was disconnected.
func (c *Component) Connect() {
	if doc := c.el.OwnerDocument(); doc != nil {
		c.reg.Ordering.Ensure(doc)

		css := c.Config().Styles
		if c.reg.document != nil && doc != c.reg.document && css != "" && c.reg.injector != nil {
			if err := c.reg.injector.Inject(css, InjectOptions{ID: c.tag, Root: doc}); err != nil {
				c.reg.logger.Warn("style injection failed", "tag", c.tag, "document", doc.NodeName(), "error", err)
			}
		}
	}

	c.mu.Lock()
	reconnect := c.status == StatusDisconnected
	c.mu.Unlock()
	if reconnect {
		c.Log("reconnected")
		c.await()
	}
}

// Disconnect is the platform disconnect callback. It cancels the visibility
// subscription and any pending wait. A mount hook still running sees its
// context canceled and its completion has no effect. Calling Disconnect
// again is a no-op.
func (c *Component) Disconnect() {
	c.mu.Lock()
	if c.status == StatusDisconnected {
		c.mu.Unlock()
		return
	}
	from := c.status
	c.status = StatusDisconnected
	c.inViewport = false
	c.renderEnabled = false
	g := c.gen
	c.mu.Unlock()

	if g != nil {
		g.cancelSub()
		g.cancel()
		g.finish(ErrDisconnected)
	}
	c.reg.metrics.disconnected(c.tag, from)
	c.Log("disconnected", "from", from.String())
}

// Wait blocks until the current mount attempt settles. It returns nil once
// mounted, the mount hook error when the hook failed, and ErrDisconnected
// when the component was disconnected first.
func (c *Component) Wait(ctx context.Context) error {
	c.mu.Lock()
	g := c.gen
	c.mu.Unlock()

	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitAndExecute waits for conds, then calls fn and returns its error.
// Disconnecting the component while waiting returns ErrDisconnected.
func (c *Component) WaitAndExecute(ctx context.Context, conds MountPolicy, fn func(ctx context.Context) error) error {
	if err := c.checkPolicy(conds); err != nil {
		return err
	}

	c.mu.Lock()
	g, status := c.gen, c.status
	c.mu.Unlock()
	if status == StatusDisconnected {
		return ErrDisconnected
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(g.ctx, func() { cancel(ErrDisconnected) })
	defer stop()

	if err := c.awaitConditions(ctx, g, conds); err != nil {
		if errors.Is(context.Cause(ctx), ErrDisconnected) {
			return ErrDisconnected
		}
		return err
	}
	return fn(ctx)
}

// RequestUpdate asks the renderer for one render pass. It is a no-op until
// the component has enabled rendering.
func (c *Component) RequestUpdate(ctx context.Context) error {
	c.mu.Lock()
	enabled := c.renderEnabled
	c.mu.Unlock()

	if !enabled || c.renderer == nil {
		return nil
	}
	return c.renderer.Update(ctx)
}

// State returns a copy of the component state.
func (c *Component) State(ctx context.Context) State {
	return c.store.Get(ctx)
}

// SetState merges partial into the state and requests a render.
func (c *Component) SetState(ctx context.Context, partial State) error {
	if err := c.store.Set(ctx, partial); err != nil {
		return err
	}
	return c.RequestUpdate(ctx)
}

// IsActive is false only when the activation gate requires viewport
// presence and the element is outside the viewport.
func (c *Component) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.ActiveWhen != GateRequireViewport || c.inViewport
}

// IsInViewport reports the last viewport transition of the element.
func (c *Component) IsInViewport() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inViewport
}

// IsMounted reports whether the component reached StatusMounted.
func (c *Component) IsMounted() bool {
	return c.Status() == StatusMounted
}

// IsRenderEnabled reports whether the renderer may paint.
func (c *Component) IsRenderEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderEnabled
}

// Status returns the lifecycle status.
func (c *Component) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Config returns a snapshot of the resolved configuration.
func (c *Component) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Tag returns the lowercased tag name of the host element.
func (c *Component) Tag() string { return c.tag }

// ID returns the identity, empty when none is set.
func (c *Component) ID() string { return c.Config().ID }

// Element returns the host element.
func (c *Component) Element() Element { return c.el }

// Registry returns the registry the component was created with.
func (c *Component) Registry() *Registry { return c.reg }

// Log logs msg with the component tag and identity when the component is
// verbose.
func (c *Component) Log(msg string, args ...any) {
	cfg := c.Config()
	if !cfg.Verbose {
		return
	}
	attrs := make([]any, 0, len(args)+4)
	attrs = append(attrs, "tag", c.tag)
	if cfg.ID != "" {
		attrs = append(attrs, "id", cfg.ID)
	}
	c.reg.logger.Info(msg, append(attrs, args...)...)
}
