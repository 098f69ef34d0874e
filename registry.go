package hxmount

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pthm/hxmount/lib/encoding"
	"github.com/pthm/hxmount/storage"
)

// Registry is the hosting application's context. It owns the shared
// registries (default props, injected styles, style ordering, element
// definitions) and the external collaborators every component of the
// application uses. Tests construct isolated registries; applications
// usually create one per document.
type Registry struct {
	Defaults *DefaultProps
	Styles   *StyleRegistry
	Ordering *StyleOrdering

	elements  ElementRegistry
	logger    *slog.Logger
	metrics   *Metrics
	tracker   VisibilityTracker
	injector  StyleInjector
	adopter   StyleAdopter
	waiter    ConditionWaiter
	scheduler Scheduler
	storage   storage.Backend
	codec     encoding.Codec
	document  Document
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger components log through.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics records lifecycle metrics on m.
func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// WithTracker sets the visibility tracker.
func WithTracker(t VisibilityTracker) RegistryOption {
	return func(r *Registry) { r.tracker = t }
}

// WithInjector sets the style injection primitive.
func WithInjector(i StyleInjector) RegistryOption {
	return func(r *Registry) { r.injector = i }
}

// WithAdopter sets the shadow scope style adopter.
func WithAdopter(a StyleAdopter) RegistryOption {
	return func(r *Registry) { r.adopter = a }
}

// WithConditionWaiter sets the evaluator of named mount conditions.
func WithConditionWaiter(w ConditionWaiter) RegistryOption {
	return func(r *Registry) { r.waiter = w }
}

// WithScheduler sets the scheduler "direct" mounts wait on.
func WithScheduler(s Scheduler) RegistryOption {
	return func(r *Registry) { r.scheduler = s }
}

// WithStorage sets the backend persisted state is written to, and the
// codec used to encode it. A nil codec selects JSON.
func WithStorage(b storage.Backend, codec encoding.Codec) RegistryOption {
	return func(r *Registry) {
		r.storage = b
		r.codec = codec
	}
}

// WithDocument sets the application document. Components connected in
// another document get the static styles injected there too.
func WithDocument(d Document) RegistryOption {
	return func(r *Registry) { r.document = d }
}

// WithElements replaces the element registry.
func WithElements(e ElementRegistry) RegistryOption {
	return func(r *Registry) { r.elements = e }
}

// NewRegistry creates a registry. Without options it logs through
// slog.Default, keeps definitions and state in memory and mounts direct
// components on the next tick.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		Defaults:  NewDefaultProps(),
		Styles:    NewStyleRegistry(),
		Ordering:  NewStyleOrdering(),
		elements:  NewDefinitions(),
		logger:    slog.Default(),
		scheduler: NextTick,
		storage:   storage.NewMemory(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.codec == nil {
		r.codec = encoding.JSON{}
	}
	return r
}

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg == nil {
		defaultReg = NewRegistry()
	}
	return defaultReg
}

// SetDefault replaces the process-wide registry.
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultReg = r
}

// Logger returns the registry logger.
func (r *Registry) Logger() *slog.Logger {
	return r.logger
}

// Metrics returns the registry metrics, nil when disabled.
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}

// Document returns the application document.
func (r *Registry) Document() Document {
	return r.document
}

// Storage returns the state backend.
func (r *Registry) Storage() storage.Backend {
	return r.storage
}

// Codec returns the codec persisted state is encoded with.
func (r *Registry) Codec() encoding.Codec {
	return r.codec
}

// Elements returns the element registry.
func (r *Registry) Elements() ElementRegistry {
	return r.elements
}

// Define registers factory for tag and sets props as defaults for it.
//
// Defining a tag that is already defined only updates the defaults. An
// empty tag is a configuration error.
func (r *Registry) Define(tag string, props Props, factory Factory) error {
	if strings.TrimSpace(tag) == "" {
		return fmt.Errorf("%w: Define needs a tag name", ErrMissingTagName)
	}
	tag = strings.ToLower(tag)

	r.Defaults.Set(props, tag)
	if r.elements.IsDefined(tag) {
		return nil
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidConfig, tag)
	}
	return r.elements.Define(tag, factory)
}

// Define registers factory on the default registry.
func Define(tag string, props Props, factory Factory) error {
	return Default().Define(tag, props, factory)
}

// Factory returns the factory of a defined tag, when the element registry
// can look it up.
func (r *Registry) Factory(tag string) (Factory, bool) {
	l, ok := r.elements.(interface {
		Lookup(tag string) (Factory, bool)
	})
	if !ok {
		return nil, false
	}
	return l.Lookup(strings.ToLower(tag))
}

// Definitions is the in-memory element registry.
type Definitions struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewDefinitions creates an empty element registry.
func NewDefinitions() *Definitions {
	return &Definitions{factories: make(map[string]Factory)}
}

// Define registers f for tag. Tags are defined at most once.
func (d *Definitions) Define(tag string, f Factory) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tag = strings.ToLower(tag)
	if _, exists := d.factories[tag]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyDefined, tag)
	}
	d.factories[tag] = f
	return nil
}

// IsDefined reports whether tag has a factory.
func (d *Definitions) IsDefined(tag string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.factories[strings.ToLower(tag)]
	return ok
}

// Lookup returns the factory of tag.
func (d *Definitions) Lookup(tag string) (Factory, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.factories[strings.ToLower(tag)]
	return f, ok
}
