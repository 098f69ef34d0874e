package hxmount

import (
	"fmt"
	"strings"
)

// Config is the per-instance configuration surface. Fields set through an
// Option or an element attribute are explicit and never overwritten by
// registry defaults.
type Config struct {
	ID           string
	Name         string
	InternalName string
	Verbose      bool
	PrefixEvents bool
	ActiveWhen   ActivationGate
	MountWhen    MountPolicy
	AdoptStyle   bool
	ShadowDOM    bool
	SaveState    bool
	StateKey     string
	LookAndFeel  bool

	// Styles is the static CSS payload of the component kind.
	Styles string

	explicit map[string]bool
}

func defaultConfig(tag string) Config {
	return Config{
		InternalName: tag,
		PrefixEvents: true,
		MountWhen:    Immediate,
		AdoptStyle:   true,
		explicit:     make(map[string]bool),
	}
}

// IsSet reports whether key was set explicitly.
func (cfg *Config) IsSet(key string) bool {
	return cfg.explicit[key]
}

func (cfg *Config) mark(key string) {
	cfg.explicit[key] = true
}

// ResolvedStateKey returns the key persisted state is stored under: the
// explicit state key, else the identity.
func (cfg *Config) ResolvedStateKey() (string, bool) {
	if cfg.StateKey != "" {
		return cfg.StateKey, true
	}
	if cfg.ID != "" {
		return cfg.ID, true
	}
	return "", false
}

// mergeProps assigns the base keys of bag that were not explicitly set and
// returns the keys it does not know about. Keys with a value of the wrong
// type are reported through invalid.
func (cfg *Config) mergeProps(bag Props) (unknown []string, invalid []error) {
	for _, key := range bag.Keys() {
		if cfg.IsSet(key) {
			continue
		}
		if err := cfg.assign(key, bag[key]); err != nil {
			if err == errUnknownProp {
				unknown = append(unknown, key)
				continue
			}
			invalid = append(invalid, err)
		}
	}
	return unknown, invalid
}

var errUnknownProp = fmt.Errorf("%w: unknown property", ErrInvalidConfig)

func (cfg *Config) assign(key string, value any) error {
	bad := func() error {
		return fmt.Errorf("%w: property %q has unexpected value %v (%T)", ErrInvalidConfig, key, value, value)
	}
	switch key {
	case PropID:
		v, ok := PropString(value)
		if !ok {
			return bad()
		}
		cfg.ID = v
	case PropName:
		v, ok := PropString(value)
		if !ok {
			return bad()
		}
		cfg.Name = v
	case PropStateID:
		v, ok := PropString(value)
		if !ok {
			return bad()
		}
		cfg.StateKey = v
	case PropVerbose, PropPrefixEvent, PropAdoptStyle, PropSaveState, PropShadowDOM, PropLnf:
		v, ok := PropBool(value)
		if !ok {
			return bad()
		}
		switch key {
		case PropVerbose:
			cfg.Verbose = v
		case PropPrefixEvent:
			cfg.PrefixEvents = v
		case PropAdoptStyle:
			cfg.AdoptStyle = v
		case PropSaveState:
			cfg.SaveState = v
		case PropShadowDOM:
			cfg.ShadowDOM = v
		case PropLnf:
			cfg.LookAndFeel = v
		}
	case PropActiveWhen:
		names, ok := PropStrings(value)
		if !ok {
			return bad()
		}
		gate, err := gateFromConditions(names)
		if err != nil {
			return err
		}
		cfg.ActiveWhen = gate
	case PropMountWhen:
		names, ok := PropStrings(value)
		if !ok {
			return bad()
		}
		policy, err := parseConditions(names)
		if err != nil {
			return err
		}
		cfg.MountWhen = policy
	default:
		return errUnknownProp
	}
	return nil
}

// applyAttributes reads the base properties reflected as attributes on the
// host element. An attribute counts as an explicit setting.
func (cfg *Config) applyAttributes(el Element) error {
	if id := el.ID(); id != "" && !cfg.IsSet(PropID) {
		cfg.ID = id
		cfg.mark(PropID)
	}
	for _, key := range baseProps {
		if key == PropID || cfg.IsSet(key) {
			continue
		}
		raw, ok := el.Attribute(key)
		if !ok {
			continue
		}
		if err := cfg.assign(key, raw); err != nil {
			return err
		}
		cfg.mark(key)
	}
	return nil
}

// Option configures a component at construction.
type Option func(*Component)

// WithID sets the identity.
func WithID(id string) Option {
	return func(c *Component) {
		c.cfg.ID = id
		c.cfg.mark(PropID)
	}
}

// WithAutoIdentity assigns "<tag>-<uuid>" as identity when none is set by
// option or attribute.
func WithAutoIdentity() Option {
	return func(c *Component) {
		c.autoIdentity = true
	}
}

// WithName sets the display name used by class and event synthesis.
func WithName(name string) Option {
	return func(c *Component) {
		c.cfg.Name = name
		c.cfg.mark(PropName)
	}
}

// WithInternalName overrides the internal name, which defaults to the tag.
func WithInternalName(name string) Option {
	return func(c *Component) {
		if name != "" {
			c.cfg.InternalName = strings.ToLower(name)
		}
	}
}

// WithVerbose enables component logging.
func WithVerbose(v bool) Option {
	return func(c *Component) {
		c.cfg.Verbose = v
		c.cfg.mark(PropVerbose)
	}
}

// WithPrefixEvents controls whether dispatched events are namespaced.
func WithPrefixEvents(v bool) Option {
	return func(c *Component) {
		c.cfg.PrefixEvents = v
		c.cfg.mark(PropPrefixEvent)
	}
}

// WithActivationGate sets when IsActive requires viewport presence.
func WithActivationGate(g ActivationGate) Option {
	return func(c *Component) {
		c.cfg.ActiveWhen = g
		c.cfg.mark(PropActiveWhen)
	}
}

// WithMountPolicy sets the conditions the mount waits for.
func WithMountPolicy(p MountPolicy) Option {
	return func(c *Component) {
		c.cfg.MountWhen = p
		c.cfg.mark(PropMountWhen)
	}
}

// WithAdoptStyle controls style adoption into the shadow scope.
func WithAdoptStyle(v bool) Option {
	return func(c *Component) {
		c.cfg.AdoptStyle = v
		c.cfg.mark(PropAdoptStyle)
	}
}

// WithShadowDOM renders into an isolated style scope instead of light DOM.
func WithShadowDOM(v bool) Option {
	return func(c *Component) {
		c.cfg.ShadowDOM = v
		c.cfg.mark(PropShadowDOM)
	}
}

// WithPersistState mirrors the state store to the registry's backend.
// key overrides the identity as storage key when non-empty.
func WithPersistState(key string) Option {
	return func(c *Component) {
		c.cfg.SaveState = true
		c.cfg.mark(PropSaveState)
		if key != "" {
			c.cfg.StateKey = key
			c.cfg.mark(PropStateID)
		}
	}
}

// WithLookAndFeel adds the "-lnf" class at mount.
func WithLookAndFeel(v bool) Option {
	return func(c *Component) {
		c.cfg.LookAndFeel = v
		c.cfg.mark(PropLnf)
	}
}

// WithStyles sets the static CSS payload injected once per tag.
func WithStyles(css string) Option {
	return func(c *Component) {
		c.cfg.Styles = css
	}
}

// WithMounter installs the mount hook.
func WithMounter(m Mounter) Option {
	return func(c *Component) {
		c.mounter = m
	}
}

// WithRenderer installs the rendering engine.
func WithRenderer(r Renderer) Option {
	return func(c *Component) {
		c.renderer = r
	}
}

// WithProps installs the component specific props that receive the default
// keys the base configuration does not know. explicit lists keys that must
// not be overwritten by defaults.
func WithProps(p PropsMerger, explicit ...string) Option {
	return func(c *Component) {
		c.props = p
		for _, key := range explicit {
			c.propsSet[key] = true
		}
	}
}
