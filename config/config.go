// Package config loads hxmount.yaml documents: default properties, state
// persistence settings and the components of a document to render.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pthm/hxmount"
	"gopkg.in/yaml.v3"
)

// Config is a parsed hxmount.yaml.
type Config struct {
	Document   DocumentConfig            `yaml:"document"`
	Defaults   map[string]map[string]any `yaml:"defaults,omitempty"`
	State      StateConfig               `yaml:"state"`
	Components []ComponentConfig         `yaml:"components,omitempty"`
}

// DocumentConfig describes the rendered document.
type DocumentConfig struct {
	Title       string   `yaml:"title,omitempty"`
	Stylesheets []string `yaml:"stylesheets,omitempty"`
}

// StateConfig selects where persisted component state goes.
type StateConfig struct {
	// Codec is "json" (default) or "msgpack".
	Codec   string `yaml:"codec,omitempty"`
	SignKey string `yaml:"signKey,omitempty"`
	// SealKey encrypts stored blobs with AES-GCM when set.
	SealKey string `yaml:"sealKey,omitempty"`

	// NATS enables the JetStream key/value backend when URL is set.
	NATS NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig locates a JetStream key/value bucket.
type NATSConfig struct {
	URL     string        `yaml:"url,omitempty"`
	Bucket  string        `yaml:"bucket,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ComponentConfig declares one component instance of the document.
type ComponentConfig struct {
	Tag    string            `yaml:"tag"`
	Attrs  map[string]string `yaml:"attrs,omitempty"`
	Styles string            `yaml:"styles,omitempty"`
	Shadow bool              `yaml:"shadow,omitempty"`
	Body   string            `yaml:"body,omitempty"`
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the declared components, mount policies and codec.
func (c *Config) Validate() error {
	for i, comp := range c.Components {
		if strings.TrimSpace(comp.Tag) == "" {
			return fmt.Errorf("components[%d]: %w", i, hxmount.ErrMissingTagName)
		}
		if v, ok := comp.Attrs[hxmount.PropMountWhen]; ok {
			if _, err := hxmount.ParseMountPolicy(v); err != nil {
				return fmt.Errorf("components[%d] <%s>: %w", i, comp.Tag, err)
			}
		}
	}
	for selector, props := range c.Defaults {
		if strings.TrimSpace(selector) == "" {
			return fmt.Errorf("defaults: %w: empty selector", hxmount.ErrInvalidConfig)
		}
		if v, ok := props[hxmount.PropMountWhen].(string); ok {
			if _, err := hxmount.ParseMountPolicy(v); err != nil {
				return fmt.Errorf("defaults[%s]: %w", selector, err)
			}
		}
	}
	if _, err := c.Codec(); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	return nil
}

// ApplyDefaults registers the declared default properties on d.
func (c *Config) ApplyDefaults(d *hxmount.DefaultProps) {
	for selector, props := range c.Defaults {
		d.Set(hxmount.Props(props), selector)
	}
}

// Codec returns the state codec the configuration selects.
func (c *Config) Codec() (hxmount.Codec, error) {
	var signKey, sealKey []byte
	if c.State.SignKey != "" {
		signKey = []byte(c.State.SignKey)
	}
	if c.State.SealKey != "" {
		sealKey = []byte(c.State.SealKey)
	}
	return hxmount.NewCodec(c.State.Codec, signKey, sealKey)
}

// Marshal encodes the configuration back to YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
