package hxmount

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/pthm/hxmount/lib/encoding"
	"github.com/pthm/hxmount/storage"
)

// Status values of the persisted "status" field.
const (
	StateIdle  = "idle"
	StateError = "error"
)

// State is a component state bag. Values must be serializable by the
// registry codec.
type State map[string]any

// Status returns the "status" field, StateIdle when unset.
func (s State) Status() string {
	if v, ok := s["status"].(string); ok && v != "" {
		return v
	}
	return StateIdle
}

// StateStore is the per-instance state bag. When persistence is on, the
// backend holds the authoritative copy under the state key and the memory
// copy is a write-through cache that reads fall back to.
type StateStore struct {
	wmu     sync.Mutex // serializes Set read-modify-write cycles
	mu      sync.Mutex
	mem     State
	backend storage.Backend
	codec   encoding.Codec
	persist bool
	key     string
	logger  *slog.Logger
	metrics *Metrics
}

// NewStateStore creates a store on backend. A nil codec selects JSON.
func NewStateStore(backend storage.Backend, codec encoding.Codec) *StateStore {
	if codec == nil {
		codec = encoding.JSON{}
	}
	return &StateStore{
		mem:     State{"status": StateIdle},
		backend: backend,
		codec:   codec,
		logger:  slog.Default(),
	}
}

// Bind turns persistence on or off. Turning it on without a key is a
// configuration error.
func (s *StateStore) Bind(persist bool, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if persist && key == "" {
		return ErrMissingStateKey
	}
	if persist && s.backend == nil {
		return fmt.Errorf("%w: state persistence requires a storage backend", ErrInvalidConfig)
	}
	s.persist = persist
	s.key = key
	return nil
}

// Key returns the storage key, empty when persistence is off.
func (s *StateStore) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.persist {
		return ""
	}
	return s.key
}

// Get returns the current state. With persistence on it reads the backend
// and refreshes the memory copy; a missing, unreadable or malformed blob
// silently falls back to the memory copy. The returned bag is a copy.
func (s *StateStore) Get(ctx context.Context) State {
	s.mu.Lock()
	persist, key, mem := s.persist, s.key, maps.Clone(s.mem)
	s.mu.Unlock()

	if !persist {
		return mem
	}
	loaded, ok := s.load(ctx, key)
	if !ok {
		return mem
	}
	s.mu.Lock()
	s.mem = maps.Clone(loaded)
	s.mu.Unlock()
	return loaded
}

// load reads and decodes the blob under key.
func (s *StateStore) load(ctx context.Context, key string) (State, bool) {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.readFailed(key, "backend", err)
		}
		return nil, false
	}
	var loaded State
	if err := s.codec.Unmarshal(data, &loaded); err != nil || loaded == nil {
		reason := "decode"
		if err != nil && !isCorruptState(err) {
			reason = "codec"
		}
		s.readFailed(key, reason, err)
		return nil, false
	}
	return loaded, true
}

// Set merges partial into the current state. With persistence on the
// stored value is read first, so keys written by earlier instances are
// kept, and the full merged value is written back. The memory copy takes
// the merged value even when the write fails.
func (s *StateStore) Set(ctx context.Context, partial State) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.Lock()
	if s.persist && s.key == "" {
		s.mu.Unlock()
		return ErrMissingStateKey
	}
	persist, key := s.persist, s.key
	if !persist {
		maps.Copy(s.mem, partial)
		s.mu.Unlock()
		return nil
	}
	merged := maps.Clone(s.mem)
	s.mu.Unlock()

	if loaded, ok := s.load(ctx, key); ok {
		merged = loaded
	}
	maps.Copy(merged, partial)

	s.mu.Lock()
	s.mem = maps.Clone(merged)
	s.mu.Unlock()

	data, err := s.codec.Marshal(merged)
	if err != nil {
		s.metrics.stateError("write", "encode")
		return fmt.Errorf("hxmount: encode state %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		s.metrics.stateError("write", "backend")
		return fmt.Errorf("hxmount: write state %s: %w", key, err)
	}
	return nil
}

func (s *StateStore) readFailed(key, reason string, err error) {
	s.metrics.stateError("read", reason)
	s.logger.Debug("falling back to in-memory state", "key", key, "reason", reason, "error", err)
}
