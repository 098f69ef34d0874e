// Package natskv persists component state in a NATS JetStream key/value
// bucket.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/pthm/hxmount/storage"
)

// Bucket is the subset of jetstream.KeyValue the store uses.
type Bucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// Store implements storage.Backend on top of a KV bucket.
type Store struct {
	bucket  Bucket
	timeout time.Duration
}

var _ storage.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds every bucket operation. Defaults to 5s; zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// New wraps bucket.
func New(bucket Bucket, opts ...Option) *Store {
	s := &Store{bucket: bucket, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to url, creates or updates the bucket and returns a store
// bound to it, along with a function that closes the connection.
func Open(ctx context.Context, url, bucket string, opts ...Option) (*Store, func(), error) {
	nc, err := nats.Connect(url, nats.Name("hxmount"))
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "hxmount component state",
		History:     1,
	})
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("kv bucket %s: %w", bucket, err)
	}
	return New(kv, opts...), nc.Close, nil
}

func (s *Store) applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

// Get returns the value stored under key, or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	k := Key(key)
	entry, err := s.bucket.Get(ctx, k)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", k, err)
	}
	return entry.Value(), nil
}

// Put stores value under key, last writer wins.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	k := Key(key)
	if _, err := s.bucket.Put(ctx, k, value); err != nil {
		return fmt.Errorf("kv put %s: %w", k, err)
	}
	return nil
}

// Key maps a state key onto the characters NATS KV accepts
// ([-/_=.a-zA-Z0-9], no leading or trailing dot). Every other byte, "="
// itself and a dot at either end are written as "=XX" in upper case hex,
// so distinct state keys never share a bucket key. The empty key maps
// to "=".
func Key(key string) string {
	if key == "" {
		return "="
	}
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(key))
	for i := 0; i < len(key); i++ {
		b := key[i]
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
			sb.WriteByte(b)
		case b == '-', b == '/', b == '_':
			sb.WriteByte(b)
		case b == '.' && i > 0 && i < len(key)-1:
			sb.WriteByte(b)
		default:
			sb.WriteByte('=')
			sb.WriteByte(hex[b>>4])
			sb.WriteByte(hex[b&0x0f])
		}
	}
	return sb.String()
}
