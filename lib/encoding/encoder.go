// Package encoding provides the codecs used to persist component state.
//
// JSON is the default wire format. Msgpack is a compact alternative.
// Signed and Sealed wrap any codec to make stored blobs tamper-evident or
// fully opaque.
package encoding

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Sentinel errors for encoding operations.
var (
	ErrInvalidFormat    = errors.New("invalid format")
	ErrSignatureInvalid = errors.New("signature verification failed")
	ErrDecryptFailed    = errors.New("decryption failed")
)

// Codec marshals state values to bytes and back.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON is the default codec.
type JSON struct{}

// Name returns "json".
func (JSON) Name() string { return "json" }

// Marshal encodes v as JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return nil
}

// Msgpack encodes state with msgpack. Nested maps decode to map[string]any.
type Msgpack struct{}

// Name returns "msgpack".
func (Msgpack) Name() string { return "msgpack" }

// Marshal encodes v as msgpack.
func (Msgpack) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

// Unmarshal decodes msgpack data into v.
func (Msgpack) Unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return nil
}

// deriveKey stretches short keys to the 32 bytes AES-256 needs.
func deriveKey(key []byte) []byte {
	if len(key) < 32 {
		h := sha256.Sum256(key)
		return h[:]
	}
	return key
}

type signed struct {
	inner Codec
	key   []byte
}

// Signed wraps inner so that blobs are stored as "base64.signature": the
// payload stays readable but any modification fails verification.
func Signed(inner Codec, key []byte) Codec {
	return &signed{inner: inner, key: deriveKey(key)}
}

func (s *signed) Name() string { return "signed+" + s.inner.Name() }

func (s *signed) Marshal(v any) ([]byte, error) {
	data, err := s.inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	b64 := base64.RawURLEncoding.EncodeToString(data)
	mac := hmac.New(sha256.New, s.key)
	mac.Write(data)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16]) // 16 bytes = 128 bits
	return []byte(b64 + "." + sig), nil
}

func (s *signed) Unmarshal(encoded []byte, v any) error {
	parts := strings.SplitN(string(encoded), ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("%w: missing signature", ErrInvalidFormat)
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write(data)
	if !hmac.Equal(sig, mac.Sum(nil)[:16]) {
		return ErrSignatureInvalid
	}
	return s.inner.Unmarshal(data, v)
}

type sealed struct {
	inner Codec
	gcm   cipher.AEAD
}

// Sealed wraps inner with AES-256-GCM so stored blobs are opaque.
func Sealed(inner Codec, key []byte) (Codec, error) {
	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &sealed{inner: inner, gcm: gcm}, nil
}

func (s *sealed) Name() string { return "sealed+" + s.inner.Name() }

func (s *sealed) Marshal(v any) ([]byte, error) {
	data, err := s.inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ciphertext := s.gcm.Seal(nonce, nonce, data, nil)
	return []byte(base64.RawURLEncoding.EncodeToString(ciphertext)), nil
}

func (s *sealed) Unmarshal(encoded []byte, v any) error {
	ciphertext, err := base64.RawURLEncoding.DecodeString(string(encoded))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if len(ciphertext) < s.gcm.NonceSize() {
		return fmt.Errorf("%w: ciphertext too short", ErrDecryptFailed)
	}

	nonce := ciphertext[:s.gcm.NonceSize()]
	data, err := s.gcm.Open(nil, nonce, ciphertext[s.gcm.NonceSize():], nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecryptFailed, err)
	}
	return s.inner.Unmarshal(data, v)
}
