package encoding

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func testState() map[string]any {
	return map[string]any{
		"status": "idle",
		"name":   "test-file.txt",
		"open":   true,
	}
}

func roundTrip(t *testing.T, c Codec) map[string]any {
	t.Helper()

	data, err := c.Marshal(testState())
	if err != nil {
		t.Fatalf("%s Marshal failed: %v", c.Name(), err)
	}
	if len(data) == 0 {
		t.Fatalf("%s Marshal returned empty data", c.Name())
	}

	var decoded map[string]any
	if err := c.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("%s Unmarshal failed: %v", c.Name(), err)
	}
	return decoded
}

func TestCodecRoundTrip(t *testing.T) {
	sealedJSON, err := Sealed(JSON{}, []byte("test-key"))
	if err != nil {
		t.Fatalf("Sealed failed: %v", err)
	}

	codecs := []Codec{
		JSON{},
		Msgpack{},
		Signed(JSON{}, []byte("test-key")),
		Signed(Msgpack{}, []byte("test-key")),
		sealedJSON,
	}

	for _, c := range codecs {
		t.Run(c.Name(), func(t *testing.T) {
			decoded := roundTrip(t, c)
			if decoded["status"] != "idle" {
				t.Errorf("status = %v, want idle", decoded["status"])
			}
			if decoded["name"] != "test-file.txt" {
				t.Errorf("name = %v, want test-file.txt", decoded["name"])
			}
			if decoded["open"] != true {
				t.Errorf("open = %v, want true", decoded["open"])
			}
		})
	}
}

func TestCodecNames(t *testing.T) {
	tests := []struct {
		codec Codec
		want  string
	}{
		{JSON{}, "json"},
		{Msgpack{}, "msgpack"},
		{Signed(Msgpack{}, []byte("k")), "signed+msgpack"},
	}
	for _, tt := range tests {
		if got := tt.codec.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestJSONMalformed(t *testing.T) {
	var v map[string]any
	err := JSON{}.Unmarshal([]byte("{not json"), &v)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestSignedFormat(t *testing.T) {
	c := Signed(JSON{}, []byte("test-key"))
	data, err := c.Marshal(testState())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Contains(data, []byte(".")) {
		t.Error("signed blob should contain a dot separator")
	}
}

func TestSignedTampered(t *testing.T) {
	c := Signed(JSON{}, []byte("test-key"))
	data, err := c.Marshal(testState())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	parts := strings.SplitN(string(data), ".", 2)
	other, err := Signed(JSON{}, []byte("other-key")).Marshal(map[string]any{"status": "error"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	otherParts := strings.SplitN(string(other), ".", 2)

	tampered := otherParts[0] + "." + parts[1]
	var v map[string]any
	if err := c.Unmarshal([]byte(tampered), &v); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestSignedWrongKey(t *testing.T) {
	data, err := Signed(JSON{}, []byte("key-1")).Marshal(testState())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var v map[string]any
	err = Signed(JSON{}, []byte("key-2")).Unmarshal(data, &v)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestSignedMissingSignature(t *testing.T) {
	var v map[string]any
	err := Signed(JSON{}, []byte("key")).Unmarshal([]byte("eyJhIjoxfQ"), &v)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestSealedOpaque(t *testing.T) {
	c, err := Sealed(JSON{}, []byte("test-key"))
	if err != nil {
		t.Fatalf("Sealed failed: %v", err)
	}
	data, err := c.Marshal(testState())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if bytes.Contains(data, []byte("test-file.txt")) {
		t.Error("sealed blob should not contain plaintext")
	}
}

func TestSealedNonceIsRandom(t *testing.T) {
	c, err := Sealed(JSON{}, []byte("test-key"))
	if err != nil {
		t.Fatalf("Sealed failed: %v", err)
	}
	a, _ := c.Marshal(testState())
	b, _ := c.Marshal(testState())
	if bytes.Equal(a, b) {
		t.Error("two seals of the same value should differ")
	}
}

func TestSealedWrongKey(t *testing.T) {
	c1, _ := Sealed(JSON{}, []byte("key-1"))
	c2, _ := Sealed(JSON{}, []byte("key-2"))

	data, err := c1.Marshal(testState())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var v map[string]any
	if err := c2.Unmarshal(data, &v); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("expected ErrDecryptFailed, got %v", err)
	}
}

func TestSealedTooShort(t *testing.T) {
	c, _ := Sealed(JSON{}, []byte("key"))
	var v map[string]any
	if err := c.Unmarshal([]byte("YWJj"), &v); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("expected ErrDecryptFailed, got %v", err)
	}
}
