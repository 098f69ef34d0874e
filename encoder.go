package hxmount

import (
	"errors"
	"fmt"

	"github.com/pthm/hxmount/lib/encoding"
)

// Codec is an alias for encoding.Codec for convenience.
type Codec = encoding.Codec

// NewCodec returns the state codec named by format ("json" or "msgpack"),
// wrapped by Signed when signKey is set and then by Sealed when sealKey is
// set. Unknown formats are configuration errors.
func NewCodec(format string, signKey, sealKey []byte) (Codec, error) {
	var c Codec
	switch format {
	case "", "json":
		c = encoding.JSON{}
	case "msgpack":
		c = encoding.Msgpack{}
	default:
		return nil, fmt.Errorf("%w: unknown state codec %q", ErrInvalidConfig, format)
	}
	if len(signKey) > 0 {
		c = encoding.Signed(c, signKey)
	}
	if len(sealKey) > 0 {
		sealed, err := encoding.Sealed(c, sealKey)
		if err != nil {
			return nil, fmt.Errorf("%w: seal key: %w", ErrInvalidConfig, err)
		}
		c = sealed
	}
	return c, nil
}

// isCorruptState checks if err reports a persisted blob that can not be
// trusted, as opposed to an unavailable backend.
func isCorruptState(err error) bool {
	return errors.Is(err, encoding.ErrInvalidFormat) ||
		errors.Is(err, encoding.ErrSignatureInvalid) ||
		errors.Is(err, encoding.ErrDecryptFailed)
}
