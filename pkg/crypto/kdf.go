package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// MinSaltLength is the shortest salt DeriveKeyArgon2id accepts.
const MinSaltLength = 16

// ErrInvalidKDFInput is wrapped by every rejection from the Argon2id helpers.
var ErrInvalidKDFInput = errors.New("argon2: invalid input")

// Argon2Parameters holds the Argon2id cost factors. Memory is in KiB and
// KeyLength in bytes; the key length must suit AES.
type Argon2Parameters struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
}

// DefaultArgon2Params stretches short configured secrets into an AES-256 key.
func DefaultArgon2Params() Argon2Parameters {
	return Argon2Parameters{Time: 2, Memory: 64 << 10, Threads: 4, KeyLength: 32}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidKDFInput}, args...)...)
}

// Validate reports the first cost factor argon2.IDKey would misbehave with.
func (p Argon2Parameters) Validate() error {
	switch {
	case p.Time == 0:
		return invalid("time cost is zero")
	case p.Threads == 0:
		return invalid("thread count is zero")
	case p.Memory < 8*uint32(p.Threads):
		return invalid("memory %d KiB below 8 per thread", p.Memory)
	}
	switch p.KeyLength {
	case 16, 24, 32:
		return nil
	default:
		return invalid("key length %d is not an AES size", p.KeyLength)
	}
}

// DeriveKeyArgon2id stretches secret into key material of params.KeyLength bytes.
func DeriveKeyArgon2id(secret, salt []byte, params Argon2Parameters) ([]byte, error) {
	if len(secret) == 0 {
		return nil, invalid("empty secret")
	}
	if len(salt) < MinSaltLength {
		return nil, invalid("salt has %d bytes, need %d", len(salt), MinSaltLength)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(secret, salt, params.Time, params.Memory, params.Threads, params.KeyLength), nil
}
