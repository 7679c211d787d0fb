package app

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/onswift/backend/pkg/crypto"
)

// AES accepts 16, 24 or 32 byte keys.
func validAESKeyLength(n int) bool {
	return n == 16 || n == 24 || n == 32
}

// EncryptionKey turns the configured secrets key into AES key material. Values
// that already decode to a valid AES length are used as is; anything else is
// stretched with Argon2id using a salt bound to the key itself.
func EncryptionKey(value string) ([]byte, error) {
	decoded, err := DecodeKey(value)
	if err != nil {
		return nil, err
	}
	if validAESKeyLength(len(decoded)) {
		return decoded, nil
	}

	salt := sha256.Sum256([]byte("onswift-secrets:" + value))
	return crypto.DeriveKeyArgon2id(decoded, salt[:16], crypto.DefaultArgon2Params())
}

// DecodeKey decodes a key from hex or base64 encoding to raw bytes.
// It tries hex first (since runtime defaults use hex), then base64 variants.
// If all decoding attempts fail, it treats the input as raw bytes.
func DecodeKey(value string) ([]byte, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, fmt.Errorf("key value is empty")
	}

	// Hex first; runtime defaults generate hex keys.
	if len(v)%2 == 0 {
		if decoded, err := hex.DecodeString(v); err == nil {
			return decoded, nil
		}
	}

	// Support both standard and raw base64 encodings
	if decoded, err := base64.StdEncoding.DecodeString(v); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(v); err == nil {
		return decoded, nil
	}

	// Fallback to treating as raw bytes
	return []byte(v), nil
}
