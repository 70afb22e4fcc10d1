package secretstore

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm identifies the AEAD used for both the DEK and the data.
type Algorithm byte

const (
	// AES256GCM is AES-256 in GCM mode with a 12-byte random nonce.
	AES256GCM Algorithm = 0x01

	// XChaCha20Poly1305 is XChaCha20-Poly1305 with a 24-byte random nonce.
	XChaCha20Poly1305 Algorithm = 0x02
)

// String returns the lowercase algorithm name.
func (a Algorithm) String() string {
	switch a {
	case AES256GCM:
		return "aes256gcm"
	case XChaCha20Poly1305:
		return "xchacha20poly1305"
	default:
		return fmt.Sprintf("algorithm(%d)", byte(a))
	}
}

// ParseAlgorithm maps a name produced by String back to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "aes256gcm", "aes-256-gcm":
		return AES256GCM, nil
	case "xchacha20poly1305", "xchacha20-poly1305":
		return XChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("secretstore: unknown algorithm %q", name)
	}
}

func (a Algorithm) valid() bool {
	return a == AES256GCM || a == XChaCha20Poly1305
}

func (a Algorithm) nonceSize() int {
	if a == XChaCha20Poly1305 {
		return chacha20poly1305.NonceSizeX
	}
	return 12
}

// newAEAD builds the cipher for alg keyed with key.
func newAEAD(alg Algorithm, key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	switch alg {
	case AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case XChaCha20Poly1305:
		return chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %d", ErrInvalidFormat, byte(alg))
	}
}
