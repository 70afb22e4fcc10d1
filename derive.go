package secretstore

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for DeriveKey: 1 pass, 64 MiB, 4 lanes.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4

	// MinSaltSize is the shortest salt DeriveKey accepts.
	MinSaltSize = 16
)

// DeriveKey stretches a passphrase into a 32-byte key with Argon2id.
// The same passphrase and salt always produce the same key, so a build
// pipeline can seal with a passphrase and the application can open with it.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("secretstore: passphrase must not be empty")
	}
	if len(salt) < MinSaltSize {
		return nil, fmt.Errorf("secretstore: salt must be at least %d bytes, got %d", MinSaltSize, len(salt))
	}
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, keySize), nil
}
