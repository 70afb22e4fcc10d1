// Package host exposes a process-wide secret store through the flat entry
// points an embedding application calls: length query, decrypt into a
// caller buffer, verify, wipe, and a two-field credential check.
//
// The store is installed once at startup with Init and is never torn down;
// it only holds sealed bytes. Every entry point is safe for concurrent use.
//
// Hosts that marshal 16-bit character arrays (UTF-16 code units) instead of
// bytes use the UTF16 variants. Secrets are byte strings; each byte maps to
// one code unit, and a code unit above 0xFF never matches.
package host

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rbaliyan/secretstore"
)

// Secret IDs consulted by CheckCredentials.
const (
	CredentialUserID     = "credentials/user"
	CredentialPasswordID = "credentials/password"
)

var (
	// ErrNotInitialized is returned before Init has installed a store.
	ErrNotInitialized = errors.New("host: secret store not initialized")

	// ErrAlreadyInitialized is returned when Init is called more than once.
	ErrAlreadyInitialized = errors.New("host: secret store already initialized")
)

var current atomic.Pointer[secretstore.Store]

// Init installs the process-wide store. It succeeds once.
func Init(store *secretstore.Store) error {
	if store == nil {
		return errors.New("host: Init store is nil")
	}
	if !current.CompareAndSwap(nil, store) {
		return ErrAlreadyInitialized
	}
	return nil
}

func load() (*secretstore.Store, error) {
	s := current.Load()
	if s == nil {
		return nil, ErrNotInitialized
	}
	return s, nil
}

// GetSecretLength returns the plaintext length of a secret.
// Unknown IDs fail with secretstore.ErrNotFound.
func GetSecretLength(id string) (int, error) {
	s, err := load()
	if err != nil {
		return 0, err
	}
	return s.LengthOf(id)
}

// DecryptSecret fills the first GetSecretLength(id) bytes of dst with the
// plaintext and leaves the remainder untouched. A short dst fails with
// secretstore.ErrBufferTooSmall and is not modified.
func DecryptSecret(id string, dst []byte) error {
	s, err := load()
	if err != nil {
		return err
	}
	return s.RevealInto(context.Background(), id, dst)
}

// VerifySecret reports whether candidate matches the secret. Any failure,
// including an unknown ID, reports false.
func VerifySecret(candidate []byte, id string) bool {
	s, err := load()
	if err != nil {
		return false
	}
	ok, err := s.Verify(context.Background(), id, candidate)
	return err == nil && ok
}

// CheckCredentials verifies a user name and password against the
// CredentialUserID and CredentialPasswordID secrets. Both fields are always
// checked; the result does not reveal which one failed.
func CheckCredentials(user, password []byte) bool {
	s, err := load()
	if err != nil {
		return false
	}
	ok, err := s.VerifyAll(context.Background(),
		secretstore.Claim{ID: CredentialUserID, Candidate: user},
		secretstore.Claim{ID: CredentialPasswordID, Candidate: password},
	)
	return err == nil && ok
}

// WipeBuffer zeroes buf in place. It always succeeds.
func WipeBuffer(buf []byte) {
	secretstore.Wipe(buf)
}
