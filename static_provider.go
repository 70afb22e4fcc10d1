package secretstore

import (
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
)

// StaticKeyProvider is a KeyProvider backed by in-memory keys.
//
// Key material is held in memguard enclaves, encrypted while at rest in
// the process. Each lookup opens the enclave into a locked buffer, copies
// the key out for the caller, and destroys the locked buffer.
// It is safe for concurrent use.
type StaticKeyProvider struct {
	mu        sync.RWMutex
	currentID string
	keys      map[string]*memguard.Enclave
	destroyed bool
	err       error // deferred validation error from options
}

// StaticOption configures a StaticKeyProvider.
type StaticOption func(*StaticKeyProvider)

// WithOldKey adds a previous key that remains available for opening
// secrets sealed before a rotation. keyBytes must be 32 bytes and id must
// not be empty.
func WithOldKey(keyBytes []byte, id string) StaticOption {
	return func(p *StaticKeyProvider) {
		if p.err != nil {
			return
		}
		if len(keyBytes) != keySize {
			p.err = fmt.Errorf("%w: old key %q has %d bytes", ErrInvalidKeySize, id, len(keyBytes))
			return
		}
		if id == "" {
			p.err = fmt.Errorf("%w: old key ID must not be empty", ErrInvalidKeyID)
			return
		}
		p.keys[id] = sealKey(keyBytes)
	}
}

// NewStaticKeyProvider creates a KeyProvider with the given current key.
// keyBytes must be 32 bytes. The id identifies this key and is written
// into every secret sealed with it.
// Key bytes are copied; the caller may safely zero the original after
// construction.
func NewStaticKeyProvider(keyBytes []byte, id string, opts ...StaticOption) (*StaticKeyProvider, error) {
	if len(keyBytes) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(keyBytes))
	}
	if id == "" {
		return nil, fmt.Errorf("%w: key ID must not be empty", ErrInvalidKeyID)
	}
	if len(id) > maxKeyIDLen {
		return nil, fmt.Errorf("%w: key ID longer than %d bytes", ErrInvalidKeyID, maxKeyIDLen)
	}

	p := &StaticKeyProvider{
		currentID: id,
		keys:      map[string]*memguard.Enclave{id: sealKey(keyBytes)},
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.err != nil {
		return nil, p.err
	}

	return p, nil
}

// sealKey moves a copy of b into an enclave; memguard wipes the copy.
func sealKey(b []byte) *memguard.Enclave {
	tmp := make([]byte, len(b))
	copy(tmp, b)
	return memguard.NewEnclave(tmp)
}

// CurrentKey returns the current key for new seals.
func (p *StaticKeyProvider) CurrentKey() (Key, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.destroyed {
		return Key{}, ErrProviderDestroyed
	}
	return p.open(p.currentID)
}

// KeyByID returns the key with the given ID.
func (p *StaticKeyProvider) KeyByID(id string) (Key, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.destroyed {
		return Key{}, ErrProviderDestroyed
	}
	return p.open(id)
}

func (p *StaticKeyProvider) open(id string) (Key, error) {
	enclave, ok := p.keys[id]
	if !ok {
		return Key{}, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	locked, err := enclave.Open()
	if err != nil {
		return Key{}, fmt.Errorf("secretstore: failed to open key %q: %w", id, err)
	}
	defer locked.Destroy()

	b := make([]byte, locked.Size())
	copy(b, locked.Bytes())
	return Key{ID: id, Bytes: b}, nil
}

// Destroy drops every key. Later lookups fail with ErrProviderDestroyed.
// Destroy is idempotent.
func (p *StaticKeyProvider) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.destroyed = true
	clear(p.keys)
}

// Compile-time interface check.
var _ KeyProvider = (*StaticKeyProvider)(nil)
