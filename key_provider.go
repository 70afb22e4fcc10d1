package secretstore

// Key represents a named key-encryption key.
type Key struct {
	// ID is a unique identifier for the key (e.g., "key-2024-01").
	ID string

	// Bytes is the raw key material. Must be 32 bytes.
	Bytes []byte
}

// KeyProvider abstracts key retrieval for sealing and opening secrets.
// Implementations must be safe for concurrent use.
//
// Both methods hand out a Key whose Bytes the caller owns: the store wipes
// them as soon as the operation that needed the key completes, so an
// implementation must never return its internal backing array.
type KeyProvider interface {
	// CurrentKey returns the key to use for new seals.
	CurrentKey() (Key, error)

	// KeyByID returns the key with the given ID, used for opening.
	// Returns ErrKeyNotFound if the key ID is not known.
	KeyByID(id string) (Key, error)
}
