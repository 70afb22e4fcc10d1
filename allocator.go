package secretstore

import (
	"errors"
	"fmt"
)

// errLockUnsupported is returned by allocators that cannot pin memory.
var errLockUnsupported = errors.New("secretstore: page locking not supported")

// Allocator provides the memory behind a SecureBuffer.
//
// Allocate returns a zero-filled region of exactly size bytes. Lock and
// Unlock pin the region against swap; Lock failing is tolerated by callers.
// Free returns the region. Implementations must be safe for concurrent use.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Lock(b []byte) error
	Unlock(b []byte) error
	Free(b []byte) error
}

// HeapAllocator allocates on the Go heap and cannot lock pages.
// It is the fallback on platforms without mmap/mlock.
type HeapAllocator struct{}

// Compile-time interface check.
var _ Allocator = HeapAllocator{}

// Allocate returns a fresh zeroed slice.
func (HeapAllocator) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrAllocation, size)
	}
	return make([]byte, size), nil
}

// Lock always fails; heap memory cannot be pinned portably.
func (HeapAllocator) Lock([]byte) error { return errLockUnsupported }

// Unlock is a no-op.
func (HeapAllocator) Unlock([]byte) error { return nil }

// Free is a no-op; the garbage collector reclaims the slice.
func (HeapAllocator) Free([]byte) error { return nil }
