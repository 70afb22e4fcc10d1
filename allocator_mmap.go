//go:build linux || darwin || freebsd || netbsd || openbsd

package secretstore

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapAllocator allocates anonymous private mappings outside the Go heap.
// The garbage collector never sees the memory and cannot copy it.
type MmapAllocator struct{}

// Compile-time interface check.
var _ Allocator = MmapAllocator{}

// DefaultAllocator returns the allocator used when none is configured.
func DefaultAllocator() Allocator {
	return MmapAllocator{}
}

// Allocate maps size bytes of zero-filled memory and, where supported,
// excludes it from core dumps.
func (MmapAllocator) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrAllocation, size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap: %v", ErrAllocation, err)
	}
	// Best effort: the region is still usable if the kernel refuses.
	_ = excludeFromCoreDump(data)
	return data, nil
}

// Lock pins the region in RAM with mlock. It commonly fails under a low
// RLIMIT_MEMLOCK; callers treat that as degraded, not fatal.
func (MmapAllocator) Lock(b []byte) error {
	if err := unix.Mlock(b); err != nil {
		return fmt.Errorf("secretstore: mlock: %w", err)
	}
	return nil
}

// Unlock releases an mlock.
func (MmapAllocator) Unlock(b []byte) error {
	if err := unix.Munlock(b); err != nil {
		return fmt.Errorf("secretstore: munlock: %w", err)
	}
	return nil
}

// Free unmaps the region.
func (MmapAllocator) Free(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("secretstore: munmap: %w", err)
	}
	return nil
}
