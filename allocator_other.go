//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package secretstore

// DefaultAllocator returns the allocator used when none is configured.
func DefaultAllocator() Allocator {
	return HeapAllocator{}
}
