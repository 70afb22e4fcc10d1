package secretstore

import (
	"errors"
	"fmt"
)

// SecureBuffer is a scoped, fixed-length region for plaintext secret bytes.
//
// The region is page-locked for its lifetime when the allocator allows it,
// and Release zeroes it before handing it back. Acquire and Release are
// paired with defer so that every exit path of the owning operation,
// including error branches, wipes the region:
//
//	buf, err := secretstore.Acquire(alloc, n)
//	if err != nil {
//	    return err
//	}
//	defer buf.Release()
//
// A SecureBuffer belongs to the operation that acquired it. It is not safe
// for concurrent use and must not be copied.
type SecureBuffer struct {
	alloc    Allocator
	data     []byte
	locked   bool
	released bool
}

// Acquire allocates length bytes from alloc and tries to lock them.
//
// Locking is best effort: when the allocator refuses (unsupported platform,
// RLIMIT_MEMLOCK exhausted) the buffer is still returned and Locked reports
// false. An allocator failure returns an error wrapping ErrAllocation.
// A zero length yields an empty buffer without calling the allocator.
func Acquire(alloc Allocator, length int) (*SecureBuffer, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrAllocation, length)
	}
	if alloc == nil {
		alloc = DefaultAllocator()
	}
	b := &SecureBuffer{alloc: alloc}
	if length == 0 {
		b.data = []byte{}
		return b, nil
	}

	data, err := alloc.Allocate(length)
	if err != nil {
		if !errors.Is(err, ErrAllocation) {
			err = fmt.Errorf("%w: %v", ErrAllocation, err)
		}
		return nil, err
	}
	if len(data) != length {
		_ = alloc.Free(data)
		return nil, fmt.Errorf("%w: allocator returned %d bytes, want %d", ErrAllocation, len(data), length)
	}
	b.data = data
	b.locked = alloc.Lock(data) == nil
	return b, nil
}

// Bytes returns the region. The slice aliases the buffer and must not be
// retained past Release. Panics after Release.
func (b *SecureBuffer) Bytes() []byte {
	if b.released {
		panic("secretstore: use of released SecureBuffer")
	}
	return b.data
}

// Len returns the region length, or 0 after Release.
func (b *SecureBuffer) Len() int {
	if b.released {
		return 0
	}
	return len(b.data)
}

// Locked reports whether the region is pinned against swap.
func (b *SecureBuffer) Locked() bool {
	return b.locked && !b.released
}

// Release wipes the region, unlocks it if locked, and returns it to the
// allocator. Only the first call has an effect; later calls return nil.
// The wipe always happens, even when unlock or free then fail.
func (b *SecureBuffer) Release() error {
	if b == nil || b.released {
		return nil
	}
	b.released = true

	Wipe(b.data)
	if len(b.data) == 0 {
		b.data = nil
		return nil
	}

	var errs []error
	if b.locked {
		if err := b.alloc.Unlock(b.data); err != nil {
			errs = append(errs, err)
		}
		b.locked = false
	}
	if err := b.alloc.Free(b.data); err != nil {
		errs = append(errs, err)
	}
	b.data = nil
	return errors.Join(errs...)
}
