package secretstore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func makeKey(size int) []byte {
	key := make([]byte, size)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func testProvider(t testing.TB) *StaticKeyProvider {
	t.Helper()
	p, err := NewStaticKeyProvider(makeKey(32), "test-key")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// recordingAllocator hands out heap memory and keeps every region after
// Free, so tests can read buffers the store has already released.
type recordingAllocator struct {
	mu      sync.Mutex
	regions [][]byte
	calls   int
	failAt  int // 1-based Allocate call that fails; 0 never fails
	lockErr error
	locks   int
	unlocks int
	frees   int
	freeErr error
}

func (a *recordingAllocator) Allocate(size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.failAt != 0 && a.calls == a.failAt {
		return nil, errors.New("out of memory")
	}
	b := make([]byte, size)
	a.regions = append(a.regions, b)
	return b, nil
}

func (a *recordingAllocator) Lock([]byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lockErr != nil {
		return a.lockErr
	}
	a.locks++
	return nil
}

func (a *recordingAllocator) Unlock([]byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unlocks++
	return nil
}

func (a *recordingAllocator) Free([]byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frees++
	return a.freeErr
}

func (a *recordingAllocator) snapshot() (regions [][]byte, frees int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]byte(nil), a.regions...), a.frees
}

// allZero reads b through a call the compiler cannot inline, so the check
// cannot be folded into the writes that preceded it.
//
//go:noinline
func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// allocSource feeds openInto straight from an allocator, bypassing a Store.
type allocSource struct {
	alloc Allocator
}

func (s allocSource) acquire(_ context.Context, n int) (*SecureBuffer, error) {
	return Acquire(s.alloc, n)
}

func (s allocSource) release(buf *SecureBuffer) {
	_ = buf.Release()
}
