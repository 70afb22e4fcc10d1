package secretstore

import (
	"runtime"

	"github.com/awnumar/memguard"
)

// Wipe overwrites every byte of b with zero in place.
//
// The stores are issued through memguard and b is kept alive past them,
// so the compiler cannot drop the writes as dead even when b is never read
// again. Wipe is safe on nil and empty slices.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	memguard.WipeBytes(b)
	runtime.KeepAlive(b)
}
