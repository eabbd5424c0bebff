// Package secret wipes key material held in byte slices.
package secret

import "runtime"

// Wipe overwrites b with zeros. A nil or empty slice is a no-op.
func Wipe(b []byte) {
	clear(b)
	// keep the store from being treated as dead
	runtime.KeepAlive(b)
}

// WipeOnRelease registers a cleanup that wipes buf once owner is no longer
// reachable. buf must not hold a reference back to owner.
func WipeOnRelease[T any](owner *T, buf []byte) runtime.Cleanup {
	return runtime.AddCleanup(owner, Wipe, buf)
}

// Clone returns an owned copy of b. It returns nil for a nil slice.
func Clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
