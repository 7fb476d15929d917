// Package keys selects upstream credentials from a configured pool.
package keys

import (
	"errors"
	"math/rand/v2"
	"sync/atomic"
)

// ErrEmptyPool is returned when a selection is attempted on an empty pool.
// It is a configuration error and fatal for the calling request.
var ErrEmptyPool = errors.New("API key list is empty")

// Rotator hands out keys from an immutable pool.
//
// The round-robin cursor is advanced with an atomic add, which keeps the
// counter well-defined under concurrent use but gives no exclusivity: two
// callers may still observe adjacent keys in either order. It spreads load,
// it does not reserve keys.
type Rotator struct {
	keys   []string
	cursor atomic.Uint64
	intn   func(n int) int
}

// NewRotator copies keys into a new Rotator.
func NewRotator(keys []string) *Rotator {
	return &Rotator{
		keys: append([]string(nil), keys...),
		intn: rand.IntN,
	}
}

// Len returns the pool size.
func (r *Rotator) Len() int {
	return len(r.keys)
}

// Next returns the next key in insertion order, wrapping at the pool length.
func (r *Rotator) Next() (string, error) {
	n := len(r.keys)
	if n == 0 {
		return "", ErrEmptyPool
	}
	i := r.cursor.Add(1) - 1
	return r.keys[i%uint64(n)], nil
}

// Random returns a uniformly random key. It does not touch the cursor.
func (r *Rotator) Random() (string, error) {
	n := len(r.keys)
	if n == 0 {
		return "", ErrEmptyPool
	}
	return r.keys[r.intn(n)], nil
}
