package utils

import (
	"bytes"
	"sync"
)

// MaxBufferSize caps the buffers Buffers keeps for reuse.
const MaxBufferSize = 64 * 1024

// Pool is a typed sync.Pool. Before an item goes back, keep may reset it
// and reports whether it is worth keeping.
type Pool[T any] struct {
	pool sync.Pool
	keep func(T) bool
}

// NewPool returns a pool that makes new items with mk. A nil keep keeps
// everything.
func NewPool[T any](mk func() T, keep func(T) bool) *Pool[T] {
	p := &Pool[T]{keep: keep}
	p.pool.New = func() any { return mk() }
	return p
}

func (p *Pool[T]) Get() T { return p.pool.Get().(T) }

func (p *Pool[T]) Put(x T) {
	if p.keep != nil && !p.keep(x) {
		return
	}
	p.pool.Put(x)
}

// Buffers holds render buffers. Oversized buffers are dropped.
var Buffers = NewPool(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	func(b *bytes.Buffer) bool {
		if b == nil || b.Cap() > MaxBufferSize {
			return false
		}
		b.Reset()
		return true
	},
)
