// Package frame provides payload buffers exchanged between chain blocks
// and fixed-width pools to reuse them across executions.
package frame

import "sync"

// Floating is a frame payload. Depending on the socket kind it holds hard
// bits as 0/1 values or real values such as symbols and LLRs.
type Floating []float64

// Length returns the number of elements in the frame.
func (f Floating) Length() int {
	return len(f)
}

// Pool allocates frames of a fixed width. Frames returned to the pool are
// reused by later executions to reduce allocations on the hot path.
type Pool struct {
	width int
	pool  *sync.Pool
}

// NewPool returns a pool of frames with the provided width.
func NewPool(width int) *Pool {
	return &Pool{
		width: width,
		pool: &sync.Pool{
			New: func() interface{} {
				return make(Floating, width)
			},
		},
	}
}

// Width returns the width of frames allocated by this pool.
func (p *Pool) Width() int {
	return p.width
}

// Get returns a frame from the pool. The frame contents are undefined and
// must be fully written by the caller.
func (p *Pool) Get() Floating {
	return p.pool.Get().(Floating)[:p.width]
}

// Put returns the frame to the pool. Frames of a different width are
// dropped.
func (p *Pool) Put(f Floating) {
	if f == nil || cap(f) < p.width {
		return
	}
	p.pool.Put(f[:p.width])
}

// Clone returns a pooled copy of the frame.
func (p *Pool) Clone(f Floating) Floating {
	c := p.Get()
	copy(c, f)
	return c
}
