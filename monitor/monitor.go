// Package monitor provides the bit and frame error monitor which ends a
// simulation once enough frame errors were observed.
package monitor

import (
	"sync"
	"sync/atomic"

	"pipelined.dev/chain"
	"pipelined.dev/chain/frame"
)

// BFER counts bit and frame errors by comparing transmitted and decoded
// information bits. All counters are safe for concurrent updates.
type BFER struct {
	k          int
	frameLimit uint64

	frames      uint64
	bitErrors   uint64
	frameErrors uint64

	mu      sync.Mutex
	onCheck []func()
}

// New creates a monitor for k information bits per frame. The run should
// be stopped once frameLimit frame errors were counted. Zero frameLimit
// disables the limit.
func New(k int, frameLimit uint64) *BFER {
	return &BFER{
		k:          k,
		frameLimit: frameLimit,
	}
}

func (m *BFER) Name() string { return "monitor.bfer" }

func (m *BFER) Inputs() []chain.SocketSpec {
	return []chain.SocketSpec{
		{Name: "U", Kind: chain.Bit, Width: m.k},
		{Name: "V", Kind: chain.Bit, Width: m.k},
	}
}

func (m *BFER) Outputs() []chain.SocketSpec { return nil }

// Execute compares one transmitted frame against its decoded counterpart
// and advances the error counters. Registered check handlers run after
// every comparison.
func (m *BFER) Execute(in, _ []frame.Floating) error {
	u, v := in[0], in[1]
	var errs uint64
	for i := range u {
		if u[i] != v[i] {
			errs++
		}
	}
	atomic.AddUint64(&m.frames, 1)
	if errs > 0 {
		atomic.AddUint64(&m.bitErrors, errs)
		atomic.AddUint64(&m.frameErrors, 1)
	}

	m.mu.Lock()
	handlers := m.onCheck
	m.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
	return nil
}

// OnCheck registers a handler invoked after every frame comparison.
func (m *BFER) OnCheck(fn func()) {
	m.mu.Lock()
	m.onCheck = append(m.onCheck, fn)
	m.mu.Unlock()
}

// Frames returns the number of analyzed frames.
func (m *BFER) Frames() uint64 {
	return atomic.LoadUint64(&m.frames)
}

// BitErrors returns the number of erroneous bits.
func (m *BFER) BitErrors() uint64 {
	return atomic.LoadUint64(&m.bitErrors)
}

// FrameErrors returns the number of frames with at least one erroneous
// bit.
func (m *BFER) FrameErrors() uint64 {
	return atomic.LoadUint64(&m.frameErrors)
}

// BER returns the bit error rate over all analyzed frames.
func (m *BFER) BER() float64 {
	frames := m.Frames()
	if frames == 0 {
		return 0
	}
	return float64(m.BitErrors()) / float64(frames*uint64(m.k))
}

// FER returns the frame error rate over all analyzed frames.
func (m *BFER) FER() float64 {
	frames := m.Frames()
	if frames == 0 {
		return 0
	}
	return float64(m.FrameErrors()) / float64(frames)
}

// LimitAchieved returns true once the frame error limit was reached.
func (m *BFER) LimitAchieved() bool {
	return m.frameLimit > 0 && m.FrameErrors() >= m.frameLimit
}

// Reset clears all counters. Idempotent, must not be called while the
// monitor executes.
func (m *BFER) Reset() {
	atomic.StoreUint64(&m.frames, 0)
	atomic.StoreUint64(&m.bitErrors, 0)
	atomic.StoreUint64(&m.frameErrors, 0)
}
