// Package mock provides counting tasks for pipeline tests.
package mock

import (
	"io"
	"sync"
	"time"

	"pipelined.dev/chain"
	"pipelined.dev/chain/frame"
)

// Counter counts executions and records the identity of every processed
// frame. Frames carry their identity in every element, so the first
// element is recorded.
type Counter struct {
	mu       sync.Mutex
	messages int
	values   []float64
}

func (c *Counter) advance(v float64) {
	c.mu.Lock()
	c.messages++
	c.values = append(c.values, v)
	c.mu.Unlock()
}

// Messages returns the number of processed frames.
func (c *Counter) Messages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages
}

// Values returns identities of processed frames in processing order.
func (c *Counter) Values() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.values...)
}

// Source mocks a source task. It emits frames filled with the frame
// index and returns io.EOF once Limit frames were emitted.
type Source struct {
	Counter
	Width       int
	Limit       int
	Interval    time.Duration
	ErrorOnCall error

	mu      sync.Mutex
	emitted int
}

func (s *Source) Name() string { return "mock.source" }

func (s *Source) Inputs() []chain.SocketSpec { return nil }

func (s *Source) Outputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "out", Kind: chain.Real, Width: s.Width}}
}

func (s *Source) Execute(_, out []frame.Floating) error {
	if s.ErrorOnCall != nil {
		return s.ErrorOnCall
	}
	s.mu.Lock()
	if s.Limit > 0 && s.emitted >= s.Limit {
		s.mu.Unlock()
		return io.EOF
	}
	v := float64(s.emitted)
	s.emitted++
	s.mu.Unlock()
	if s.Interval > 0 {
		time.Sleep(s.Interval)
	}
	for i := range out[0] {
		out[0][i] = v
	}
	s.advance(v)
	return nil
}

// Reset clears the emitted frame count.
func (s *Source) Reset() {
	s.mu.Lock()
	s.emitted = 0
	s.mu.Unlock()
}

// Processor mocks a pass-through task. Op, when set, is applied to every
// element. FailAfter makes the task fail once that many frames passed.
type Processor struct {
	Counter
	Width       int
	Op          func(float64) float64
	Interval    time.Duration
	ErrorOnCall error
	FailAfter   int
}

func (p *Processor) Name() string { return "mock.processor" }

func (p *Processor) Inputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "in", Kind: chain.Real, Width: p.Width}}
}

func (p *Processor) Outputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "out", Kind: chain.Real, Width: p.Width}}
}

func (p *Processor) Execute(in, out []frame.Floating) error {
	if p.ErrorOnCall != nil && p.Messages() >= p.FailAfter {
		return p.ErrorOnCall
	}
	if p.Interval > 0 {
		time.Sleep(p.Interval)
	}
	for i, v := range in[0] {
		if p.Op != nil {
			v = p.Op(v)
		}
		out[0][i] = v
	}
	p.advance(in[0][0])
	return nil
}

// Sink mocks a sink task. When Gate is set, every execution blocks until
// the gate channel is closed.
type Sink struct {
	Counter
	Width int
	Gate  chan struct{}
}

func (s *Sink) Name() string { return "mock.sink" }

func (s *Sink) Inputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "in", Kind: chain.Real, Width: s.Width}}
}

func (s *Sink) Outputs() []chain.SocketSpec { return nil }

func (s *Sink) Execute(in, _ []frame.Floating) error {
	if s.Gate != nil {
		<-s.Gate
	}
	s.advance(in[0][0])
	return nil
}
