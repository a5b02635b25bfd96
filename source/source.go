// Package source provides information bit generation.
package source

import (
	"io"
	"math/rand"
	"sync"

	"pipelined.dev/chain"
	"pipelined.dev/chain/frame"
)

// Random generates frames of K uniformly random bits. When Limit is set,
// the source finishes the run after that many frames. The generator is
// seeded on first use, so runs with the same Seed are reproducible.
type Random struct {
	K     int
	Seed  int64
	Limit int

	once    sync.Once
	mu      sync.Mutex
	rnd     *rand.Rand
	emitted int
}

func (s *Random) Name() string { return "source.random" }

func (s *Random) Inputs() []chain.SocketSpec { return nil }

func (s *Random) Outputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "U_K", Kind: chain.Bit, Width: s.K}}
}

func (s *Random) Execute(_, out []frame.Floating) error {
	s.once.Do(func() {
		s.rnd = rand.New(rand.NewSource(s.Seed))
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Limit > 0 && s.emitted >= s.Limit {
		return io.EOF
	}
	s.emitted++
	for i := range out[0] {
		out[0][i] = float64(s.rnd.Intn(2))
	}
	return nil
}

// Reset clears the emitted frame count so the next run can generate
// again.
func (s *Random) Reset() {
	s.mu.Lock()
	s.emitted = 0
	s.mu.Unlock()
}
