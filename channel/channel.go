// Package channel provides transmission channel models.
package channel

import (
	"math/rand"
	"sync"

	"pipelined.dev/chain"
	"pipelined.dev/chain/frame"
	"pipelined.dev/chain/mutable"
	"pipelined.dev/chain/noise"
)

// AWGN adds white gaussian noise to transmitted symbols. The noise value
// is set through a mutation before a run starts. The generator is seeded
// on first use, so runs with the same seed are reproducible.
type AWGN struct {
	mutable.Context
	N    int
	Seed int64

	sigma float64

	once sync.Once
	mu   sync.Mutex
	rnd  *rand.Rand
}

// NewAWGN creates a mutable gaussian channel for frames of n symbols.
func NewAWGN(n int, seed int64) *AWGN {
	return &AWGN{
		Context: mutable.Mutable(),
		N:       n,
		Seed:    seed,
	}
}

// SetNoise returns a mutation updating the gaussian noise value applied
// to transmitted symbols.
func (c *AWGN) SetNoise(n noise.Sigma) mutable.Mutation {
	return c.Mutate(func() {
		c.sigma = n.Sigma
	})
}

func (c *AWGN) Name() string { return "channel.awgn" }

func (c *AWGN) Inputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "X_N", Kind: chain.Real, Width: c.N}}
}

func (c *AWGN) Outputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "Y_N", Kind: chain.Real, Width: c.N}}
}

func (c *AWGN) Execute(in, out []frame.Floating) error {
	if c.sigma == 0 {
		copy(out[0], in[0])
		return nil
	}
	c.once.Do(func() {
		c.rnd = rand.New(rand.NewSource(c.Seed))
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, x := range in[0] {
		out[0][i] = x + c.sigma*c.rnd.NormFloat64()
	}
	return nil
}
