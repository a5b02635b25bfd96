// Package modem provides BPSK modulation and soft demodulation.
package modem

import (
	"pipelined.dev/chain"
	"pipelined.dev/chain/frame"
	"pipelined.dev/chain/mutable"
	"pipelined.dev/chain/noise"
)

// BitsPerSymbol of the BPSK constellation.
const BitsPerSymbol = 1

// Modulator maps hard bits onto BPSK symbols: bit 0 becomes +1, bit 1
// becomes -1.
type Modulator struct {
	N int
}

func (m *Modulator) Name() string { return "modem.bpsk" }

func (m *Modulator) Inputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "X_N1", Kind: chain.Bit, Width: m.N}}
}

func (m *Modulator) Outputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "X_N2", Kind: chain.Real, Width: m.N}}
}

func (m *Modulator) Execute(in, out []frame.Floating) error {
	for i, b := range in[0] {
		out[0][i] = 1 - 2*b
	}
	return nil
}

// Demodulator computes bit LLRs from noisy BPSK symbols. The noise value
// is set through a mutation before a run starts.
type Demodulator struct {
	mutable.Context
	N int

	sigma float64
}

// NewDemodulator creates a mutable demodulator for frames of n symbols.
func NewDemodulator(n int) *Demodulator {
	return &Demodulator{
		Context: mutable.Mutable(),
		N:       n,
	}
}

// SetNoise returns a mutation updating the gaussian noise value used by
// the LLR computation.
func (d *Demodulator) SetNoise(n noise.Sigma) mutable.Mutation {
	return d.Mutate(func() {
		d.sigma = n.Sigma
	})
}

func (d *Demodulator) Name() string { return "demodem.bpsk" }

func (d *Demodulator) Inputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "Y_N1", Kind: chain.Real, Width: d.N}}
}

func (d *Demodulator) Outputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "Y_N2", Kind: chain.Real, Width: d.N}}
}

// Execute computes LLR = 2*y/sigma^2 per symbol. With zero sigma the
// received symbols pass through unchanged, their sign already carries the
// decision.
func (d *Demodulator) Execute(in, out []frame.Floating) error {
	if d.sigma == 0 {
		copy(out[0], in[0])
		return nil
	}
	s2 := d.sigma * d.sigma
	for i, y := range in[0] {
		out[0][i] = 2 * y / s2
	}
	return nil
}
