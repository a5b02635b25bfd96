// Package codec provides the repetition code used by the simulated
// transmission chain.
package codec

import (
	"fmt"

	"pipelined.dev/chain"
	"pipelined.dev/chain/frame"
)

// Rate returns the code rate of a (K, N) code.
func Rate(k, n int) float64 {
	return float64(k) / float64(n)
}

// Encoder repeats every frame of K information bits N/K times.
type Encoder struct {
	k int
	n int
}

// NewEncoder creates a repetition encoder. N must be a positive multiple
// of K.
func NewEncoder(k, n int) (*Encoder, error) {
	if err := validate(k, n); err != nil {
		return nil, err
	}
	return &Encoder{k: k, n: n}, nil
}

func (e *Encoder) Name() string { return "encoder.repetition" }

func (e *Encoder) Inputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "U_K", Kind: chain.Bit, Width: e.k}}
}

func (e *Encoder) Outputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "X_N", Kind: chain.Bit, Width: e.n}}
}

func (e *Encoder) Execute(in, out []frame.Floating) error {
	reps := e.n / e.k
	for j := 0; j < reps; j++ {
		copy(out[0][j*e.k:(j+1)*e.k], in[0])
	}
	return nil
}

// Decoder decodes repetition-coded LLR frames by summing the repetitions
// of every information bit.
type Decoder struct {
	k int
	n int
}

// NewDecoder creates a repetition decoder. N must be a positive multiple
// of K.
func NewDecoder(k, n int) (*Decoder, error) {
	if err := validate(k, n); err != nil {
		return nil, err
	}
	return &Decoder{k: k, n: n}, nil
}

func (d *Decoder) Name() string { return "decoder.repetition" }

func (d *Decoder) Inputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "Y_N", Kind: chain.Real, Width: d.n}}
}

func (d *Decoder) Outputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "V_K", Kind: chain.Bit, Width: d.k}}
}

// Execute sums the LLRs of every bit over all repetitions. Positive sums
// decode to zero.
func (d *Decoder) Execute(in, out []frame.Floating) error {
	reps := d.n / d.k
	for i := 0; i < d.k; i++ {
		var sum float64
		for j := 0; j < reps; j++ {
			sum += in[0][j*d.k+i]
		}
		if sum > 0 {
			out[0][i] = 0
		} else {
			out[0][i] = 1
		}
	}
	return nil
}

// Reset clears the internal decoder state between sweep iterations. The
// repetition decoder is stateless, so there is nothing to clear.
func (d *Decoder) Reset() {}

func validate(k, n int) error {
	if k <= 0 || n <= 0 {
		return fmt.Errorf("codec: non-positive dimensions K=%d N=%d", k, n)
	}
	if n%k != 0 {
		return fmt.Errorf("codec: N=%d is not a multiple of K=%d", n, k)
	}
	return nil
}
