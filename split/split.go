// Package split provides frame duplication for graphs where the same
// data feeds several branches.
package split

import (
	"pipelined.dev/chain"
	"pipelined.dev/chain/frame"
)

// Splitter copies every incoming frame of K bits to two output sockets.
type Splitter struct {
	K int
}

func (s *Splitter) Name() string { return "splitter" }

func (s *Splitter) Inputs() []chain.SocketSpec {
	return []chain.SocketSpec{{Name: "U_K", Kind: chain.Bit, Width: s.K}}
}

func (s *Splitter) Outputs() []chain.SocketSpec {
	return []chain.SocketSpec{
		{Name: "V_K1", Kind: chain.Bit, Width: s.K},
		{Name: "V_K2", Kind: chain.Bit, Width: s.K},
	}
}

func (s *Splitter) Execute(in, out []frame.Floating) error {
	copy(out[0], in[0])
	copy(out[1], in[0])
	return nil
}
