package chain

import (
	"pipelined.dev/chain/frame"
)

// Kind identifies the element type carried by a socket.
type Kind uint8

const (
	// Bit sockets carry hard bits as 0/1 values.
	Bit Kind = iota
	// Real sockets carry real values such as symbols or LLRs.
	Real
)

func (k Kind) String() string {
	switch k {
	case Bit:
		return "bit"
	case Real:
		return "real"
	}
	return "unknown"
}

// SocketSpec describes a named data port of a task. Sockets are matched by
// kind and width when bound.
type SocketSpec struct {
	Name  string
	Kind  Kind
	Width int
}

// Task is an atomic unit of computation. Execute consumes one frame per
// input socket and produces one frame per output socket, both aligned with
// the order of Inputs and Outputs. There is no partial execution: either
// all outputs are written or an error is returned.
//
// A source task has no inputs and returns io.EOF to finish the run
// gracefully. Execute must not retain the passed frames.
type Task interface {
	Name() string
	Inputs() []SocketSpec
	Outputs() []SocketSpec
	Execute(in, out []frame.Floating) error
}
