package chain

import "errors"

var (
	// ErrInvalidState is returned if a pipe method cannot be executed at
	// this moment.
	ErrInvalidState = errors.New("invalid pipe state")
	// ErrUnknownSocket is returned when a binding names a socket the task
	// does not declare.
	ErrUnknownSocket = errors.New("unknown socket")
	// ErrSocketBound is returned when an input socket is bound twice.
	ErrSocketBound = errors.New("socket already bound")
	// ErrSocketType is returned when kinds or widths of bound sockets
	// differ.
	ErrSocketType = errors.New("socket type mismatch")
	// ErrUnboundSocket is returned when an input socket was left unbound.
	ErrUnboundSocket = errors.New("unbound input socket")
	// ErrNoSource is returned when no block without inputs exists.
	ErrNoSource = errors.New("no source block")
	// ErrMultipleSources is returned when more than one block has no
	// inputs.
	ErrMultipleSources = errors.New("multiple source blocks")
	// ErrCycle is returned when bindings form a cycle.
	ErrCycle = errors.New("cyclic binding")
	// ErrNotConnected is returned when a block is not reachable from the
	// source.
	ErrNotConnected = errors.New("block not connected to source")
)
