// Package mutable provides identities for components whose configuration
// can be changed between pipeline runs. A mutation associates a mutator
// function with the component it belongs to, so reconfiguration can be
// collected first and applied later, at a moment when no worker executes.
package mutable

import "crypto/rand"

// zero value for context is immutable.
var immutable = Context{}

type (
	// Context can be embedded to make a component mutable.
	Context [16]byte

	// Func mutates the component.
	Func func()

	// Mutation is a mutator function bound to a mutable context.
	Mutation struct {
		Context
		fn Func
	}

	// Mutations is a set of mutator functions mapped to their contexts.
	Mutations map[Context][]Func
)

// Mutable returns a new mutable context.
func Mutable() Context {
	var id [16]byte
	rand.Read(id[:])
	return id
}

// IsMutable returns true if the context belongs to a mutable component.
func (c Context) IsMutable() bool {
	return c != immutable
}

// Mutate binds the provided mutator to the context.
func (c Context) Mutate(fn Func) Mutation {
	if c == immutable {
		panic("mutate immutable")
	}
	return Mutation{
		Context: c,
		fn:      fn,
	}
}

// Apply executes the mutator.
func (m Mutation) Apply() {
	m.fn()
}

// Put adds the mutation to the set.
func (ms Mutations) Put(m Mutation) Mutations {
	if m.Context == immutable {
		return ms
	}
	if ms == nil {
		return map[Context][]Func{m.Context: {m.fn}}
	}
	ms[m.Context] = append(ms[m.Context], m.fn)
	return ms
}

// ApplyTo executes and consumes all mutations bound to the provided
// context.
func (ms Mutations) ApplyTo(c Context) {
	if ms == nil || c == immutable {
		return
	}
	if fns, ok := ms[c]; ok {
		for _, fn := range fns {
			fn()
		}
		delete(ms, c)
	}
}
