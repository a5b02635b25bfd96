package mutable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/chain/mutable"
)

func TestMutable(t *testing.T) {
	var immutable mutable.Context
	assert.False(t, immutable.IsMutable())
	assert.True(t, mutable.Mutable().IsMutable())
	assert.Panics(t, func() {
		immutable.Mutate(func() {})
	})
}

func TestMutations(t *testing.T) {
	c1 := mutable.Mutable()
	c2 := mutable.Mutable()
	var v1, v2 int

	var ms mutable.Mutations
	ms = ms.Put(c1.Mutate(func() { v1++ }))
	ms = ms.Put(c1.Mutate(func() { v1++ }))
	ms = ms.Put(c2.Mutate(func() { v2++ }))

	ms.ApplyTo(c1)
	assert.Equal(t, 2, v1)
	assert.Equal(t, 0, v2)

	// mutations are consumed on apply
	ms.ApplyTo(c1)
	assert.Equal(t, 2, v1)

	ms.ApplyTo(c2)
	assert.Equal(t, 1, v2)
}

func TestApply(t *testing.T) {
	c := mutable.Mutable()
	var applied bool
	c.Mutate(func() { applied = true }).Apply()
	assert.True(t, applied)
}
