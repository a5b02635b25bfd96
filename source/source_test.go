package source_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/chain/frame"
	"pipelined.dev/chain/source"
)

func TestRandom(t *testing.T) {
	s := &source.Random{K: 16, Seed: 42}
	out := []frame.Floating{make(frame.Floating, 16)}
	require.NoError(t, s.Execute(nil, out))
	for _, b := range out[0] {
		assert.Contains(t, []float64{0, 1}, b)
	}

	// same seed generates the same bits
	other := &source.Random{K: 16, Seed: 42}
	otherOut := []frame.Floating{make(frame.Floating, 16)}
	require.NoError(t, other.Execute(nil, otherOut))
	assert.Equal(t, out[0], otherOut[0])
}

func TestLimit(t *testing.T) {
	s := &source.Random{K: 4, Limit: 2}
	out := []frame.Floating{make(frame.Floating, 4)}
	require.NoError(t, s.Execute(nil, out))
	require.NoError(t, s.Execute(nil, out))
	assert.Equal(t, io.EOF, s.Execute(nil, out))

	s.Reset()
	require.NoError(t, s.Execute(nil, out))
}
