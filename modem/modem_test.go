package modem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/chain/frame"
	"pipelined.dev/chain/modem"
	"pipelined.dev/chain/noise"
)

func TestModulator(t *testing.T) {
	m := &modem.Modulator{N: 4}
	in := []frame.Floating{{0, 1, 1, 0}}
	out := []frame.Floating{make(frame.Floating, 4)}
	require.NoError(t, m.Execute(in, out))
	assert.Equal(t, frame.Floating{1, -1, -1, 1}, out[0])
}

func TestDemodulator(t *testing.T) {
	d := modem.NewDemodulator(2)
	assert.True(t, d.IsMutable())
	d.SetNoise(noise.Sigma{Sigma: 2}).Apply()

	in := []frame.Floating{{1, -1}}
	out := []frame.Floating{make(frame.Floating, 2)}
	require.NoError(t, d.Execute(in, out))
	assert.InDelta(t, 0.5, out[0][0], 1e-9)
	assert.InDelta(t, -0.5, out[0][1], 1e-9)
}

func TestDemodulatorNoiseless(t *testing.T) {
	d := modem.NewDemodulator(2)
	in := []frame.Floating{{1, -1}}
	out := []frame.Floating{make(frame.Floating, 2)}
	require.NoError(t, d.Execute(in, out))
	assert.Equal(t, in[0], out[0])
}
