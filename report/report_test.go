package report_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/chain/frame"
	"pipelined.dev/chain/monitor"
	"pipelined.dev/chain/noise"
	"pipelined.dev/chain/report"
)

func TestFinal(t *testing.T) {
	logger, hook := test.NewNullLogger()
	mon := monitor.New(2, 0)
	require.NoError(t, mon.Execute([]frame.Floating{{0, 1}, {1, 1}}, nil))

	noiseRep := &report.Noise{}
	noiseRep.Set(noise.New(1, 0.5, 1, 1))
	term := report.NewTerminal(logger, 0,
		noiseRep,
		&report.BFER{Monitor: mon},
		&report.Throughput{Monitor: mon, K: 2},
	)
	term.StartTemp()
	term.Final()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "done", entry.Message)
	assert.Equal(t, "1.00", entry.Data["ebn0"])
	assert.EqualValues(t, 1, entry.Data["fra"])
	assert.EqualValues(t, 1, entry.Data["fe"])
	assert.Equal(t, "5.000e-01", entry.Data["ber"])
	assert.Equal(t, "1.000e+00", entry.Data["fer"])
	assert.Contains(t, entry.Data, "mbps")
	assert.Contains(t, entry.Data, "elapsed")
}

func TestTemp(t *testing.T) {
	logger, hook := test.NewNullLogger()
	mon := monitor.New(2, 0)
	term := report.NewTerminal(logger, 5*time.Millisecond, &report.BFER{Monitor: mon})

	term.StartTemp()
	time.Sleep(30 * time.Millisecond)
	term.Stop()
	term.Stop()

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	assert.Equal(t, "temp", entries[0].Message)
}

func TestReset(t *testing.T) {
	logger, _ := test.NewNullLogger()
	mon := monitor.New(2, 0)
	thr := &report.Throughput{Monitor: mon, K: 2}
	term := report.NewTerminal(logger, 0, thr)

	thr.Report()
	time.Sleep(time.Millisecond)
	term.Reset()
	fields := thr.Report()
	assert.Contains(t, fields, "elapsed")
}
