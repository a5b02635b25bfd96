package metric_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/chain/metric"
)

func TestMeter(t *testing.T) {
	meter := metric.Meter("metric-test-task")
	measure := meter()
	measure(64)
	measure(64)

	values := metric.Get("metric-test-task")
	assert.Equal(t, "1", values[metric.BlockCounter])
	assert.Equal(t, "2", values[metric.ExecutionCounter])
	assert.Equal(t, "128", values[metric.ElementCounter])
	assert.NotEmpty(t, values[metric.LatencyCounter])
	assert.NotEmpty(t, values[metric.DurationCounter])
}

func TestMeterReuse(t *testing.T) {
	// a second meter of the same task must reuse the published counters
	metric.Meter("metric-reuse-task")
	assert.NotPanics(t, func() {
		metric.Meter("metric-reuse-task")
	})
	values := metric.Get("metric-reuse-task")
	assert.Equal(t, "2", values[metric.BlockCounter])
}
