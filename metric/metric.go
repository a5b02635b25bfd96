// Package metric publishes per-task execution counters through expvar.
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const tasksLabel = "chain.tasks"

const (
	// ExecutionCounter measures number of task executions.
	ExecutionCounter = "Executions"
	// ElementCounter measures number of produced frame elements.
	ElementCounter = "Elements"
	// LatencyCounter measures latency between executions.
	LatencyCounter = "Latency"
	// DurationCounter measures total time spent inside the task.
	DurationCounter = "Duration"
	// BlockCounter counts blocks executing the task.
	BlockCounter = "Blocks"
)

var (
	tasks = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		ExecutionCounter,
		ElementCounter,
		LatencyCounter,
		DurationCounter,
		BlockCounter,
	}
)

// Get returns counter values for the provided task name.
func Get(taskName string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(taskName, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns a new measure closure. The closure is created when a
// block worker starts, so latency is not skewed by setup time.
type ResetFunc func() MeasureFunc

// MeasureFunc captures counters when a frame is executed.
type MeasureFunc func(elements int64)

// Meter creates a new meter closure to capture counters of a task.
func Meter(taskName string) ResetFunc {
	metric := tasks.get(taskName)
	metric.blocks.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		return func(elements int64) {
			metric.latency.set(time.Since(calledAt))
			metric.executions.Add(1)
			metric.elements.Add(elements)
			metric.duration.add(time.Since(calledAt))
			calledAt = time.Now()
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(taskName string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[taskName]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(taskName)
	m.m[taskName] = metric
	return metric
}

type metric struct {
	key        string
	blocks     *expvar.Int
	executions *expvar.Int
	elements   *expvar.Int
	latency    *duration
	duration   *duration
}

func newMetric(taskName string) metric {
	m := metric{
		key:        taskName,
		blocks:     expvar.NewInt(key(taskName, BlockCounter)),
		executions: expvar.NewInt(key(taskName, ExecutionCounter)),
		elements:   expvar.NewInt(key(taskName, ElementCounter)),
		latency:    &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(taskName, LatencyCounter), m.latency)
	expvar.Publish(key(taskName, DurationCounter), m.duration)
	return m
}

func key(taskName, counter string) string {
	return fmt.Sprintf("%s.%s.%s", tasksLabel, taskName, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
