package chain_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/chain"
	"pipelined.dev/chain/internal/mock"
)

const width = 8

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBindingFail(t *testing.T) {
	testBinding := func(expected error, bind func(p *chain.Pipe) error) func(*testing.T) {
		return func(t *testing.T) {
			t.Helper()
			p := chain.New()
			err := bind(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, expected), err.Error())
		}
	}
	t.Run("unknown input", testBinding(chain.ErrUnknownSocket,
		func(p *chain.Pipe) error {
			src := p.Add(&mock.Source{Width: width})
			sink := p.Add(&mock.Sink{Width: width})
			return p.Bind(sink, "bogus", src, "out")
		},
	))
	t.Run("unknown output", testBinding(chain.ErrUnknownSocket,
		func(p *chain.Pipe) error {
			src := p.Add(&mock.Source{Width: width})
			sink := p.Add(&mock.Sink{Width: width})
			return p.Bind(sink, "in", src, "bogus")
		},
	))
	t.Run("double bind", testBinding(chain.ErrSocketBound,
		func(p *chain.Pipe) error {
			src := p.Add(&mock.Source{Width: width})
			sink := p.Add(&mock.Sink{Width: width})
			if err := p.Bind(sink, "in", src, "out"); err != nil {
				return err
			}
			return p.Bind(sink, "in", src, "out")
		},
	))
	t.Run("width mismatch", testBinding(chain.ErrSocketType,
		func(p *chain.Pipe) error {
			src := p.Add(&mock.Source{Width: width})
			sink := p.Add(&mock.Sink{Width: width * 2})
			return p.Bind(sink, "in", src, "out")
		},
	))
}

func TestValidateFail(t *testing.T) {
	testValidate := func(expected error, build func(p *chain.Pipe)) func(*testing.T) {
		return func(t *testing.T) {
			t.Helper()
			p := chain.New()
			build(p)
			_, err := p.Run(context.Background(), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, expected), err.Error())
		}
	}
	t.Run("unbound input", testValidate(chain.ErrUnboundSocket,
		func(p *chain.Pipe) {
			p.Add(&mock.Source{Width: width})
			p.Add(&mock.Sink{Width: width})
		},
	))
	t.Run("no source", testValidate(chain.ErrNoSource,
		func(p *chain.Pipe) {
			a := p.Add(&mock.Processor{Width: width})
			b := p.Add(&mock.Processor{Width: width})
			require.NoError(t, p.Bind(a, "in", b, "out"))
			require.NoError(t, p.Bind(b, "in", a, "out"))
		},
	))
	t.Run("cycle", testValidate(chain.ErrCycle,
		func(p *chain.Pipe) {
			p.Add(&mock.Source{Width: width})
			a := p.Add(&mock.Processor{Width: width})
			b := p.Add(&mock.Processor{Width: width})
			require.NoError(t, p.Bind(a, "in", b, "out"))
			require.NoError(t, p.Bind(b, "in", a, "out"))
		},
	))
	t.Run("multiple sources", testValidate(chain.ErrMultipleSources,
		func(p *chain.Pipe) {
			src := p.Add(&mock.Source{Width: width, Limit: 1})
			sink := p.Add(&mock.Sink{Width: width})
			require.NoError(t, p.Bind(sink, "in", src, "out"))
			p.Add(&mock.Source{Width: width})
		},
	))
}

func TestSimple(t *testing.T) {
	source := &mock.Source{Width: width, Limit: 10}
	proc := &mock.Processor{Width: width, Op: func(v float64) float64 { return v }}
	sink := &mock.Sink{Width: width}

	p := chain.New()
	bSrc := p.Add(source)
	bProc := p.Add(proc)
	bSink := p.Add(sink)
	require.NoError(t, p.Bind(bProc, "in", bSrc, "out"))
	require.NoError(t, p.Bind(bSink, "in", bProc, "out"))

	run, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, run.Wait())

	assert.Equal(t, 10, source.Messages())
	assert.Equal(t, 10, proc.Messages())
	assert.Equal(t, 10, sink.Messages())
	// single worker keeps frames in emission order
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sink.Values())
}

func TestFork(t *testing.T) {
	source := &mock.Source{Width: width, Limit: 10}
	sink1 := &mock.Sink{Width: width}
	sink2 := &mock.Sink{Width: width}

	p := chain.New()
	bSrc := p.Add(source)
	bSink1 := p.Add(sink1)
	bSink2 := p.Add(sink2)
	require.NoError(t, p.Bind(bSink1, "in", bSrc, "out"))
	require.NoError(t, p.Bind(bSink2, "in", bSrc, "out"))

	run, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, run.Wait())

	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sink1.Values())
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sink2.Values())
}

func TestWorkers(t *testing.T) {
	source := &mock.Source{Width: width, Limit: 100}
	proc := &mock.Processor{Width: width}
	sink := &mock.Sink{Width: width}

	p := chain.New()
	bSrc := p.Add(source)
	bProc := p.Add(proc, chain.Workers(4))
	bSink := p.Add(sink)
	require.NoError(t, p.Bind(bProc, "in", bSrc, "out"))
	require.NoError(t, p.Bind(bSink, "in", bProc, "out"))

	run, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, run.Wait())

	// concurrent workers may reorder frames but must not drop or
	// duplicate them
	got := sink.Values()
	sort.Float64s(got)
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, float64(i), v)
	}
}

func TestEarlyStop(t *testing.T) {
	source := &mock.Source{Width: width}
	sink := &mock.Sink{Width: width}

	p := chain.New()
	bSrc := p.Add(source)
	bSink := p.Add(sink)
	require.NoError(t, p.Bind(bSink, "in", bSrc, "out"))

	stop := func() bool {
		return sink.Messages() >= 5
	}
	run, err := p.Run(context.Background(), stop)
	require.NoError(t, err)
	require.NoError(t, run.Wait())

	// every frame accepted before the stop must reach the sink
	assert.GreaterOrEqual(t, sink.Messages(), 5)
	assert.Equal(t, source.Messages(), sink.Messages())
}

func TestExecutionError(t *testing.T) {
	errBoom := errors.New("boom")
	source := &mock.Source{Width: width}
	proc := &mock.Processor{Width: width, ErrorOnCall: errBoom, FailAfter: 3}
	sink := &mock.Sink{Width: width}

	p := chain.New()
	bSrc := p.Add(source)
	bProc := p.Add(proc)
	bSink := p.Add(sink)
	require.NoError(t, p.Bind(bProc, "in", bSrc, "out"))
	require.NoError(t, p.Bind(bSink, "in", bProc, "out"))

	run, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	err = run.Wait()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom), err.Error())
}

func TestBackpressure(t *testing.T) {
	const capacity = 2
	source := &mock.Source{Width: width, Limit: 50}
	sink := &mock.Sink{Width: width, Gate: make(chan struct{})}

	p := chain.New(chain.WithCapacity(capacity))
	bSrc := p.Add(source)
	bSink := p.Add(sink)
	require.NoError(t, p.Bind(bSink, "in", bSrc, "out"))

	run, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	// with the sink gated the source may fill the buffer and hold one
	// frame in flight, the sink holds one more
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, source.Messages(), capacity+2)

	close(sink.Gate)
	require.NoError(t, run.Wait())
	assert.Equal(t, 50, sink.Messages())
}

func TestReset(t *testing.T) {
	source := &mock.Source{Width: width, Limit: 10}
	sink := &mock.Sink{Width: width}

	p := chain.New()
	bSrc := p.Add(source)
	bSink := p.Add(sink)
	require.NoError(t, p.Bind(bSink, "in", bSrc, "out"))

	run, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, run.Wait())
	assert.Equal(t, 10, sink.Messages())

	// run again is not possible until the pipe is reset
	_, err = p.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, chain.ErrInvalidState))

	require.NoError(t, p.Reset())
	source.Reset()
	run, err = p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, run.Wait())
	assert.Equal(t, 20, sink.Messages())
	assert.EqualValues(t, 10, bSrc.Stats().Executions)
	assert.EqualValues(t, 10, bSink.Stats().Executions)
}

func TestContextCancel(t *testing.T) {
	source := &mock.Source{Width: width, Interval: time.Millisecond}
	sink := &mock.Sink{Width: width}

	p := chain.New()
	bSrc := p.Add(source)
	bSink := p.Add(sink)
	require.NoError(t, p.Bind(bSink, "in", bSrc, "out"))

	ctx, cancel := context.WithCancel(context.Background())
	run, err := p.Run(ctx, nil)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	cancel()
	require.NoError(t, run.Wait())
}
