package chain

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/chain/frame"
	"pipelined.dev/chain/mutable"
)

// pipe states
const (
	stateReady int32 = iota
	stateRunning
	stateDone
)

const (
	defaultCapacity = 16
	defaultWorkers  = 1
)

// Pipe is an assembled graph of blocks. It has a single source block and
// one or more sink blocks.
type Pipe struct {
	uid      string
	capacity int
	workers  int
	debug    int
	log      *logrus.Logger

	blocks []*Block

	state        int32
	built        bool
	validateOnce sync.Once
	validateErr  error
}

// Option provides a way to set functional parameters to the pipe.
type Option func(*Pipe)

// WithCapacity sets the default input buffer capacity for all blocks.
func WithCapacity(capacity int) Option {
	return func(p *Pipe) {
		p.capacity = capacity
	}
}

// WithWorkers sets the default worker count for all blocks.
func WithWorkers(workers int) Option {
	return func(p *Pipe) {
		p.workers = workers
	}
}

// WithLogger sets logger to the pipe. If this option is not provided,
// a silent logger is used.
func WithLogger(l *logrus.Logger) Option {
	return func(p *Pipe) {
		p.log = l
	}
}

// WithDebug enables frame dumps truncated to limit elements per socket.
func WithDebug(limit int) Option {
	return func(p *Pipe) {
		p.debug = limit
	}
}

// New creates a new empty pipe and applies provided options.
func New(options ...Option) *Pipe {
	p := &Pipe{
		uid:      xid.New().String(),
		capacity: defaultCapacity,
		workers:  defaultWorkers,
		log:      silentLogger(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// BlockOption overrides pipe defaults for a single block.
type BlockOption func(*Block)

// Capacity overrides the input buffer capacity of the block.
func Capacity(capacity int) BlockOption {
	return func(b *Block) {
		b.capacity = capacity
	}
}

// Workers overrides the worker count of the block.
func Workers(workers int) BlockOption {
	return func(b *Block) {
		b.workers = workers
	}
}

// Add wraps the task into a new block of this pipe.
func (p *Pipe) Add(t Task, options ...BlockOption) *Block {
	b := newBlock(p, t, p.capacity, p.workers)
	for _, option := range options {
		option(b)
	}
	p.blocks = append(p.blocks, b)
	return b
}

// Blocks returns pipe blocks in the order they were added.
func (p *Pipe) Blocks() []*Block {
	return p.blocks
}

// Run is a handle of a single pipe execution.
type Run struct {
	errc <-chan error
}

// Run starts all block workers. The stop predicate is observed by the
// source block at every acquisition point; frames accepted before the
// predicate became true are still drained through the graph. Initializer
// mutations are applied before any worker starts, so no task executes
// with partially-updated configuration.
//
// The graph is validated once, before the first run.
func (p *Pipe) Run(ctx context.Context, stop func() bool, initializers ...mutable.Mutation) (*Run, error) {
	p.validateOnce.Do(func() {
		p.validateErr = p.validate()
	})
	if p.validateErr != nil {
		return nil, p.validateErr
	}
	if !atomic.CompareAndSwapInt32(&p.state, stateReady, stateRunning) {
		return nil, ErrInvalidState
	}
	p.build()
	for _, m := range initializers {
		m.Apply()
	}

	ctx, cancel := context.WithCancel(ctx)
	merger := &errorMerger{errorChan: make(chan error, 1)}
	for _, b := range p.blocks {
		merger.add(b.run(ctx, stop))
	}
	go merger.wait()

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		// merger has buffer of one error, if more errors happen, they
		// will be ignored.
		if err, ok := <-merger.errorChan; ok {
			cancel()
			merger.drain()
			errc <- err
		}
		cancel()
		atomic.StoreInt32(&p.state, stateDone)
		p.log.Debugf("pipe %s is done", p.uid)
	}()
	return &Run{errc: errc}, nil
}

// Wait blocks until all workers of all blocks exited. It returns the
// first error occurred during the run.
func (r *Run) Wait() error {
	for err := range r.errc {
		if err != nil {
			return err
		}
	}
	return nil
}

// Reset discards buffered frames and per-run statistics of every block.
// It must not be called while the pipe is running.
func (p *Pipe) Reset() error {
	if atomic.LoadInt32(&p.state) == stateRunning {
		return ErrInvalidState
	}
	p.built = false
	p.build()
	for _, b := range p.blocks {
		b.resetStats()
	}
	atomic.StoreInt32(&p.state, stateReady)
	return nil
}

// build creates fresh binding buffers, discarding leftover frames of the
// previous run.
func (p *Pipe) build() {
	if p.built {
		return
	}
	for _, b := range p.blocks {
		for _, o := range b.outs {
			for _, l := range o.links {
				l.drain()
				l.ch = make(chan frame.Floating, l.capacity)
			}
		}
	}
	p.built = true
}

// drain frees all frames left in the buffer.
func (l *link) drain() {
	if l.ch == nil {
		return
	}
	for {
		select {
		case f, ok := <-l.ch:
			if !ok {
				return
			}
			l.pool.Put(f)
		default:
			return
		}
	}
}

// String returns the pipe uid.
func (p *Pipe) String() string {
	return p.uid
}

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discard{})
	return l
}

type discard struct{}

func (discard) Write(b []byte) (int, error) {
	return len(b), nil
}
