package chain

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/xid"

	"pipelined.dev/chain/frame"
	"pipelined.dev/chain/metric"
)

type (
	// Block wraps a single task into a concurrently-runnable pipeline
	// stage. It owns the bounded buffers of its input bindings and a pool
	// of workers which repeatedly fetch one frame per bound input socket,
	// execute the task and publish the outputs for downstream consumers.
	Block struct {
		id       string
		task     Task
		capacity int
		workers  int

		ins       []*inlet
		outs      []*outlet
		producers []*Block

		// recvMu makes the multi-socket fetch atomic so that frames of
		// the same execution stay aligned across input sockets.
		recvMu sync.Mutex
		// sendMu makes the multi-socket publish atomic.
		sendMu sync.Mutex

		executions uint64
		busy       int64

		meter metric.ResetFunc
		pipe  *Pipe
	}

	// inlet is an input socket of the block's task together with its
	// binding.
	inlet struct {
		spec SocketSpec
		link *link
	}

	// outlet is an output socket of the block's task together with the
	// bindings of its consumers.
	outlet struct {
		spec  SocketSpec
		pool  *frame.Pool
		links []*link
	}

	// link is a binding edge: a bounded buffer between a producer socket
	// and a consumer socket. Frames taken from the buffer are returned to
	// the producer's pool after execution.
	link struct {
		ch       chan frame.Floating
		capacity int
		pool     *frame.Pool
	}
)

// Stats describes per-run execution statistics of a block.
type Stats struct {
	Executions uint64
	Busy       time.Duration
}

func newBlock(p *Pipe, t Task, capacity, workers int) *Block {
	b := &Block{
		id:       xid.New().String(),
		task:     t,
		capacity: capacity,
		workers:  workers,
		meter:    metric.Meter(t.Name()),
		pipe:     p,
	}
	for _, spec := range t.Inputs() {
		b.ins = append(b.ins, &inlet{spec: spec})
	}
	for _, spec := range t.Outputs() {
		b.outs = append(b.outs, &outlet{spec: spec, pool: frame.NewPool(spec.Width)})
	}
	return b
}

// ID returns the unique id of the block.
func (b *Block) ID() string {
	return b.id
}

// Name returns the name of the wrapped task.
func (b *Block) Name() string {
	return b.task.Name()
}

// Stats returns execution statistics accumulated since the last reset.
func (b *Block) Stats() Stats {
	return Stats{
		Executions: atomic.LoadUint64(&b.executions),
		Busy:       time.Duration(atomic.LoadInt64(&b.busy)),
	}
}

func (b *Block) resetStats() {
	atomic.StoreUint64(&b.executions, 0)
	atomic.StoreInt64(&b.busy, 0)
}

// source returns true if the block's task declares no input sockets.
func (b *Block) source() bool {
	return len(b.ins) == 0
}

// run starts the block workers. The returned channel carries worker
// errors and is closed once all workers exited and the output buffers are
// closed for downstream consumers.
func (b *Block) run(ctx context.Context, stop func() bool) <-chan error {
	errc := make(chan error, b.workers)
	var wg sync.WaitGroup
	wg.Add(b.workers)
	for i := 0; i < b.workers; i++ {
		go func() {
			defer wg.Done()
			if err := b.work(ctx, stop); err != io.EOF {
				errc <- fmt.Errorf("block %s: %w", b.task.Name(), err)
			}
		}()
	}
	go func() {
		wg.Wait()
		b.closeOutputs()
		close(errc)
	}()
	return errc
}

// work is a single worker loop. It returns io.EOF on graceful completion:
// upstream buffers drained, stop requested or context done.
func (b *Block) work(ctx context.Context, stop func() bool) error {
	measure := b.meter()
	elements := b.elements()
	for {
		in, ok := b.receive(ctx, stop)
		if !ok {
			return io.EOF
		}
		out := b.allocOutputs()
		start := time.Now()
		err := b.task.Execute(in, out)
		atomic.AddInt64(&b.busy, int64(time.Since(start)))
		if err != nil {
			b.release(in)
			b.free(out)
			if err == io.EOF {
				return io.EOF
			}
			return err
		}
		atomic.AddUint64(&b.executions, 1)
		measure(elements)
		b.dump(in, out)
		b.release(in)
		if !b.publish(ctx, out) {
			return io.EOF
		}
	}
}

// receive fetches one frame per bound input socket. For a source block it
// only observes the stop predicate - this is the cancellation point of the
// whole pipeline. The boolean is false when the worker should exit.
func (b *Block) receive(ctx context.Context, stop func() bool) ([]frame.Floating, bool) {
	if b.source() {
		if stop != nil && stop() {
			return nil, false
		}
		select {
		case <-ctx.Done():
			return nil, false
		default:
		}
		return nil, true
	}

	b.recvMu.Lock()
	defer b.recvMu.Unlock()
	in := make([]frame.Floating, len(b.ins))
	for i, inlet := range b.ins {
		select {
		case f, ok := <-inlet.link.ch:
			if !ok {
				b.release(in[:i])
				return nil, false
			}
			in[i] = f
		case <-ctx.Done():
			b.release(in[:i])
			return nil, false
		}
	}
	return in, true
}

// publish sends every output frame to all bound consumers. Additional
// consumers of the same socket receive pooled copies. It returns false if
// the context was canceled mid-publish.
func (b *Block) publish(ctx context.Context, out []frame.Floating) bool {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	for i, o := range b.outs {
		f := out[i]
		if len(o.links) == 0 {
			o.pool.Put(f)
			continue
		}
		for j, l := range o.links {
			buf := f
			if j > 0 {
				buf = o.pool.Clone(f)
			}
			select {
			case l.ch <- buf:
			case <-ctx.Done():
				o.pool.Put(buf)
				return false
			}
		}
	}
	return true
}

func (b *Block) allocOutputs() []frame.Floating {
	if len(b.outs) == 0 {
		return nil
	}
	out := make([]frame.Floating, len(b.outs))
	for i, o := range b.outs {
		out[i] = o.pool.Get()
	}
	return out
}

// release returns input frames to their producer pools.
func (b *Block) release(in []frame.Floating) {
	for i, f := range in {
		if f != nil {
			b.ins[i].link.pool.Put(f)
		}
	}
}

func (b *Block) free(out []frame.Floating) {
	for i, f := range out {
		if f != nil {
			b.outs[i].pool.Put(f)
		}
	}
}

func (b *Block) closeOutputs() {
	for _, o := range b.outs {
		for _, l := range o.links {
			close(l.ch)
		}
	}
}

// elements returns the number of frame elements of a single execution,
// used for throughput counters. Sinks count consumed elements instead.
func (b *Block) elements() int64 {
	var n int64
	for _, o := range b.outs {
		n += int64(o.spec.Width)
	}
	if n == 0 {
		for _, i := range b.ins {
			n += int64(i.spec.Width)
		}
	}
	return n
}

// dump logs socket values when the pipe runs in debug mode. Frames are
// truncated to the configured element limit.
func (b *Block) dump(in, out []frame.Floating) {
	if b.pipe.debug <= 0 {
		return
	}
	for i, f := range in {
		b.dumpSocket("in", b.ins[i].spec, f)
	}
	for i, f := range out {
		b.dumpSocket("out", b.outs[i].spec, f)
	}
}

func (b *Block) dumpSocket(dir string, spec SocketSpec, f frame.Floating) {
	n := b.pipe.debug
	if n > f.Length() {
		n = f.Length()
	}
	b.pipe.log.Debugf("%s %s %s: %s", b.task.Name(), dir, spec.Name, spew.Sdump([]float64(f[:n])))
}
