/*
Package chain allows to build and execute pipelined task graphs.

Concept

A chain is a directed acyclic graph of tasks. Each task declares named,
typed input and output sockets and a single synchronous execute operation
that consumes all inputs and produces all outputs. Tasks are wrapped into
blocks - the unit of concurrency. Every block owns bounded input buffers
and a configurable number of workers, so the whole graph executes as a
pipeline: frames flow from the single source block through bindings to one
or more sink blocks, with backpressure applied through the bounded buffers.

Binding

Graph edges are declared per input socket:

	p := chain.New(chain.WithCapacity(16))
	a := p.Add(sourceTask)
	b := p.Add(processTask)
	err := p.Bind(b, "in", a, "out")

Socket kinds and widths of both ends must match exactly, every input
socket must be bound exactly once and the resulting graph must be acyclic
and reachable from a single source block. Validation happens once, before
the first run.

Execution

Run starts all block workers and returns immediately:

	r, err := p.Run(ctx, stop)
	err = r.Wait()
	err = p.Reset()

Workers run until the source task returns io.EOF, the stop predicate
becomes true or the context is done. The stop predicate is observed at the
source acquisition point only, so frames already accepted into the
pipeline are drained, not dropped. A task failure cancels the run context
and surfaces through Wait. Reset discards buffered frames and per-run
statistics and must be called between runs.
*/
package chain
