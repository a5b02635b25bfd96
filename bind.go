package chain

import (
	"fmt"
)

// Bind records that the named input socket of the consumer block reads
// the buffer most recently produced by the named output socket of the
// producer block. Socket kinds and widths must match exactly, an input
// socket may be bound at most once.
func (p *Pipe) Bind(consumer *Block, socket string, producer *Block, producerSocket string) error {
	in := consumer.inlet(socket)
	if in == nil {
		return fmt.Errorf("%w: %s has no input %q", ErrUnknownSocket, consumer.Name(), socket)
	}
	if in.link != nil {
		return fmt.Errorf("%w: %s input %q", ErrSocketBound, consumer.Name(), socket)
	}
	out := producer.outlet(producerSocket)
	if out == nil {
		return fmt.Errorf("%w: %s has no output %q", ErrUnknownSocket, producer.Name(), producerSocket)
	}
	if in.spec.Kind != out.spec.Kind || in.spec.Width != out.spec.Width {
		return fmt.Errorf("%w: %s %q is %v[%d], %s %q is %v[%d]",
			ErrSocketType,
			consumer.Name(), socket, in.spec.Kind, in.spec.Width,
			producer.Name(), producerSocket, out.spec.Kind, out.spec.Width)
	}
	l := &link{
		capacity: consumer.capacity,
		pool:     out.pool,
	}
	out.links = append(out.links, l)
	in.link = l
	consumer.producers = append(consumer.producers, producer)
	return nil
}

func (b *Block) inlet(name string) *inlet {
	for _, in := range b.ins {
		if in.spec.Name == name {
			return in
		}
	}
	return nil
}

func (b *Block) outlet(name string) *outlet {
	for _, o := range b.outs {
		if o.spec.Name == name {
			return o
		}
	}
	return nil
}

// validate checks the assembled graph: every input socket bound, a single
// source block, no cycles and weak connectivity from the source.
func (p *Pipe) validate() error {
	var source *Block
	for _, b := range p.blocks {
		for _, in := range b.ins {
			if in.link == nil {
				return fmt.Errorf("%w: %s input %q", ErrUnboundSocket, b.Name(), in.spec.Name)
			}
		}
		if b.source() {
			if source != nil {
				return fmt.Errorf("%w: %s and %s", ErrMultipleSources, source.Name(), b.Name())
			}
			source = b
		}
	}
	if source == nil {
		return ErrNoSource
	}
	if cycled := p.findCycle(); cycled != nil {
		return fmt.Errorf("%w: %s", ErrCycle, cycled.Name())
	}
	return p.connected(source)
}

// findCycle runs a depth-first search over the producer edges.
func (p *Pipe) findCycle() *Block {
	const (
		white = iota
		grey
		black
	)
	colors := make(map[*Block]int, len(p.blocks))
	var visit func(*Block) *Block
	visit = func(b *Block) *Block {
		colors[b] = grey
		for _, prod := range b.producers {
			switch colors[prod] {
			case grey:
				return prod
			case white:
				if c := visit(prod); c != nil {
					return c
				}
			}
		}
		colors[b] = black
		return nil
	}
	for _, b := range p.blocks {
		if colors[b] == white {
			if c := visit(b); c != nil {
				return c
			}
		}
	}
	return nil
}

// connected verifies that every block is reachable from the source over
// undirected edges.
func (p *Pipe) connected(source *Block) error {
	consumers := make(map[*Block][]*Block, len(p.blocks))
	for _, b := range p.blocks {
		for _, prod := range b.producers {
			consumers[prod] = append(consumers[prod], b)
		}
	}
	seen := map[*Block]bool{source: true}
	queue := []*Block{source}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, next := range append(consumers[b], b.producers...) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	for _, b := range p.blocks {
		if !seen[b] {
			return fmt.Errorf("%w: %s", ErrNotConnected, b.Name())
		}
	}
	return nil
}
