package sweep

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// Interrupt tracks user interrupts across sweep iterations. The first
// interrupt ends the current iteration, the second one ends the whole
// sweep.
type Interrupt struct {
	count uint64
	point uint64
}

// Trigger registers one interrupt.
func (i *Interrupt) Trigger() {
	atomic.AddUint64(&i.count, 1)
}

// Notify wires Trigger to os.Interrupt signals for the lifetime of the
// process.
func (i *Interrupt) Notify() {
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt)
	go func() {
		for range sig {
			i.Trigger()
		}
	}()
}

// NextPoint marks the start of a new sweep iteration. Interrupts
// registered before this call no longer end the new iteration.
func (i *Interrupt) NextPoint() {
	atomic.StoreUint64(&i.point, atomic.LoadUint64(&i.count))
}

// Requested returns true if an interrupt arrived during the current
// iteration.
func (i *Interrupt) Requested() bool {
	return atomic.LoadUint64(&i.count) > atomic.LoadUint64(&i.point)
}

// Over returns true once two interrupts were registered.
func (i *Interrupt) Over() bool {
	return atomic.LoadUint64(&i.count) >= 2
}
