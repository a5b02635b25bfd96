// Package report renders live and final simulation results.
package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pipelined.dev/chain/monitor"
	"pipelined.dev/chain/noise"
)

// Reporter provides one group of result fields for a terminal line.
type Reporter interface {
	Report() logrus.Fields
}

// Resetter is implemented by reporters with per-iteration state.
type Resetter interface {
	Reset()
}

// Noise reports the noise value of the current sweep iteration.
type Noise struct {
	mu sync.Mutex
	n  noise.Sigma
}

// Set updates the reported noise value.
func (r *Noise) Set(n noise.Sigma) {
	r.mu.Lock()
	r.n = n
	r.mu.Unlock()
}

func (r *Noise) Report() logrus.Fields {
	r.mu.Lock()
	defer r.mu.Unlock()
	return logrus.Fields{
		"ebn0":  fmt.Sprintf("%.2f", r.n.EbN0),
		"esn0":  fmt.Sprintf("%.2f", r.n.EsN0),
		"sigma": fmt.Sprintf("%.4f", r.n.Sigma),
	}
}

// BFER reports the error counters of the monitor.
type BFER struct {
	Monitor *monitor.BFER
}

func (r *BFER) Report() logrus.Fields {
	return logrus.Fields{
		"fra": r.Monitor.Frames(),
		"be":  r.Monitor.BitErrors(),
		"fe":  r.Monitor.FrameErrors(),
		"ber": fmt.Sprintf("%.3e", r.Monitor.BER()),
		"fer": fmt.Sprintf("%.3e", r.Monitor.FER()),
	}
}

// Throughput reports the information throughput since the last reset.
type Throughput struct {
	Monitor *monitor.BFER
	K       int

	mu      sync.Mutex
	started time.Time
}

func (r *Throughput) Report() logrus.Fields {
	r.mu.Lock()
	started := r.started
	if started.IsZero() {
		started = time.Now()
		r.started = started
	}
	r.mu.Unlock()
	elapsed := time.Since(started)
	var mbps float64
	if s := elapsed.Seconds(); s > 0 {
		mbps = float64(r.Monitor.Frames()*uint64(r.K)) / s / 1e6
	}
	return logrus.Fields{
		"mbps":    fmt.Sprintf("%.3f", mbps),
		"elapsed": elapsed.Round(time.Millisecond).String(),
	}
}

// Reset restarts the throughput clock.
func (r *Throughput) Reset() {
	r.mu.Lock()
	r.started = time.Now()
	r.mu.Unlock()
}

// Terminal periodically logs intermediate results of the running
// iteration and a final line when the iteration completes.
type Terminal struct {
	log       *logrus.Logger
	interval  time.Duration
	reporters []Reporter

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// NewTerminal creates a terminal logging to l every interval. Zero
// interval disables intermediate lines.
func NewTerminal(l *logrus.Logger, interval time.Duration, reporters ...Reporter) *Terminal {
	return &Terminal{
		log:       l,
		interval:  interval,
		reporters: reporters,
	}
}

// StartTemp starts periodic reporting of intermediate results.
func (t *Terminal) StartTemp() {
	if t.interval <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		return
	}
	t.done = make(chan struct{})
	done := t.done
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.log.WithFields(t.fields()).Info("temp")
			case <-done:
				return
			}
		}
	}()
}

// Stop ends periodic reporting. Safe to call multiple times.
func (t *Terminal) Stop() {
	t.mu.Lock()
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
	t.mu.Unlock()
	t.wg.Wait()
}

// Final stops periodic reporting and logs the final line of the
// iteration.
func (t *Terminal) Final() {
	t.Stop()
	t.log.WithFields(t.fields()).Info("done")
}

// Reset prepares the terminal for the next iteration.
func (t *Terminal) Reset() {
	for _, r := range t.reporters {
		if res, ok := r.(Resetter); ok {
			res.Reset()
		}
	}
}

func (t *Terminal) fields() logrus.Fields {
	fields := logrus.Fields{}
	for _, r := range t.reporters {
		for k, v := range r.Report() {
			fields[k] = v
		}
	}
	return fields
}
