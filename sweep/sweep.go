// Package sweep runs a pipe over a range of noise values. Every
// iteration reconfigures the noise-dependent tasks, executes the pipe
// until the monitor limit is achieved and resets all stateful components
// for the next iteration.
package sweep

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pipelined.dev/chain"
	"pipelined.dev/chain/monitor"
	"pipelined.dev/chain/mutable"
	"pipelined.dev/chain/noise"
	"pipelined.dev/chain/report"
)

// Range describes the swept Eb/N0 values in dB.
type Range struct {
	Min  float64
	Max  float64
	Step float64
}

// Values enumerates the range, both bounds inclusive.
func (r Range) Values() ([]float64, error) {
	if r.Step <= 0 {
		return nil, errors.New("sweep: non-positive step")
	}
	var values []float64
	// small tolerance keeps Max inclusive despite accumulation error
	for v := r.Min; v <= r.Max+1e-9; v += r.Step {
		values = append(values, v)
	}
	return values, nil
}

// Noiser is a mutable task reconfigured with the noise value of every
// iteration.
type Noiser interface {
	SetNoise(noise.Sigma) mutable.Mutation
}

// Resetter is a component with per-iteration state.
type Resetter interface {
	Reset()
}

// Config assembles everything the controller needs.
type Config struct {
	Pipe    *chain.Pipe
	Monitor *monitor.BFER
	Range   Range

	// code and modulation parameters for sigma derivation
	Rate          float64
	BitsPerSymbol int
	Upsample      int

	Noisers   []Noiser
	Resetters []Resetter

	Terminal      *report.Terminal
	NoiseReporter *report.Noise
	Interrupt     *Interrupt
	Log           *logrus.Logger
}

func (c Config) validate() error {
	if c.Pipe == nil {
		return errors.New("sweep: nil pipe")
	}
	if c.Monitor == nil {
		return errors.New("sweep: nil monitor")
	}
	if _, err := c.Range.Values(); err != nil {
		return err
	}
	if c.Rate <= 0 || c.Rate > 1 {
		return errors.New("sweep: code rate out of (0, 1]")
	}
	if c.BitsPerSymbol <= 0 {
		return errors.New("sweep: non-positive bits per symbol")
	}
	if c.Upsample <= 0 {
		return errors.New("sweep: non-positive upsample factor")
	}
	return nil
}

// Controller executes the sweep.
type Controller struct {
	cfg Config
}

// New validates the configuration and creates a controller.
func New(cfg Config) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Interrupt == nil {
		cfg.Interrupt = &Interrupt{}
	}
	if cfg.Log == nil {
		cfg.Log = logrus.New()
		cfg.Log.SetLevel(logrus.PanicLevel)
	}
	return &Controller{cfg: cfg}, nil
}

// Run executes one pipe run per noise value. A single interrupt skips to
// the next value, a second interrupt ends the sweep. The returned error
// is the first task failure, if any.
func (c *Controller) Run(ctx context.Context) error {
	values, err := c.cfg.Range.Values()
	if err != nil {
		return err
	}
	for _, ebn0 := range values {
		if c.cfg.Interrupt.Over() || ctx.Err() != nil {
			break
		}
		if err := c.runPoint(ctx, ebn0); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (c *Controller) runPoint(ctx context.Context, ebn0 float64) error {
	n := noise.New(ebn0, c.cfg.Rate, c.cfg.BitsPerSymbol, c.cfg.Upsample)
	c.cfg.Log.WithFields(logrus.Fields{
		"ebn0":  n.EbN0,
		"esn0":  n.EsN0,
		"sigma": n.Sigma,
	}).Debug("sweep iteration")

	mutations := make([]mutable.Mutation, 0, len(c.cfg.Noisers))
	for _, noiser := range c.cfg.Noisers {
		mutations = append(mutations, noiser.SetNoise(n))
	}
	if c.cfg.NoiseReporter != nil {
		c.cfg.NoiseReporter.Set(n)
	}
	c.cfg.Interrupt.NextPoint()

	var done, finished atomic.Bool
	run, err := c.cfg.Pipe.Run(ctx, done.Load, mutations...)
	if err != nil {
		return err
	}
	if c.cfg.Terminal != nil {
		c.cfg.Terminal.StartTemp()
	}

	var g errgroup.Group
	g.Go(func() error {
		defer finished.Store(true)
		return run.Wait()
	})

	// watchdog: poll until the run ends on its own, the monitor limit is
	// achieved, an interrupt arrives or the context is canceled
	for !finished.Load() &&
		!c.cfg.Monitor.LimitAchieved() &&
		!c.cfg.Interrupt.Requested() &&
		ctx.Err() == nil {
		runtime.Gosched()
	}
	done.Store(true)

	err = g.Wait()
	for _, b := range c.cfg.Pipe.Blocks() {
		stats := b.Stats()
		c.cfg.Log.WithFields(logrus.Fields{
			"executions": stats.Executions,
			"busy":       stats.Busy.String(),
		}).Debug(b.Name())
	}
	if resetErr := c.cfg.Pipe.Reset(); resetErr != nil && err == nil {
		err = resetErr
	}
	for _, r := range c.cfg.Resetters {
		r.Reset()
	}
	if c.cfg.Terminal != nil {
		// failed iterations report nothing, their statistics are partial
		if err == nil {
			c.cfg.Terminal.Final()
		} else {
			c.cfg.Terminal.Stop()
		}
	}
	c.cfg.Monitor.Reset()
	if c.cfg.Terminal != nil {
		c.cfg.Terminal.Reset()
	}
	return err
}
