// chain runs a coded transmission simulation over a range of noise
// values and reports bit and frame error rates per value.
package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pipelined.dev/chain"
	"pipelined.dev/chain/channel"
	"pipelined.dev/chain/codec"
	chainlog "pipelined.dev/chain/log"
	"pipelined.dev/chain/modem"
	"pipelined.dev/chain/monitor"
	"pipelined.dev/chain/report"
	"pipelined.dev/chain/source"
	"pipelined.dev/chain/split"
	"pipelined.dev/chain/sweep"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := defaultParams()
	var configPath string
	var verbose bool
	cmd := &cobra.Command{
		Use:          "chain",
		Short:        "simulate a repetition-coded BPSK transmission over an Eb/N0 sweep",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := flags
			if configPath != "" {
				loaded, err := loadParams(configPath)
				if err != nil {
					return err
				}
				overlay(cmd.Flags(), &loaded, flags)
				p = loaded
			}
			if err := p.validate(); err != nil {
				return err
			}
			return run(p, verbose)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "yaml config file, explicit flags take precedence")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().IntVar(&flags.K, "k", flags.K, "information bits per frame")
	cmd.Flags().IntVar(&flags.N, "n", flags.N, "codeword bits per frame")
	cmd.Flags().Float64Var(&flags.EbN0Min, "ebn0-min", flags.EbN0Min, "first Eb/N0 value in dB")
	cmd.Flags().Float64Var(&flags.EbN0Max, "ebn0-max", flags.EbN0Max, "last Eb/N0 value in dB")
	cmd.Flags().Float64Var(&flags.EbN0Step, "ebn0-step", flags.EbN0Step, "Eb/N0 step in dB")
	cmd.Flags().Uint64Var(&flags.FrameErrors, "frame-errors", flags.FrameErrors, "frame errors to collect per Eb/N0 value, 0 to disable")
	cmd.Flags().IntVar(&flags.SourceFrames, "source-frames", flags.SourceFrames, "frames to generate per Eb/N0 value, 0 for unlimited")
	cmd.Flags().IntVar(&flags.Capacity, "capacity", flags.Capacity, "binding buffer capacity")
	cmd.Flags().IntVar(&flags.Workers, "workers", flags.Workers, "workers per block")
	cmd.Flags().Int64Var(&flags.Seed, "seed", flags.Seed, "random seed")
	cmd.Flags().DurationVar((*time.Duration)(&flags.ReportInterval), "report-interval", time.Duration(flags.ReportInterval), "interval of intermediate result lines, 0 to disable")
	cmd.Flags().IntVar(&flags.Debug, "debug", flags.Debug, "dump socket frames truncated to this many elements, 0 to disable")
	return cmd
}

// overlay copies explicitly set flag values over file values.
func overlay(fs *pflag.FlagSet, file *params, flags params) {
	if fs.Changed("k") {
		file.K = flags.K
	}
	if fs.Changed("n") {
		file.N = flags.N
	}
	if fs.Changed("ebn0-min") {
		file.EbN0Min = flags.EbN0Min
	}
	if fs.Changed("ebn0-max") {
		file.EbN0Max = flags.EbN0Max
	}
	if fs.Changed("ebn0-step") {
		file.EbN0Step = flags.EbN0Step
	}
	if fs.Changed("frame-errors") {
		file.FrameErrors = flags.FrameErrors
	}
	if fs.Changed("source-frames") {
		file.SourceFrames = flags.SourceFrames
	}
	if fs.Changed("capacity") {
		file.Capacity = flags.Capacity
	}
	if fs.Changed("workers") {
		file.Workers = flags.Workers
	}
	if fs.Changed("seed") {
		file.Seed = flags.Seed
	}
	if fs.Changed("report-interval") {
		file.ReportInterval = flags.ReportInterval
	}
	if fs.Changed("debug") {
		file.Debug = flags.Debug
	}
}

func run(p params, verbose bool) error {
	log := chainlog.GetLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	log.WithFields(logrus.Fields{
		"k":            p.K,
		"n":            p.N,
		"rate":         codec.Rate(p.K, p.N),
		"ebn0":         []float64{p.EbN0Min, p.EbN0Max},
		"step":         p.EbN0Step,
		"frame errors": p.FrameErrors,
		"capacity":     p.Capacity,
		"workers":      p.Workers,
		"seed":         p.Seed,
	}).Info("simulation parameters")

	src := &source.Random{K: p.K, Seed: p.Seed, Limit: p.SourceFrames}
	spl := &split.Splitter{K: p.K}
	enc, err := codec.NewEncoder(p.K, p.N)
	if err != nil {
		return err
	}
	mod := &modem.Modulator{N: p.N}
	chn := channel.NewAWGN(p.N, p.Seed+1)
	dem := modem.NewDemodulator(p.N)
	dec, err := codec.NewDecoder(p.K, p.N)
	if err != nil {
		return err
	}
	mon := monitor.New(p.K, p.FrameErrors)
	mon.OnCheck(dec.Reset)

	pipe := chain.New(
		chain.WithCapacity(p.Capacity),
		chain.WithWorkers(p.Workers),
		chain.WithLogger(log),
		chain.WithDebug(p.Debug),
	)
	bSrc := pipe.Add(src)
	bSpl := pipe.Add(spl)
	bEnc := pipe.Add(enc)
	bMod := pipe.Add(mod)
	bChn := pipe.Add(chn)
	bDem := pipe.Add(dem)
	bDec := pipe.Add(dec)
	bMon := pipe.Add(mon)
	bindings := []struct {
		consumer       *chain.Block
		socket         string
		producer       *chain.Block
		producerSocket string
	}{
		{bSpl, "U_K", bSrc, "U_K"},
		{bEnc, "U_K", bSpl, "V_K1"},
		{bMod, "X_N1", bEnc, "X_N"},
		{bChn, "X_N", bMod, "X_N2"},
		{bDem, "Y_N1", bChn, "Y_N"},
		{bDec, "Y_N", bDem, "Y_N2"},
		{bMon, "V", bDec, "V_K"},
		{bMon, "U", bSpl, "V_K2"},
	}
	for _, b := range bindings {
		if err := pipe.Bind(b.consumer, b.socket, b.producer, b.producerSocket); err != nil {
			return err
		}
	}

	noiseRep := &report.Noise{}
	term := report.NewTerminal(log, time.Duration(p.ReportInterval),
		noiseRep,
		&report.BFER{Monitor: mon},
		&report.Throughput{Monitor: mon, K: p.K},
	)
	interrupt := &sweep.Interrupt{}
	interrupt.Notify()

	ctrl, err := sweep.New(sweep.Config{
		Pipe:          pipe,
		Monitor:       mon,
		Range:         sweep.Range{Min: p.EbN0Min, Max: p.EbN0Max, Step: p.EbN0Step},
		Rate:          codec.Rate(p.K, p.N),
		BitsPerSymbol: modem.BitsPerSymbol,
		Upsample:      1,
		Noisers:       []sweep.Noiser{chn, dem},
		Resetters:     []sweep.Resetter{src, dec},
		Terminal:      term,
		NoiseReporter: noiseRep,
		Interrupt:     interrupt,
		Log:           log,
	})
	if err != nil {
		return err
	}
	return ctrl.Run(context.Background())
}
