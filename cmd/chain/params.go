package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// params describe one simulation: the code, the swept noise range and the
// execution settings of the pipe.
type params struct {
	K int `yaml:"k"`
	N int `yaml:"n"`

	EbN0Min  float64 `yaml:"ebn0_min"`
	EbN0Max  float64 `yaml:"ebn0_max"`
	EbN0Step float64 `yaml:"ebn0_step"`

	FrameErrors  uint64 `yaml:"frame_errors"`
	SourceFrames int    `yaml:"source_frames"`

	Capacity int   `yaml:"capacity"`
	Workers  int   `yaml:"workers"`
	Seed     int64 `yaml:"seed"`

	ReportInterval interval `yaml:"report_interval"`
	Debug          int      `yaml:"debug"`
}

// interval makes time.Duration strings readable from yaml.
type interval time.Duration

func (i *interval) UnmarshalYAML(value *yaml.Node) error {
	d, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse interval: %w", err)
	}
	*i = interval(d)
	return nil
}

func defaultParams() params {
	return params{
		K:              32,
		N:              128,
		EbN0Min:        0,
		EbN0Max:        10,
		EbN0Step:       1,
		FrameErrors:    100,
		Capacity:       16,
		Workers:        1,
		ReportInterval: interval(500 * time.Millisecond),
	}
}

// loadParams reads a yaml file over the defaults.
func loadParams(path string) (params, error) {
	p := defaultParams()
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse config: %w", err)
	}
	return p, nil
}

func (p params) validate() error {
	if p.K <= 0 || p.N <= 0 {
		return fmt.Errorf("non-positive code dimensions K=%d N=%d", p.K, p.N)
	}
	if p.N%p.K != 0 {
		return fmt.Errorf("N=%d is not a multiple of K=%d", p.N, p.K)
	}
	if p.EbN0Step <= 0 {
		return fmt.Errorf("non-positive ebn0 step %f", p.EbN0Step)
	}
	if p.Capacity <= 0 {
		return fmt.Errorf("non-positive capacity %d", p.Capacity)
	}
	if p.Workers <= 0 {
		return fmt.Errorf("non-positive workers %d", p.Workers)
	}
	return nil
}
