package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/lorenzsim/internal/dynamo"
)

const (
	DefaultTailLength   = 512
	DefaultTrajectories = 13
	DefaultFPS          = 60
	DefaultCloneEpsilon = 0.00005

	MinTailLength = 4
	MaxTailLength = 32768
)

type Config struct {
	Sigma         float64 `yaml:"sigma"`
	Beta          float64 `yaml:"beta"`
	Rho           float64 `yaml:"rho"`
	StepSize      float64 `yaml:"step_size"`
	StepsPerFrame int     `yaml:"steps_per_frame"`
	Paused        bool    `yaml:"paused"`

	TailLength   int     `yaml:"tail_length"`
	Trajectories int     `yaml:"trajectories"`
	Clones       int     `yaml:"clones"`
	CloneEpsilon float64 `yaml:"clone_epsilon"`
	Seed         int64   `yaml:"seed"`
	FPS          int     `yaml:"fps"`
	Workers      int     `yaml:"workers"`

	Preset   string `yaml:"preset,omitempty"`
	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	p := dynamo.DefaultParams()
	return &Config{
		Sigma:         p.Sigma,
		Beta:          p.Beta,
		Rho:           p.Rho,
		StepSize:      p.StepSize,
		StepsPerFrame: p.StepsPerFrame,
		TailLength:    DefaultTailLength,
		Trajectories:  DefaultTrajectories,
		CloneEpsilon:  DefaultCloneEpsilon,
		FPS:           DefaultFPS,
		Workers:       1,
		LogLevel:      "info",
	}
}

// Load reads a yaml file over DefaultConfig. A preset named in the file is
// applied before the file's own fields, so explicit values win.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Preset != "" {
		base := DefaultConfig()
		if err := base.ApplyPreset(cfg.Preset); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, base); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = base
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.TailLength < MinTailLength || c.TailLength > MaxTailLength {
		return fmt.Errorf("config: tail_length %d outside [%d, %d]: %w",
			c.TailLength, MinTailLength, MaxTailLength, dynamo.ErrInvalidCapacity)
	}
	if c.Trajectories < 0 || c.Clones < 0 {
		return fmt.Errorf("config: negative trajectory count")
	}
	if c.CloneEpsilon < 0 {
		return fmt.Errorf("config: clone_epsilon %g is negative", c.CloneEpsilon)
	}
	if c.FPS < 1 {
		return fmt.Errorf("config: fps %d must be positive", c.FPS)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.Params().Validate()
}

func (c *Config) Params() dynamo.Params {
	return dynamo.Params{
		Sigma:         c.Sigma,
		Beta:          c.Beta,
		Rho:           c.Rho,
		StepSize:      c.StepSize,
		StepsPerFrame: c.StepsPerFrame,
		Paused:        c.Paused,
	}
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: unknown log_level %q", s)
}

// HalveTail and DoubleTail step a tail length within the allowed bounds.
func HalveTail(n int) int {
	return clampTail(n / 2)
}

func DoubleTail(n int) int {
	return clampTail(n * 2)
}

func clampTail(n int) int {
	if n < MinTailLength {
		return MinTailLength
	}
	if n > MaxTailLength {
		return MaxTailLength
	}
	return n
}
