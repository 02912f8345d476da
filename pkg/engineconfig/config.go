// Package engineconfig loads the windowing engine's YAML configuration, the
// same gopkg.in/yaml.v3-based shape the rest of the pack uses for its own
// config files.
package engineconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure of the engine's config.yaml.
type Config struct {
	// Frequency is the width of each tumbling window.
	Frequency time.Duration `yaml:"frequency"`

	// InitialProcessingDelay holds off the Handle's first periodic Tick
	// after Start. The first window still opens immediately on Start.
	InitialProcessingDelay time.Duration `yaml:"initial_processing_delay"`

	// ResumeProcessingDelay is the delay a Flush pauses ingestion for
	// before the actor resumes on its own.
	ResumeProcessingDelay time.Duration `yaml:"resume_processing_delay"`

	// TickInterval is how often the Handle delivers a wall-clock Tick.
	TickInterval time.Duration `yaml:"tick_interval"`

	Backoff Backoff `yaml:"backoff"`
	Ask     Ask     `yaml:"ask"`
	Matcher Matcher `yaml:"matcher"`
}

// Matcher configures the CLI's single ThresholdMatcher. A zero Threshold
// leaves the actor matcherless: windows still tumble and close, but no
// side-effect signals are ever synthesized.
type Matcher struct {
	// Name prefixes the synthesized side-effect signal's name, e.g.
	// "cpu_high.threshold_exceeded".
	Name string `yaml:"name"`

	// SignalName is the HealthSignal.Name the matcher counts occurrences
	// of within each window.
	SignalName string `yaml:"signal_name"`

	// Threshold is the minimum count of matching signals that fires the
	// side effect. Threshold <= 0 disables the matcher entirely.
	Threshold int `yaml:"threshold"`
}

// Backoff configures the Supervisor's restart policy.
type Backoff struct {
	MinBackoff   time.Duration `yaml:"min_backoff"`
	MaxBackoff   time.Duration `yaml:"max_backoff"`
	RandomFactor float64       `yaml:"random_factor"`
	MaxRetries   int           `yaml:"max_retries"`
}

// Ask configures the Handle's ask-pattern calls (currently just Snapshot).
type Ask struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Defaults returns a Config with the engine's documented defaults applied.
func Defaults() Config {
	return Config{
		Frequency:              time.Minute,
		InitialProcessingDelay: 0,
		ResumeProcessingDelay:  200 * time.Millisecond,
		TickInterval:           time.Second,
		Backoff: Backoff{
			MinBackoff:   500 * time.Millisecond,
			MaxBackoff:   30 * time.Second,
			RandomFactor: 0.2,
			MaxRetries:   10,
		},
		Ask: Ask{Timeout: 2 * time.Second},
	}
}

// Load reads path, parses it over Defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate reports the first configuration error found, if any.
func (c Config) Validate() error {
	switch {
	case c.Frequency <= 0:
		return fmt.Errorf("frequency must be positive, got %v", c.Frequency)
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval)
	case c.Backoff.MinBackoff <= 0:
		return fmt.Errorf("backoff.min_backoff must be positive, got %v", c.Backoff.MinBackoff)
	case c.Backoff.MaxBackoff < c.Backoff.MinBackoff:
		return fmt.Errorf("backoff.max_backoff (%v) must be >= min_backoff (%v)", c.Backoff.MaxBackoff, c.Backoff.MinBackoff)
	case c.Backoff.RandomFactor < 0 || c.Backoff.RandomFactor > 1:
		return fmt.Errorf("backoff.random_factor must be in [0,1], got %v", c.Backoff.RandomFactor)
	case c.Backoff.MaxRetries < 0:
		return fmt.Errorf("backoff.max_retries must be >= 0, got %d", c.Backoff.MaxRetries)
	case c.Ask.Timeout <= 0:
		return fmt.Errorf("ask.timeout must be positive, got %v", c.Ask.Timeout)
	}
	return nil
}
