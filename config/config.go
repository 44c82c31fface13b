package config

import (
	"fmt"
	"os"

	"github.com/robmorgan/cadence/profile"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// GetCadenceConfig returns the default configuration
func GetCadenceConfig() CadenceConfig {
	return NewCadenceConfig()
}

// CadenceConfig represents options that configure the global behavior of a sequencer
type CadenceConfig struct {
	// Project logger
	Logger *logrus.Logger `yaml:"-"`

	// Meter names one of MeterProfiles. When set it overrides BeatsPerBar and
	// TicksPerBeat.
	Meter string `yaml:"meter"`

	// The tick grid. Both zero selects tickless mode.
	BeatsPerBar  int `yaml:"beats_per_bar"`
	TicksPerBeat int `yaml:"ticks_per_beat"`

	// DoLog emits a debug record per tick and per executed event.
	DoLog bool `yaml:"do_log"`

	// DoErrorLog logs failures recovered from scheduled callbacks.
	DoErrorLog bool `yaml:"do_error_log"`

	// StrictGrid turns off-grid positions into errors instead of warnings.
	StrictGrid bool `yaml:"strict_grid"`

	// Tempo in beats per minute, used by real-time transports.
	Tempo float64 `yaml:"tempo"`

	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`

	// The meter profiles
	MeterProfiles map[string]profile.Meter `yaml:"-"`
}

// Create a new CadenceConfig object with reasonable defaults for real usage
func NewCadenceConfig() CadenceConfig {
	return CadenceConfig{
		BeatsPerBar:   4,
		TicksPerBeat:  24,
		DoErrorLog:    true,
		Tempo:         120,
		LogLevel:      "info",
		MeterProfiles: initializeMeterProfiles(),
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (CadenceConfig, error) {
	cfg := NewCadenceConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.ApplyMeter(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyMeter copies the grid of the named meter profile into the config.
func (c *CadenceConfig) ApplyMeter() error {
	if c.Meter == "" {
		return nil
	}
	meter, found := c.MeterProfiles[c.Meter]
	if !found {
		return fmt.Errorf("unknown meter %q, expected one of %v", c.Meter, c.MeterNames())
	}
	c.BeatsPerBar = meter.BeatsPerBar
	c.TicksPerBeat = meter.TicksPerBeat
	return nil
}

// MeterNames lists the known meter profiles, sorted.
func (c *CadenceConfig) MeterNames() []string {
	names := maps.Keys(c.MeterProfiles)
	slices.Sort(names)
	return names
}

// Validate checks the grid and tempo settings.
func (c *CadenceConfig) Validate() error {
	if c.Tempo < 0 {
		return fmt.Errorf("tempo must not be negative, got %v", c.Tempo)
	}
	if c.Tickless() {
		return nil
	}
	if c.BeatsPerBar <= 0 || c.TicksPerBeat <= 0 {
		return fmt.Errorf("beats_per_bar (%d) and ticks_per_beat (%d) must both be positive, or both zero for tickless", c.BeatsPerBar, c.TicksPerBeat)
	}
	return nil
}

// Tickless reports whether the config selects tickless mode.
func (c *CadenceConfig) Tickless() bool {
	return c.BeatsPerBar == 0 && c.TicksPerBeat == 0
}
