package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full on-disk configuration.
type Config struct {
	Poll    PollConfig    `yaml:"poll"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Display DisplayConfig `yaml:"display"`
}

// ---- POLL ----

type PollConfig struct {
	// PeriodMs is the full poll cycle length, request to request.
	PeriodMs int `yaml:"period_ms"`
	// ConversionWaitMs is how long after a request the sensor result is
	// read. Must cover the conversion time of the configured resolution.
	ConversionWaitMs int `yaml:"conversion_wait_ms"`
	// TickMs is the scheduler granularity of the driver loop.
	TickMs int `yaml:"tick_ms"`
}

// ---- SENSOR ----

type SensorConfig struct {
	// Bus is the 1-wire bus name; empty selects the first registered bus.
	Bus string `yaml:"bus"`
	// Address is the 64-bit ROM address; 0 searches the bus for the first
	// DS18B20 family device.
	Address uint64 `yaml:"address"`
	// ResolutionBits in 9..12.
	ResolutionBits int `yaml:"resolution_bits"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	// Kind is "ssd1306" (the default) or "terminal".
	Kind string `yaml:"kind"`
	// I2CBus names the bus the panel hangs off; empty selects the first.
	I2CBus string `yaml:"i2c_bus"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// FontSize in points, for pixel-addressed panels.
	FontSize float64 `yaml:"font_size"`
}

const (
	KindSSD1306  = "ssd1306"
	KindTerminal = "terminal"
)

// Default returns the configuration the device was designed around: a
// 12-bit DS18B20 polled every 2 seconds, a 128x64 OLED.
func Default() Config {
	return Config{
		Poll: PollConfig{
			PeriodMs:         2000,
			ConversionWaitMs: 750,
			TickMs:           50,
		},
		Sensor: SensorConfig{
			ResolutionBits: 12,
		},
		Display: DisplayConfig{
			Kind:     KindSSD1306,
			Width:    128,
			Height:   64,
			FontSize: 13,
		},
	}
}

// Load reads the yaml config at path. A missing file is not an error: the
// defaults apply, so the device runs with zero provisioning.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the machine or drivers cannot run with.
func (c *Config) Validate() error {
	if c.Poll.PeriodMs <= 0 {
		return errors.New("config: poll.period_ms must be > 0")
	}
	if c.Poll.ConversionWaitMs <= 0 {
		return errors.New("config: poll.conversion_wait_ms must be > 0")
	}
	if c.Poll.ConversionWaitMs > c.Poll.PeriodMs {
		return errors.New("config: poll.conversion_wait_ms must not exceed poll.period_ms")
	}
	if c.Poll.TickMs <= 0 {
		return errors.New("config: poll.tick_ms must be > 0")
	}
	if c.Sensor.ResolutionBits < 9 || c.Sensor.ResolutionBits > 12 {
		return errors.New("config: sensor.resolution_bits must be in 9..12")
	}
	switch c.Display.Kind {
	case KindSSD1306, KindTerminal:
	default:
		return fmt.Errorf("config: unknown display.kind %q", c.Display.Kind)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return errors.New("config: display dimensions must be > 0")
	}
	return nil
}

func (c *Config) Period() time.Duration {
	return time.Duration(c.Poll.PeriodMs) * time.Millisecond
}

func (c *Config) ConversionWait() time.Duration {
	return time.Duration(c.Poll.ConversionWaitMs) * time.Millisecond
}

func (c *Config) Tick() time.Duration {
	return time.Duration(c.Poll.TickMs) * time.Millisecond
}
