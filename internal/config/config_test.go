package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_missingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Period() != 2*time.Second || cfg.ConversionWait() != 750*time.Millisecond {
		t.Errorf("unexpected default timings: %s / %s", cfg.Period(), cfg.ConversionWait())
	}
	if cfg.Sensor.ResolutionBits != 12 {
		t.Errorf("unexpected default resolution: %d", cfg.Sensor.ResolutionBits)
	}
	if cfg.Display.Kind != KindSSD1306 {
		t.Errorf("unexpected default display: %q", cfg.Display.Kind)
	}
}

func TestLoad_overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermoview.yaml")
	data := `
poll:
  period_ms: 5000
sensor:
  resolution_bits: 10
display:
  kind: terminal
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Period() != 5*time.Second {
		t.Errorf("period: %s", cfg.Period())
	}
	// Untouched fields keep their defaults.
	if cfg.ConversionWait() != 750*time.Millisecond {
		t.Errorf("conversion wait: %s", cfg.ConversionWait())
	}
	if cfg.Sensor.ResolutionBits != 10 {
		t.Errorf("resolution: %d", cfg.Sensor.ResolutionBits)
	}
	if cfg.Display.Kind != KindTerminal {
		t.Errorf("display kind: %q", cfg.Display.Kind)
	}
}

func TestValidate(t *testing.T) {
	var testData = []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero period", func(c *Config) { c.Poll.PeriodMs = 0 }},
		{"zero wait", func(c *Config) { c.Poll.ConversionWaitMs = 0 }},
		{"wait exceeds period", func(c *Config) { c.Poll.ConversionWaitMs = c.Poll.PeriodMs + 1 }},
		{"zero tick", func(c *Config) { c.Poll.TickMs = 0 }},
		{"resolution too low", func(c *Config) { c.Sensor.ResolutionBits = 8 }},
		{"resolution too high", func(c *Config) { c.Sensor.ResolutionBits = 13 }},
		{"unknown display", func(c *Config) { c.Display.Kind = "nixie" }},
		{"zero width", func(c *Config) { c.Display.Width = 0 }},
	}
	for _, entry := range testData {
		t.Run(entry.name, func(st *testing.T) {
			cfg := Default()
			entry.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				st.Error("expected a validation error")
			}
		})
	}
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}
