// Package app wires the sensor and display hardware, or their simulations,
// to the polling state machine and runs the cooperative loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/thermoview/ds18b20"
	"github.com/GermanBionicSystems/thermoview/internal/config"
	"github.com/GermanBionicSystems/thermoview/pixeltext"
	"github.com/GermanBionicSystems/thermoview/termdisplay"
	"github.com/GermanBionicSystems/thermoview/thermopoll"
)

// textDisplay is a display.TextDisplay that is also a conn.Resource, so the
// app can Halt it on shutdown. Every display in this module implements both.
type textDisplay interface {
	display.TextDisplay
	conn.Resource
}

// App owns the wired-up pipeline for one sensor and one display.
type App struct {
	cfg     config.Config
	disp    textDisplay
	runner  *thermopoll.Runner
	closers []io.Closer
}

// New builds the pipeline. Display or sensor init failure is fatal: there
// is no degraded mode without either of them.
func New(cfg config.Config, simulation bool) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg}

	var sensor thermopoll.Sensor
	if simulation {
		logrus.Info("simulation mode: synthetic sensor, terminal display")
		sensor = &simSensor{}
		disp, err := termdisplay.New(nil)
		if err != nil {
			return nil, err
		}
		a.disp = disp
	} else {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("app: host init: %w", err)
		}
		var err error
		if sensor, err = a.openSensor(); err != nil {
			return nil, err
		}
		if a.disp, err = a.openDisplay(); err != nil {
			return nil, err
		}
	}

	// The tall layout needs nine rows; small panels get the compact one.
	layout := &thermopoll.CompactLayout
	if a.disp.Rows() > thermopoll.DefaultLayout.FahrenheitValueRow {
		layout = &thermopoll.DefaultLayout
	}
	panel := thermopoll.NewPanel(a.disp, layout)

	machine, err := thermopoll.New(sensor, panel, &thermopoll.Opts{
		ConversionWait: cfg.ConversionWait(),
		PollPeriod:     cfg.Period(),
	})
	if err != nil {
		return nil, err
	}
	a.runner = thermopoll.NewRunner(machine, cfg.Tick())
	return a, nil
}

func (a *App) openSensor() (thermopoll.Sensor, error) {
	bus, err := onewirereg.Open(a.cfg.Sensor.Bus)
	if err != nil {
		return nil, fmt.Errorf("app: 1-wire bus: %w", err)
	}
	a.closers = append(a.closers, bus)

	addr := onewire.Address(a.cfg.Sensor.Address)
	if addr == 0 {
		addrs, err := bus.Search(false)
		if err != nil {
			return nil, fmt.Errorf("app: 1-wire search: %w", err)
		}
		for _, c := range addrs {
			if ds18b20.Family(c&0xff) == ds18b20.DS18B20 {
				addr = c
				break
			}
		}
		if addr == 0 {
			return nil, errors.New("app: no DS18B20 found on the bus")
		}
		logrus.Infof("found DS18B20 at %#016x", uint64(addr))
	}

	dev, err := ds18b20.New(bus, addr, a.cfg.Sensor.ResolutionBits)
	if err != nil {
		return nil, fmt.Errorf("app: ds18b20: %w", err)
	}
	logrus.Infof("sensor: %s, conversion time %s", dev, dev.ConversionTime())
	return dev, nil
}

func (a *App) openDisplay() (textDisplay, error) {
	switch a.cfg.Display.Kind {
	case config.KindTerminal:
		return termdisplay.New(nil)
	case config.KindSSD1306:
		b, err := i2creg.Open(a.cfg.Display.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("app: i2c bus: %w", err)
		}
		a.closers = append(a.closers, b)
		opts := ssd1306.DefaultOpts
		opts.W = a.cfg.Display.Width
		opts.H = a.cfg.Display.Height
		if opts.H == 32 {
			opts.Sequential = true
		}
		dev, err := ssd1306.NewI2C(b, &opts)
		if err != nil {
			return nil, fmt.Errorf("app: ssd1306: %w", err)
		}
		return pixeltext.New(dev, &pixeltext.Opts{FontSize: a.cfg.Display.FontSize})
	default:
		return nil, fmt.Errorf("app: unknown display kind %q", a.cfg.Display.Kind)
	}
}

// Run drives the polling loop until ctx is cancelled, then releases the
// hardware.
func (a *App) Run(ctx context.Context) error {
	logrus.Infof("display: %s", a.disp.String())
	logrus.Infof("polling every %s, conversion wait %s", a.cfg.Period(), a.cfg.ConversionWait())

	a.runner.Run(ctx)

	logrus.Info("shutting down")
	if err := a.disp.Halt(); err != nil {
		logrus.Warnf("display halt: %v", err)
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logrus.Warnf("close: %v", err)
		}
	}
	return nil
}
