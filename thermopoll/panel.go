// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermopoll

import (
	"fmt"
	"math"
	"strings"

	"periph.io/x/conn/v3/display"
)

// changeThreshold is the minimum Celsius delta before a committed value is
// considered materially different and worth redrawing. It suppresses both
// sensor jitter and float noise.
const changeThreshold = 0.1

// Layout fixes the rows the Panel paints on. Rows are text-display rows,
// starting at MinRow().
type Layout struct {
	// Banner is painted on the topmost rows whatever the connection state.
	Banner []string
	// Label rows, used only while the sensor is connected. A negative row
	// disables the label, for surfaces too small to afford it.
	CelsiusLabelRow    int
	FahrenheitLabelRow int
	// Value rows.
	CelsiusValueRow    int
	FahrenheitValueRow int
	// ErrorRow carries the disconnect message. It may alias a value row
	// since values are never drawn while disconnected. ErrorText overrides
	// the default message when non-empty.
	ErrorRow  int
	ErrorText string

	_ struct{}
}

// DefaultLayout mirrors the original device screen.
var DefaultLayout = Layout{
	Banner: []string{
		"--------------------",
		" DS18B20 thermometer",
		"--------------------",
	},
	CelsiusLabelRow:    4,
	CelsiusValueRow:    5,
	FahrenheitLabelRow: 7,
	FahrenheitValueRow: 8,
	ErrorRow:           5,
}

// CompactLayout fits a four-row surface such as a 128x64 OLED: no label
// rows, the unit suffix on the values has to do.
var CompactLayout = Layout{
	Banner:             []string{"DS18B20 sensor"},
	CelsiusLabelRow:    -1,
	FahrenheitLabelRow: -1,
	CelsiusValueRow:    1,
	FahrenheitValueRow: 2,
	ErrorRow:           2,
	ErrorText:          "!! no sensor !!",
}

const (
	celsiusLabel    = "Temp in Celsius:"
	fahrenheitLabel = "Temp in Fahrenheit:"
	errorText       = "!! Sensor Not Connected !!"
)

// Panel renders committed Readings onto a text display, drawing the minimal
// set of rows needed for each change.
//
// The display surface is slow compared to the tick rate, so Panel diffs
// before drawing: repeated Apply calls with an unchanged Reading touch the
// display not at all.
type Panel struct {
	disp   display.TextDisplay
	layout Layout

	// What is currently painted on screen.
	connected bool
	lastC     float64
	lastF     float64
	rendered  bool
}

// NewPanel creates a Panel on the given display. Passing nil layout selects
// DefaultLayout. The display is assumed initialized; rows named by the
// layout must exist on it.
func NewPanel(disp display.TextDisplay, layout *Layout) *Panel {
	l := DefaultLayout
	if layout != nil {
		l = *layout
	}
	return &Panel{disp: disp, layout: l}
}

// Connected reports whether the screen currently shows a connected sensor.
func (p *Panel) Connected() bool {
	return p.connected
}

// Values returns the Celsius and Fahrenheit values currently painted.
func (p *Panel) Values() (celsius, fahrenheit float64) {
	return p.lastC, p.lastF
}

// Apply implements Presenter.
//
// The very first call paints the full static layout regardless of the
// Reading, since there is no prior screen state to diff against. After
// that, a connectivity flip repaints the static layout (plus the error row
// when disconnecting), and a value change of at least 0.1°C repaints
// exactly the two value rows. Anything else is a no-op.
func (p *Panel) Apply(r Reading) error {
	if !p.rendered || r.Valid != p.connected {
		p.connected = r.Valid
		p.rendered = true
		if err := p.drawStatic(); err != nil {
			return err
		}
		if !p.connected {
			text := p.layout.ErrorText
			if text == "" {
				text = errorText
			}
			return p.writeRow(p.layout.ErrorRow, text)
		}
	}

	if p.connected && math.Abs(r.Celsius-p.lastC) >= changeThreshold {
		if err := p.writeRow(p.layout.CelsiusValueRow, fmt.Sprintf("%.2f C", r.Celsius)); err != nil {
			return err
		}
		if err := p.writeRow(p.layout.FahrenheitValueRow, fmt.Sprintf("%.2f F", r.Fahrenheit())); err != nil {
			return err
		}
		p.lastC = r.Celsius
		p.lastF = r.Fahrenheit()
	}
	return nil
}

// drawStatic clears the display and paints the banner, plus the value
// labels when the sensor is connected.
func (p *Panel) drawStatic() error {
	if err := p.disp.Clear(); err != nil {
		return err
	}
	for i, line := range p.layout.Banner {
		if err := p.writeRow(p.disp.MinRow()+i, line); err != nil {
			return err
		}
	}
	if !p.connected {
		return nil
	}
	if p.layout.CelsiusLabelRow >= 0 {
		if err := p.writeRow(p.layout.CelsiusLabelRow, celsiusLabel); err != nil {
			return err
		}
	}
	if p.layout.FahrenheitLabelRow >= 0 {
		if err := p.writeRow(p.layout.FahrenheitLabelRow, fahrenheitLabel); err != nil {
			return err
		}
	}
	return nil
}

// writeRow paints one full row, padding with trailing blanks to the display
// width so a previously longer string at the same position is erased.
func (p *Panel) writeRow(row int, text string) error {
	if err := p.disp.MoveTo(row, p.disp.MinCol()); err != nil {
		return err
	}
	if cols := p.disp.Cols(); len(text) > cols {
		text = text[:cols]
	} else if len(text) < cols {
		text += strings.Repeat(" ", cols-len(text))
	}
	_, err := p.disp.WriteString(text)
	return err
}

var _ Presenter = &Panel{}
