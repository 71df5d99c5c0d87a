// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termdisplay implements a display.TextDisplay that outputs to
// terminal (stdout) using ANSI color codes.
//
// Useful to run the whole rendering pipeline on a development machine while
// you are waiting for your OLED panel to come by mail.
package termdisplay

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	Rows int
	Cols int
	// Border is the color of the frame drawn around the character grid.
	Border color.NRGBA
	// Palette used to map the border color onto the terminal's 256 colors.
	Palette *ansi256.Palette
	// Writer overrides the default colorable stdout. Mostly for tests.
	Writer io.Writer

	_ struct{}
}

// DefaultOpts matches the grid pixeltext derives from a 128x64 panel.
var DefaultOpts = Opts{
	Rows:   4,
	Cols:   21,
	Border: color.NRGBA{R: 0x30, G: 0x60, B: 0xa0, A: 255},
}

func wrap(err error) error {
	return fmt.Errorf("termdisplay: %w", err)
}

// Dev is a text display emulator that outputs to the console.
type Dev struct {
	w      io.Writer
	rows   int
	cols   int
	border string

	cells []byte
	row   int
	col   int
	on    bool
	drawn bool
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
//
// Permits to do local testing without any display hardware attached.
func New(opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Rows < 1 || o.Cols < 1 {
		return nil, errors.New("termdisplay: invalid grid size")
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := o.Writer
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	d := &Dev{
		w:      w,
		rows:   o.Rows,
		cols:   o.Cols,
		border: p.Block(o.Border),
		cells:  make([]byte, o.Rows*o.Cols),
		on:     true,
	}
	for i := range d.cells {
		d.cells[i] = ' '
	}
	return d, nil
}

// Enable/Disable auto scroll
func (d *Dev) AutoScroll(enabled bool) error {
	return wrap(display.ErrNotImplemented)
}

// Return the number of columns the display supports
func (d *Dev) Cols() int {
	return d.cols
}

// Clear the display and move the cursor home.
func (d *Dev) Clear() error {
	for i := range d.cells {
		d.cells[i] = ' '
	}
	d.row, d.col = 0, 0
	return d.refresh()
}

// Set the cursor mode. The terminal grid has no cursor to show.
func (d *Dev) Cursor(mode ...display.CursorMode) error {
	for _, m := range mode {
		if m != display.CursorOff {
			return wrap(display.ErrNotImplemented)
		}
	}
	return nil
}

// Turn the display on / off
func (d *Dev) Display(on bool) error {
	d.on = on
	if on {
		return d.refresh()
	}
	return nil
}

// Halt implements conn.Resource.
//
// It moves past the grid and resets the terminal attributes so the shell
// prompt is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Move the cursor home (MinRow(),MinCol())
func (d *Dev) Home() error {
	return d.MoveTo(d.MinRow(), d.MinCol())
}

// Return the min column position.
func (d *Dev) MinCol() int {
	return 0
}

// Return the min row position.
func (d *Dev) MinRow() int {
	return 0
}

// Move the cursor forward or backward.
func (d *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Forward:
		d.advance()
	case display.Backward:
		if d.col > 0 {
			d.col--
		} else if d.row > 0 {
			d.row--
			d.col = d.cols - 1
		}
	case display.Up:
		if d.row > 0 {
			d.row--
		}
	case display.Down:
		if d.row < d.rows-1 {
			d.row++
		}
	default:
		return wrap(display.ErrNotImplemented)
	}
	return nil
}

// Move the cursor to an arbitrary position.
func (d *Dev) MoveTo(row, col int) error {
	if row < 0 || row >= d.rows || col < 0 || col >= d.cols {
		return errors.New("termdisplay: invalid MoveTo() offset")
	}
	d.row, d.col = row, col
	return nil
}

// Return the number of rows the display supports.
func (d *Dev) Rows() int {
	return d.rows
}

// return info about the display.
func (d *Dev) String() string {
	return fmt.Sprintf("termdisplay %dx%d", d.cols, d.rows)
}

// Write a set of bytes to the display.
func (d *Dev) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			d.col = 0
			if d.row < d.rows-1 {
				d.row++
			} else {
				d.row = 0
			}
			continue
		}
		d.cells[d.row*d.cols+d.col] = b
		d.advance()
	}
	if err := d.refresh(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Write a string output to the display.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

func (d *Dev) advance() {
	d.col++
	if d.col >= d.cols {
		d.col = 0
		if d.row < d.rows-1 {
			d.row++
		} else {
			d.row = 0
		}
	}
}

// refresh repaints the full framed grid in place.
func (d *Dev) refresh() error {
	if !d.on {
		return nil
	}
	// This code is designed to minimize the amount of memory allocated per
	// call.
	d.buf.Reset()
	if d.drawn {
		// Move back up over the previously drawn frame.
		fmt.Fprintf(&d.buf, "\033[%dA", d.rows+2)
	}
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < d.cols+2; i++ {
		_, _ = io.WriteString(&d.buf, d.border)
	}
	_, _ = d.buf.WriteString("\033[0m\n")
	for r := 0; r < d.rows; r++ {
		_, _ = d.buf.WriteString("\r")
		_, _ = io.WriteString(&d.buf, d.border)
		_, _ = d.buf.WriteString("\033[0m")
		_, _ = d.buf.Write(d.cells[r*d.cols : (r+1)*d.cols])
		_, _ = io.WriteString(&d.buf, d.border)
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, _ = d.buf.WriteString("\r")
	for i := 0; i < d.cols+2; i++ {
		_, _ = io.WriteString(&d.buf, d.border)
	}
	_, _ = d.buf.WriteString("\033[0m\n")
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.TextDisplay = &Dev{}
var _ fmt.Stringer = &Dev{}
