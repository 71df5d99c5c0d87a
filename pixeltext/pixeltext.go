// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pixeltext exposes a pixel-addressed display.Drawer, such as an
// SSD1306 OLED or an e-paper panel, as a display.TextDisplay.
//
// Characters are rasterised into an off-screen image on a fixed monospace
// cell grid and flushed to the device after each write. Only plain text
// placement is supported; cursor styling and scrolling are not.
package pixeltext

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this adapter.
type Opts struct {
	// FontSize in points. The cell grid is derived from the face metrics at
	// this size.
	FontSize float64
	// Foreground and Background colors. They default to white text on a
	// black background, which is what monochrome OLEDs expect.
	Foreground color.Color
	Background color.Color

	_ struct{}
}

// DefaultOpts fits roughly 5 rows of 18 columns on a 128x64 panel.
var DefaultOpts = Opts{
	FontSize:   13,
	Foreground: color.White,
	Background: color.Black,
}

// Dev is a text surface on top of a pixel display.
type Dev struct {
	drawer display.Drawer
	ctx    *gg.Context
	face   font.Face

	rows   int
	cols   int
	cellW  int
	cellH  int
	ascent int

	row int
	col int
	fg  color.Color
	bg  color.Color
	on  bool
}

func wrap(err error) error {
	return fmt.Errorf("pixeltext: %w", err)
}

// New returns a TextDisplay rendering onto d. Passing nil opts selects
// DefaultOpts. The whole display area is used; the grid is as many whole
// cells as fit.
func New(d display.Drawer, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultOpts.FontSize
	}
	if o.Foreground == nil {
		o.Foreground = DefaultOpts.Foreground
	}
	if o.Background == nil {
		o.Background = DefaultOpts.Background
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, wrap(err)
	}
	face := truetype.NewFace(f, &truetype.Options{Size: o.FontSize})

	bounds := d.Bounds()
	m := face.Metrics()
	cellH := m.Height.Ceil()
	// The widest glyph sizes the cell so no character bleeds into its
	// neighbor.
	adv, ok := face.GlyphAdvance('W')
	if !ok {
		return nil, errors.New("pixeltext: font face has no advance for 'W'")
	}
	cellW := adv.Ceil()
	rows := bounds.Dy() / cellH
	cols := bounds.Dx() / cellW
	if rows < 1 || cols < 1 {
		return nil, errors.New("pixeltext: display too small for the font size")
	}

	ctx := gg.NewContext(bounds.Dx(), bounds.Dy())
	ctx.SetFontFace(face)

	dev := &Dev{
		drawer: d,
		ctx:    ctx,
		face:   face,
		rows:   rows,
		cols:   cols,
		cellW:  cellW,
		cellH:  cellH,
		ascent: m.Ascent.Ceil(),
		fg:     o.Foreground,
		bg:     o.Background,
		on:     true,
	}
	if err := dev.Clear(); err != nil {
		return nil, err
	}
	return dev, nil
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
	d.ctx.SetColor(d.bg)
	d.ctx.Clear()
	d.row, d.col = d.MinRow(), d.MinCol()
	return d.flush()
}

// Set the cursor mode. Only CursorOff is supported: the surface has no
// hardware cursor to show.
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
	if !on {
		// Blank the panel but keep the off-screen image, so turning the
		// display back on restores it.
		blank := image.NewUniform(d.bg)
		return d.drawer.Draw(d.drawer.Bounds(), blank, image.Point{})
	}
	return d.flush()
}

// Halt blanks the display.
func (d *Dev) Halt() error {
	d.ctx.SetColor(d.bg)
	d.ctx.Clear()
	d.row, d.col = d.MinRow(), d.MinCol()
	if err := d.flush(); err != nil {
		return err
	}
	return d.drawer.Halt()
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
		if d.col > d.MinCol() {
			d.col--
		} else if d.row > d.MinRow() {
			d.row--
			d.col = d.cols - 1
		}
	default:
		return wrap(display.ErrNotImplemented)
	}
	return nil
}

// Move the cursor to an arbitrary position.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row >= d.rows || col < d.MinCol() || col >= d.cols {
		return errors.New("pixeltext: invalid MoveTo() offset")
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
	return fmt.Sprintf("pixeltext %dx%d on %s", d.cols, d.rows, d.drawer.String())
}

// Write a set of bytes to the display.
func (d *Dev) Write(p []byte) (int, error) {
	for _, r := range string(p) {
		if r == '\n' {
			d.col = d.MinCol()
			d.row++
			if d.row >= d.rows {
				d.row = d.MinRow()
			}
			continue
		}
		d.drawCell(r)
		d.advance()
	}
	if err := d.flush(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Write a string output to the display.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// drawCell paints one character cell at the cursor: background rectangle
// first so stale pixels are erased, then the glyph.
func (d *Dev) drawCell(r rune) {
	x := float64(d.col * d.cellW)
	y := float64(d.row * d.cellH)
	d.ctx.SetColor(d.bg)
	d.ctx.DrawRectangle(x, y, float64(d.cellW), float64(d.cellH))
	d.ctx.Fill()
	d.ctx.SetColor(d.fg)
	d.ctx.DrawString(string(r), x, y+float64(d.ascent))
}

// advance moves the cursor one cell forward, wrapping at the end of the row
// and back to the top past the last row.
func (d *Dev) advance() {
	d.col++
	if d.col >= d.cols {
		d.col = d.MinCol()
		d.row++
		if d.row >= d.rows {
			d.row = d.MinRow()
		}
	}
}

func (d *Dev) flush() error {
	if !d.on {
		return nil
	}
	return d.drawer.Draw(d.drawer.Bounds(), d.ctx.Image(), image.Point{})
}

var _ display.TextDisplay = &Dev{}
