// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termdisplay

import (
	"bytes"
	"strings"
	"testing"

	"periph.io/x/conn/v3/display"
)

func newDev(t *testing.T) (*Dev, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	d, err := New(&Opts{Rows: 3, Cols: 10, Writer: buf})
	if err != nil {
		t.Fatal(err)
	}
	return d, buf
}

func TestNew_invalidGrid(t *testing.T) {
	if d, err := New(&Opts{Rows: 0, Cols: 10}); d != nil || err == nil {
		t.Fatal("expected an error for a zero-row grid")
	}
}

func TestWrite(t *testing.T) {
	d, buf := newDev(t)
	if _, err := d.WriteString("hi"); err != nil {
		t.Fatal(err)
	}
	if got := string(d.cells[:2]); got != "hi" {
		t.Fatalf("cells: %q", got)
	}
	if d.row != 0 || d.col != 2 {
		t.Fatalf("cursor at %d,%d", d.row, d.col)
	}
	if !strings.Contains(buf.String(), "hi") {
		t.Fatal("output does not contain the written text")
	}
}

func TestWrite_wraps(t *testing.T) {
	d, _ := newDev(t)
	if _, err := d.WriteString("0123456789X"); err != nil {
		t.Fatal(err)
	}
	if d.row != 1 || d.col != 1 {
		t.Fatalf("cursor at %d,%d after wrap", d.row, d.col)
	}
	if got := d.cells[1*d.cols]; got != 'X' {
		t.Fatalf("wrapped char: %q", got)
	}
}

func TestMoveToAndOverwrite(t *testing.T) {
	d, _ := newDev(t)
	if err := d.MoveTo(2, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("Z"); err != nil {
		t.Fatal(err)
	}
	if got := d.cells[2*d.cols+4]; got != 'Z' {
		t.Fatalf("cell: %q", got)
	}
	if err := d.MoveTo(3, 0); err == nil {
		t.Fatal("expected an error for a row past the end")
	}
}

func TestClear(t *testing.T) {
	d, _ := newDev(t)
	if _, err := d.WriteString("garbage"); err != nil {
		t.Fatal(err)
	}
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	for i, c := range d.cells {
		if c != ' ' {
			t.Fatalf("cell %d not blank after Clear: %q", i, c)
		}
	}
	if d.row != 0 || d.col != 0 {
		t.Fatalf("cursor at %d,%d after Clear", d.row, d.col)
	}
}

func TestRefresh_movesBackUp(t *testing.T) {
	d, buf := newDev(t)
	if _, err := d.WriteString("a"); err != nil {
		t.Fatal(err)
	}
	first := buf.String()
	if strings.Contains(first, "\033[5A") {
		t.Fatal("first paint must not move the cursor up")
	}
	buf.Reset()
	if _, err := d.WriteString("b"); err != nil {
		t.Fatal(err)
	}
	// 3 content rows + 2 border rows.
	if !strings.Contains(buf.String(), "\033[5A") {
		t.Fatal("repaint must move back over the previous frame")
	}
}

func TestDisplay_off(t *testing.T) {
	d, buf := newDev(t)
	if err := d.Display(false); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if _, err := d.WriteString("x"); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatal("output while the display is off")
	}
	if err := d.Display(true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "x") {
		t.Fatal("turning the display on must repaint the grid")
	}
}

func TestCursorModes(t *testing.T) {
	d, _ := newDev(t)
	if err := d.Cursor(display.CursorOff); err != nil {
		t.Errorf("CursorOff must be accepted: %v", err)
	}
	if err := d.Cursor(display.CursorBlock); err == nil {
		t.Error("expected an error for a block cursor")
	}
}
