// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermopoll drives a single temperature sensor through a
// request/wait/commit cycle without ever blocking the caller.
//
// A conversion on the sensor takes up to 750ms at 12 bits. Instead of
// sleeping through it, the Machine advances a three-phase cycle one step at
// a time from Tick, which may be called at any frequency: it no-ops until a
// phase's deadline has passed. Control therefore always returns to the
// caller immediately, leaving the loop free to service other work while the
// sensor converts.
//
// A disconnected sensor is not an error. It surfaces as the disconnect
// sentinel on read, is carried in Reading.Valid and ends up as a rendered
// condition on the display. The next poll cycle is the retry.
package thermopoll

import (
	"errors"
	"time"
)

// DisconnectedCelsius is the reserved value a Sensor returns from
// LastCelsius when no valid reading was obtained. It matches the Dallas
// DEVICE_DISCONNECTED_C convention used by ds18b20.
const DisconnectedCelsius = -127.0

// Sensor is the conversion trigger/read capability consumed by the Machine.
// ds18b20.Dev implements it.
type Sensor interface {
	// RequestConversion triggers a conversion and returns without waiting.
	RequestConversion() error
	// LastCelsius reads the result of the last completed conversion, or
	// DisconnectedCelsius when there is none.
	LastCelsius() float64
}

// Presenter receives each committed Reading. Apply must be idempotent: the
// Machine re-applies an unchanged Reading on every tick of the commit phase
// and relies on the presenter to recognize that nothing needs to be drawn.
type Presenter interface {
	Apply(r Reading) error
}

// Reading is a single committed sensor sample. It is immutable once
// produced and superseded by the next cycle's Reading.
type Reading struct {
	Celsius float64
	Valid   bool
}

// Fahrenheit derives the Fahrenheit value from the Celsius one.
func (r Reading) Fahrenheit() float64 {
	return r.Celsius*9/5 + 32
}

// Phase is the cycle phase the Machine is currently in. Exactly one is
// active at a time.
type Phase int

const (
	// PhaseRequest triggers a conversion on the sensor.
	PhaseRequest Phase = iota
	// PhaseAwaitConversion waits out the conversion latency.
	PhaseAwaitConversion
	// PhaseCommit hands the Reading to the presenter until the poll period
	// has elapsed.
	PhaseCommit
)

func (p Phase) String() string {
	switch p {
	case PhaseRequest:
		return "request"
	case PhaseAwaitConversion:
		return "await-conversion"
	case PhaseCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Opts holds the two timing knobs of the cycle.
type Opts struct {
	// ConversionWait is how long after a request the conversion result is
	// trusted to be ready. 750ms covers a 12-bit DS18B20 conversion.
	ConversionWait time.Duration
	// PollPeriod is the full cycle length, measured from request to
	// request. It is independent of the conversion latency.
	PollPeriod time.Duration
}

// DefaultOpts are the timings the device was designed around: a 12-bit
// conversion wait nested in a 2 second poll cadence.
var DefaultOpts = Opts{
	ConversionWait: 750 * time.Millisecond,
	PollPeriod:     2 * time.Second,
}

// Machine sequences the request/wait/commit cycle. It is not safe for
// concurrent use; it is built for a single cooperative task that owns it.
type Machine struct {
	sensor    Sensor
	presenter Presenter
	opts      Opts

	phase Phase
	// periodStart anchors both timers. It is set once at request time and
	// deliberately not touched when the conversion completes: the poll
	// period is measured from request entry, so jitter in when the
	// conversion result gets picked up cannot stretch the cadence.
	periodStart time.Time
	reading     Reading
}

// New creates a Machine with immutable options. Passing nil opts selects
// DefaultOpts.
func New(sensor Sensor, presenter Presenter, opts *Opts) (*Machine, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if sensor == nil {
		return nil, errors.New("thermopoll: sensor required")
	}
	if presenter == nil {
		return nil, errors.New("thermopoll: presenter required")
	}
	if o.ConversionWait <= 0 {
		return nil, errors.New("thermopoll: conversion wait must be > 0")
	}
	if o.PollPeriod < o.ConversionWait {
		return nil, errors.New("thermopoll: poll period must be >= conversion wait")
	}
	return &Machine{sensor: sensor, presenter: presenter, opts: o}, nil
}

// Phase returns the currently active phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Tick advances the cycle by at most one phase transition. now must come
// from a monotonic clock; tests drive it with simulated time.
//
// Tick never blocks. The only error it can return comes from the presenter;
// sensor faults are folded into the Reading instead.
func (m *Machine) Tick(now time.Time) error {
	switch m.phase {
	case PhaseRequest:
		// A failed request is not reported here: the sensor answers the
		// read at the end of the wait with the disconnect sentinel, which
		// is the one recognized failure mode.
		_ = m.sensor.RequestConversion()
		m.periodStart = now
		m.phase = PhaseAwaitConversion

	case PhaseAwaitConversion:
		if now.Sub(m.periodStart) < m.opts.ConversionWait {
			return nil
		}
		c := m.sensor.LastCelsius()
		m.reading = Reading{Celsius: c, Valid: c != DisconnectedCelsius}
		m.phase = PhaseCommit

	case PhaseCommit:
		if err := m.presenter.Apply(m.reading); err != nil {
			return err
		}
		if now.Sub(m.periodStart) >= m.opts.PollPeriod {
			m.phase = PhaseRequest
		}
	}
	return nil
}
