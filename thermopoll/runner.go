// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermopoll

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner is the cooperative driver loop around a Machine: it ticks the
// machine at a fine, fixed granularity until the context is cancelled.
// One goroutine, no overlap, no retries beyond the natural next cycle.
type Runner struct {
	machine *Machine
	tick    time.Duration
}

// DefaultTick is the scheduler granularity. It bounds how late a phase
// deadline can be noticed; the machine itself tolerates any tick rate.
const DefaultTick = 50 * time.Millisecond

// NewRunner wraps a Machine in a ticker loop. tick <= 0 selects DefaultTick.
func NewRunner(m *Machine, tick time.Duration) *Runner {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Runner{machine: m, tick: tick}
}

// Run ticks the machine until ctx is cancelled. Presenter errors are logged
// and the loop keeps going: the display is redrawn from scratch on the next
// state change anyway.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := r.machine.Tick(now); err != nil {
				logrus.Warnf("thermopoll: %v", err)
			}
		}
	}
}
