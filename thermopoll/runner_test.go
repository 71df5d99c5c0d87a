// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermopoll

import (
	"context"
	"testing"
	"time"
)

func TestRunner(t *testing.T) {
	s := &fakeSensor{celsius: 21}
	p := &fakePresenter{}
	m := newMachine(t, s, p)
	r := NewRunner(m, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// Give the loop a few ticks, then make sure cancelling stops it.
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on cancel")
	}
	if s.requests == 0 {
		t.Error("runner never ticked the machine")
	}
}

func TestNewRunner_defaultTick(t *testing.T) {
	s := &fakeSensor{}
	p := &fakePresenter{}
	m := newMachine(t, s, p)
	if r := NewRunner(m, 0); r.tick != DefaultTick {
		t.Errorf("expected the default tick, got %s", r.tick)
	}
}
