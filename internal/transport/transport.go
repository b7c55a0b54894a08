// SPDX-License-Identifier: MIT
/*
Package transport delivers analysis frames to consumers outside the control
loop: a WebSocket feed, a log summary and a UDP stream (subpackage udp).

Renderers are fire-and-forget. Render is called on the engine goroutine and
must return quickly; renderers that do I/O queue or sample the frame and do
the work on their own goroutine.
*/
package transport

import (
	"analyzer/internal/analysis"
	"errors"
	"sync/atomic"
	"time"
)

// Renderer consumes analysis frames.
type Renderer interface {
	Render(frame *analysis.Frame)
	Close() error
}

// Fanout renders every frame to each of its renderers in order.
type Fanout []Renderer

// NewFanout drops nil renderers.
func NewFanout(renderers ...Renderer) Fanout {
	f := make(Fanout, 0, len(renderers))
	for _, r := range renderers {
		if r != nil {
			f = append(f, r)
		}
	}
	return f
}

// Render passes frame to every renderer.
func (f Fanout) Render(frame *analysis.Frame) {
	for _, r := range f {
		r.Render(frame)
	}
}

// Close closes every renderer and joins their errors.
func (f Fanout) Close() error {
	var errs []error
	for _, r := range f {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}

// Latest holds the most recent frame for consumers that sample on their
// own schedule. The zero value is ready to use.
type Latest struct {
	frame atomic.Pointer[analysis.Frame]
}

// Render stores frame.
func (l *Latest) Render(frame *analysis.Frame) { l.frame.Store(frame) }

// Load returns the most recent frame, or nil before the first one.
func (l *Latest) Load() *analysis.Frame { return l.frame.Load() }

// Close is a no-op.
func (l *Latest) Close() error { return nil }

// throttle passes at most one event per interval. Not safe for concurrent
// use.
type throttle struct {
	interval time.Duration
	last     time.Time
}

func (t *throttle) allow(now time.Time) bool {
	if t.interval <= 0 {
		return true
	}
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

var (
	_ Renderer = Fanout(nil)
	_ Renderer = (*Latest)(nil)
)
