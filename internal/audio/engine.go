// SPDX-License-Identifier: MIT
package audio

import (
	"analyzer/internal/analysis"
	"analyzer/internal/config"
	"analyzer/internal/log"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
)

// Renderer receives every frame the engine produces. Render must not block
// the control loop for long; slow renderers queue or drop internally.
type Renderer interface {
	Render(frame *analysis.Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(frame *analysis.Frame)

// Render calls f(frame).
func (f RendererFunc) Render(frame *analysis.Frame) { f(frame) }

// Stats counts what the engine has done so far. Safe to read while running.
type Stats struct {
	Blocks   uint64 // Blocks analysed.
	Degraded uint64 // Degraded frames emitted.
	Clipped  uint64 // Analysed blocks that reached full scale.
}

// Engine is the single control loop of the analyzer: read a block, analyse
// it, render the frame, repeat.
type Engine struct {
	source      BlockSource
	analyzer    *analysis.Analyzer
	renderer    Renderer
	maxFailures int

	// MaxBlocks stops Run after this many blocks have been read, successful
	// or not. Zero means no limit.
	MaxBlocks int

	blocks   atomic.Uint64
	degraded atomic.Uint64
	clipped  atomic.Uint64
}

// NewEngine builds the analyzer from cfg and wires it between source and
// renderer.
func NewEngine(cfg *config.Config, source BlockSource, renderer Renderer) (*Engine, error) {
	analyzer, err := analysis.NewAnalyzer(cfg.AnalysisParams())
	if err != nil {
		return nil, err
	}
	if renderer == nil {
		renderer = RendererFunc(func(*analysis.Frame) {})
	}
	maxFailures := cfg.MaxConsecutiveReadFailures
	if maxFailures < 1 {
		maxFailures = config.DefaultMaxConsecutiveReadFailures
	}
	return &Engine{
		source:      source,
		analyzer:    analyzer,
		renderer:    renderer,
		maxFailures: maxFailures,
	}, nil
}

// Analyzer returns the engine's analyzer.
func (e *Engine) Analyzer() *analysis.Analyzer { return e.analyzer }

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Blocks:   e.blocks.Load(),
		Degraded: e.degraded.Load(),
		Clipped:  e.clipped.Load(),
	}
}

// Run drives the loop until ctx is cancelled, the source is exhausted or
// MaxBlocks is reached; all three return nil. A read failure produces a
// degraded frame and the loop continues, unless it is the last of
// MaxConsecutiveReadFailures failures in a row, which is returned.
func (e *Engine) Run(ctx context.Context) error {
	// Keep the loop on one OS thread; PortAudio's blocking reads prefer it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	failures := 0
	wasClipped := false
	for n := 0; e.MaxBlocks == 0 || n < e.MaxBlocks; n++ {
		if ctx.Err() != nil {
			return nil
		}

		block, err := e.source.NextBlock(ctx)
		switch {
		case err == nil:
			failures = 0
		case errors.Is(err, io.EOF):
			log.Infof("audio: source exhausted after %d blocks", e.blocks.Load())
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		default:
			failures++
			log.Warnf("audio: read failed (%d/%d): %v", failures, e.maxFailures, err)
			e.emitDegraded(err)
			if failures >= e.maxFailures {
				return fmt.Errorf("giving up after %d consecutive read failures: %w", failures, err)
			}
			continue
		}

		frame, err := e.analyzer.Process(block)
		if err != nil {
			log.Errorf("audio: block %d rejected: %v", n, err)
			e.emitDegraded(err)
			continue
		}
		e.blocks.Add(1)

		if frame.Clipped {
			e.clipped.Add(1)
			if !wasClipped {
				log.Warnf("audio: input clipping (peak %d)", frame.PeakAmplitude)
			}
		}
		wasClipped = frame.Clipped

		if log.Enabled(log.LevelDebug) {
			log.Debugf("audio: frame %d rms=%.1f avg=%.1f %s", frame.Sequence, frame.RMS, frame.Loudness, frame.Detection.State)
		}
		e.renderer.Render(frame)
	}
	return nil
}

func (e *Engine) emitDegraded(err error) {
	e.degraded.Add(1)
	e.renderer.Render(e.analyzer.Degraded(err))
}
