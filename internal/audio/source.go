// SPDX-License-Identifier: MIT
/*
Package audio provides the block sources feeding the analyzer and the
control loop that drives it.

A BlockSource yields fixed-length blocks of mono int16 samples. The Engine
pulls one block at a time on a single goroutine, hands it to the analyzer
and passes the resulting frame to a renderer. Read failures become degraded
frames; the loop only gives up after several consecutive failures.
*/
package audio

import (
	"analyzer/internal/analysis"
	"analyzer/internal/config"
	"analyzer/internal/log"
	"analyzer/pkg/signal"
	"context"
	"fmt"
	"time"
)

// BlockSource yields fixed-length sample blocks. NextBlock blocks until a
// block is available. It returns io.EOF when a finite source is exhausted
// and an error wrapping analysis.ErrDevice when a read fails.
type BlockSource interface {
	NextBlock(ctx context.Context) (analysis.Block, error)
	Close() error
}

// SynthAmplitude is the peak amplitude of generated signals.
const SynthAmplitude = 12000

// OpenSource opens the block source selected by cfg.Audio.Source. For WAV
// files the sample rate is taken from the file and written back to cfg.
// The mic source requires Initialize to have been called.
func OpenSource(cfg *config.Config) (BlockSource, error) {
	a := &cfg.Audio
	switch a.Source {
	case config.SourceMic:
		return NewMic(a.InputDevice, a.SampleRate, a.BlockSize, a.LowLatency)

	case config.SourceWav:
		src, err := OpenWav(a.InputFile, a.BlockSize, a.Realtime)
		if err != nil {
			return nil, err
		}
		if src.SampleRate() != a.SampleRate {
			log.Infof("audio: using sample rate %.0f Hz from %s", src.SampleRate(), a.InputFile)
			a.SampleRate = src.SampleRate()
		}
		return src, nil

	case config.SourceSynth:
		waveform, err := signal.ParseWaveform(a.SynthWaveform)
		if err != nil {
			return nil, err
		}
		return NewSynthSource(waveform, a.SynthFrequency, a.SampleRate, a.BlockSize, SynthAmplitude, a.Realtime), nil

	default:
		return nil, fmt.Errorf("unknown audio source '%s'", a.Source)
	}
}

// pacer spaces blocks of a file or synthetic source at the rate a device
// would deliver them. A nil pacer never waits.
type pacer struct {
	period time.Duration
	next   time.Time
}

func newPacer(blockSize int, sampleRate float64, enabled bool) *pacer {
	if !enabled || sampleRate <= 0 {
		return nil
	}
	return &pacer{period: time.Duration(float64(blockSize) / sampleRate * float64(time.Second))}
}

func (p *pacer) wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	now := time.Now()
	if p.next.IsZero() || now.Sub(p.next) > p.period {
		// First block, or we fell behind: restart the schedule.
		p.next = now
	}
	p.next = p.next.Add(p.period)

	d := time.Until(p.next)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
