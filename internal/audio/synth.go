// SPDX-License-Identifier: MIT
package audio

import (
	"analyzer/internal/analysis"
	"analyzer/pkg/signal"
	"context"
)

// SynthSource generates an endless signal: a sine, a harmonic mix or a
// repeating chirp. It never fails, which makes it the source of choice for
// demos and end-to-end tests.
type SynthSource struct {
	osc       *signal.Oscillator
	blockSize int
	pacer     *pacer
}

var _ BlockSource = (*SynthSource)(nil)

// NewSynthSource returns a generator of blockSize blocks. With realtime set,
// blocks are paced at sampleRate.
func NewSynthSource(waveform signal.Waveform, frequency, sampleRate float64, blockSize int, amplitude float64, realtime bool) *SynthSource {
	return &SynthSource{
		osc:       signal.NewOscillator(waveform, sampleRate, frequency, amplitude),
		blockSize: blockSize,
		pacer:     newPacer(blockSize, sampleRate, realtime),
	}
}

// NextBlock returns the next block of the signal. The phase carries over
// between blocks.
func (s *SynthSource) NextBlock(ctx context.Context) (analysis.Block, error) {
	if err := s.pacer.wait(ctx); err != nil {
		return nil, err
	}
	block := make(analysis.Block, s.blockSize)
	s.osc.Fill(block)
	return block, nil
}

// Close is a no-op.
func (s *SynthSource) Close() error { return nil }
