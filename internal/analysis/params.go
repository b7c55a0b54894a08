// SPDX-License-Identifier: MIT
package analysis

import (
	"analyzer/pkg/bitint"
	"fmt"
)

// Default analysis parameters. They are fixed for the lifetime of a run.
const (
	DefaultBlockSize            = 2048
	DefaultSampleRate           = 44100.0
	DefaultSmoothingSpan        = 5
	DefaultSpectrogramWidth     = 200
	DefaultLoudnessHistory      = 50
	DefaultSilenceRatio         = 0.1
	DefaultPeakThresholdRatio   = 0.4
	DefaultTuningToleranceCents = 10.0
	DefaultMinNoteHz            = 20.0
	DefaultMaxNoteHz            = 4000.0
	DefaultOnsetRatio           = 1.5
	DefaultOnsetFloor           = 500.0
)

// Params configures an Analyzer.
type Params struct {
	BlockSize            int     // Samples per block N, a power of two.
	SampleRate           float64 // Sample rate R in Hz.
	SmoothingSpan        int     // Odd moving-average span over spectrum bins.
	SpectrogramWidth     int     // History capacity W.
	LoudnessHistory      int     // Loudness history capacity K.
	SilenceRatio         float64 // Silence gate: max magnitude vs average loudness.
	PeakThresholdRatio   float64 // Peak threshold as a fraction of max magnitude.
	TuningToleranceCents float64 // |cents| below this is "in tune".
	MinNoteHz            float64 // Exclusive lower bound of note detection.
	MaxNoteHz            float64 // Exclusive upper bound of note detection.
	OnsetRatio           float64 // RMS rise over the previous block that flags an onset.
	OnsetFloor           float64 // RMS below this never flags an onset.
}

// DefaultParams returns the parameters of the standard analyzer.
func DefaultParams() Params {
	return Params{
		BlockSize:            DefaultBlockSize,
		SampleRate:           DefaultSampleRate,
		SmoothingSpan:        DefaultSmoothingSpan,
		SpectrogramWidth:     DefaultSpectrogramWidth,
		LoudnessHistory:      DefaultLoudnessHistory,
		SilenceRatio:         DefaultSilenceRatio,
		PeakThresholdRatio:   DefaultPeakThresholdRatio,
		TuningToleranceCents: DefaultTuningToleranceCents,
		MinNoteHz:            DefaultMinNoteHz,
		MaxNoteHz:            DefaultMaxNoteHz,
		OnsetRatio:           DefaultOnsetRatio,
		OnsetFloor:           DefaultOnsetFloor,
	}
}

// Validate reports the first parameter that cannot be used.
func (p Params) Validate() error {
	switch {
	case p.BlockSize < 4 || !bitint.IsPowerOfTwo(p.BlockSize):
		return fmt.Errorf("block size %d must be a power of two >= 4", p.BlockSize)
	case p.SampleRate <= 0:
		return fmt.Errorf("sample rate %.1f must be positive", p.SampleRate)
	case p.SmoothingSpan < 1 || p.SmoothingSpan%2 == 0:
		return fmt.Errorf("smoothing span %d must be a positive odd number", p.SmoothingSpan)
	case p.SpectrogramWidth < 1:
		return fmt.Errorf("spectrogram width %d must be positive", p.SpectrogramWidth)
	case p.LoudnessHistory < 1:
		return fmt.Errorf("loudness history %d must be positive", p.LoudnessHistory)
	case p.SilenceRatio < 0:
		return fmt.Errorf("silence ratio %.3f must not be negative", p.SilenceRatio)
	case p.PeakThresholdRatio <= 0 || p.PeakThresholdRatio > 1:
		return fmt.Errorf("peak threshold ratio %.3f must be in (0, 1]", p.PeakThresholdRatio)
	case p.TuningToleranceCents < 0:
		return fmt.Errorf("tuning tolerance %.1f must not be negative", p.TuningToleranceCents)
	case p.MinNoteHz < MinNoteFrequency:
		return fmt.Errorf("min note frequency %.1f must be at least %.0f Hz", p.MinNoteHz, MinNoteFrequency)
	case p.MaxNoteHz <= p.MinNoteHz:
		return fmt.Errorf("max note frequency %.1f must exceed min %.1f", p.MaxNoteHz, p.MinNoteHz)
	case p.OnsetRatio < 1:
		return fmt.Errorf("onset ratio %.2f must be at least 1", p.OnsetRatio)
	case p.OnsetFloor < 0:
		return fmt.Errorf("onset floor %.1f must not be negative", p.OnsetFloor)
	}
	return nil
}
