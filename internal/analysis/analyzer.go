// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"time"
)

// Analyzer runs the per-block pipeline. Its only carried state is the
// loudness history, the spectrogram history and the onset detector's last
// RMS. It is not safe for concurrent use: one control loop drives it.
type Analyzer struct {
	params      Params
	estimator   *Estimator
	loudness    *LoudnessTracker
	detector    *ToneDetector
	spectrogram *SpectrogramBuffer
	bands       *BandMeter
	onset       *OnsetDetector

	sequence uint64
	now      func() time.Time
}

// NewAnalyzer validates p and allocates every buffer the pipeline needs.
func NewAnalyzer(p Params) (*Analyzer, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis parameters: %w", err)
	}

	estimator, err := NewEstimator(p.BlockSize, p.SampleRate, p.SmoothingSpan)
	if err != nil {
		return nil, err
	}
	loudness, err := NewLoudnessTracker(p.LoudnessHistory)
	if err != nil {
		return nil, err
	}
	spectrogram, err := NewSpectrogramBuffer(p.SpectrogramWidth, estimator.Bins())
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		params:      p,
		estimator:   estimator,
		loudness:    loudness,
		detector:    NewToneDetector(p),
		spectrogram: spectrogram,
		bands:       NewBandMeter(DefaultBands, estimator.Bins(), p.SampleRate/float64(p.BlockSize)),
		onset:       NewOnsetDetector(p.OnsetFloor, p.OnsetRatio),
		now:         time.Now,
	}, nil
}

// Params returns the parameters the analyzer was built with.
func (a *Analyzer) Params() Params { return a.params }

// Process analyses one block. The order is fixed: estimate the spectrum,
// update loudness, detect the tone against the updated average, then push
// the spectrum into the history. A block of the wrong length fails with
// ErrInvalidInput before any state changes.
func (a *Analyzer) Process(block Block) (*Frame, error) {
	spectrum, err := a.estimator.Estimate(block)
	if err != nil {
		return nil, err
	}

	rms, avg := a.loudness.Update(block)
	detection := a.detector.Detect(spectrum, avg)
	bands := a.bands.Measure(spectrum)
	onset := a.onset.Update(rms)

	view, err := a.spectrogram.Push(spectrum)
	if err != nil {
		// Estimate guarantees the bin count, so this is a wiring bug.
		return nil, err
	}

	waveform := make(Block, len(block))
	copy(waveform, block)

	peak := PeakAmplitude(block)

	a.sequence++
	return &Frame{
		Sequence:      a.sequence,
		Time:          a.now(),
		Waveform:      waveform,
		Spectrum:      spectrum,
		Detection:     detection,
		RMS:           rms,
		Loudness:      avg,
		PeakAmplitude: peak,
		Clipped:       peak >= ClipLevel,
		Bands:         bands,
		Onset:         onset,
		Spectrogram:   view,
		Ceiling:       detection.MaxMagnitude * CeilingHeadroom,
		Status:        StatusText(detection, avg),
	}, nil
}

// Degraded builds the frame shown in place of a block that could not be read
// or analysed. It reports silence with the current loudness average and
// spectrogram, and changes no state besides the sequence number.
func (a *Analyzer) Degraded(cause error) *Frame {
	if cause == nil {
		cause = errors.New("unknown failure")
	}
	bins := a.estimator.Bins()
	a.sequence++
	return &Frame{
		Sequence: a.sequence,
		Time:     a.now(),
		Waveform: make(Block, a.params.BlockSize),
		Spectrum: &Spectrum{
			Magnitudes: make([]float64, bins),
			Raw:        make([]float64, bins),
			SampleRate: a.params.SampleRate,
			Size:       a.params.BlockSize,
		},
		Detection:   Detection{State: Silent},
		Loudness:    a.loudness.Average(),
		Bands:       a.bands.Measure(&Spectrum{Magnitudes: make([]float64, bins)}),
		Spectrogram: a.spectrogram.View(),
		Status:      degradedStatus(cause),
		Degraded:    true,
		Err:         cause,
	}
}

// Loudness exposes the loudness history for inspection.
func (a *Analyzer) Loudness() *LoudnessState { return a.loudness.State() }

// Spectrogram exposes the spectrogram history for inspection.
func (a *Analyzer) Spectrogram() *SpectrogramBuffer { return a.spectrogram }
