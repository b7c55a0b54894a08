// SPDX-License-Identifier: MIT
package analysis

import (
	"analyzer/internal/fft"
	"fmt"
)

// Estimator turns a block into its smoothed magnitude spectrum. It holds no
// state between calls apart from its FFT workspace, so its output depends
// only on the block.
type Estimator struct {
	fft  *fft.Processor
	span int
}

// NewEstimator returns an estimator for blocks of blockSize samples.
func NewEstimator(blockSize int, sampleRate float64, span int) (*Estimator, error) {
	if span < 1 || span%2 == 0 {
		return nil, fmt.Errorf("smoothing span %d must be a positive odd number", span)
	}
	proc, err := fft.NewProcessor(blockSize, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create fft processor: %w", err)
	}
	return &Estimator{fft: proc, span: span}, nil
}

// BlockSize returns the block length the estimator accepts.
func (e *Estimator) BlockSize() int { return e.fft.Size() }

// Bins returns the spectrum length, BlockSize/2.
func (e *Estimator) Bins() int { return e.fft.Bins() }

// Estimate applies a Hamming window, transforms the block and smooths the
// magnitudes. A block of the wrong length fails with ErrInvalidInput.
func (e *Estimator) Estimate(block Block) (*Spectrum, error) {
	if len(block) != e.fft.Size() {
		return nil, fmt.Errorf("%w: block has %d samples, want %d", ErrInvalidInput, len(block), e.fft.Size())
	}

	raw := make([]float64, e.fft.Bins())
	if err := e.fft.Process(block, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	smoothed := make([]float64, len(raw))
	Smooth(smoothed, raw, e.span)

	return &Spectrum{
		Magnitudes: smoothed,
		Raw:        raw,
		SampleRate: e.fft.SampleRate(),
		Size:       e.fft.Size(),
	}, nil
}

// Smooth writes the centred moving average of src into dst. Near the edges
// the window is clamped to the available neighbours, so bin 0 averages
// bins 0..span/2 only. dst and src must not overlap.
func Smooth(dst, src []float64, span int) {
	half := span / 2
	n := len(src)
	for i := range src {
		lo := max(i-half, 0)
		hi := min(i+half, n-1)
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += src[j]
		}
		dst[i] = sum / float64(hi-lo+1)
	}
}
