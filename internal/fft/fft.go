// SPDX-License-Identifier: MIT
package fft

import (
	"analyzer/pkg/bitint"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Workspace holds pre-allocated buffers for FFT calculations.
type Workspace struct {
	input     []float64    // ...for windowed real input samples
	fftOutput []complex128 // ...for FFT complex output (N/2+1 coefficients)
	window    []float64    // ...for Hamming window coefficients
}

// Processor is a windowed real FFT of a fixed length N. It is not safe for
// concurrent use; each control loop owns its own Processor.
type Processor struct {
	size       int
	sampleRate float64
	workspace  Workspace
	fftObj     *fourier.FFT
}

// NewProcessor creates a new FFT processor. It pre-allocates all buffers and
// computes the Hamming window coefficients once.
func NewProcessor(size int, sampleRate float64) (*Processor, error) {
	if size < 2 || !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size %d must be a power of two", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %.1f must be positive", sampleRate)
	}

	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1
	}
	window.Hamming(coeffs)

	return &Processor{
		size:       size,
		sampleRate: sampleRate,
		fftObj:     fourier.NewFFT(size),
		workspace: Workspace{
			input:     make([]float64, size),
			fftOutput: make([]complex128, size/2+1),
			window:    coeffs,
		},
	}, nil
}

// Size returns the transform length N.
func (p *Processor) Size() int { return p.size }

// Bins returns the number of magnitudes Process writes, N/2.
func (p *Processor) Bins() int { return p.size / 2 }

// SampleRate returns the sample rate used for bin frequencies.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

// Window returns the window coefficients. The slice must not be modified.
func (p *Processor) Window() []float64 { return p.workspace.window }

// Process windows block, transforms it and writes |X[k]|/N for k in
// [0, N/2) into dst. block must hold exactly N samples and dst N/2 values.
func (p *Processor) Process(block []int16, dst []float64) error {
	if len(block) != p.size {
		return fmt.Errorf("fft input has %d samples, want %d", len(block), p.size)
	}
	if len(dst) != p.size/2 {
		return fmt.Errorf("fft output has %d bins, want %d", len(dst), p.size/2)
	}

	for i, s := range block {
		p.workspace.input[i] = float64(s) * p.workspace.window[i]
	}

	_ = p.fftObj.Coefficients(p.workspace.fftOutput, p.workspace.input)
	n := float64(p.size)
	for i := range dst {
		dst[i] = cmplx.Abs(p.workspace.fftOutput[i]) / n
	}
	return nil
}

// Frequency returns the centre frequency in Hz of bin i, i*R/N.
func (p *Processor) Frequency(i int) float64 {
	if i < 0 || i >= p.size {
		return 0
	}
	return p.fftObj.Freq(i) * p.sampleRate
}
