// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Display constants for the spectrogram view.
const (
	// DecibelEpsilon keeps log10 finite on exact zeros; a zero magnitude
	// maps to -200 dB.
	DecibelEpsilon = 1e-10

	LowPercentile  = 0.10
	HighPercentile = 0.99
)

// SpectrogramView is a dense frequency by time snapshot of the history.
// Magnitudes[i][j] is bin i of slot j, where slot 0 is the oldest block and
// slot Width()-1 the newest.
type SpectrogramView struct {
	Magnitudes [][]float64
	Decibels   [][]float64
	Low, High  float64 // 10th and 99th percentile of Decibels.
}

// Bins returns the frequency dimension of the view.
func (v *SpectrogramView) Bins() int { return len(v.Magnitudes) }

// Width returns the time dimension of the view.
func (v *SpectrogramView) Width() int {
	if len(v.Magnitudes) == 0 {
		return 0
	}
	return len(v.Magnitudes[0])
}

// Column returns a copy of time slot j of the decibel view.
func (v *SpectrogramView) Column(j int) []float64 {
	col := make([]float64, len(v.Decibels))
	for i := range v.Decibels {
		col[i] = v.Decibels[i][j]
	}
	return col
}

// SpectrogramBuffer keeps the last W spectra in a ring. All W slots start
// as zero spectra so the view has its full shape from the first push.
type SpectrogramBuffer struct {
	bins    int
	slots   [][]float64
	oldest  int
	scratch []float64 // Sorted decibels for percentiles.
}

// NewSpectrogramBuffer allocates a history of width zero-valued spectra of
// bins magnitudes each.
func NewSpectrogramBuffer(width, bins int) (*SpectrogramBuffer, error) {
	if width < 1 || bins < 1 {
		return nil, fmt.Errorf("spectrogram dimensions %dx%d must be positive", bins, width)
	}
	backing := make([]float64, width*bins)
	slots := make([][]float64, width)
	for j := range slots {
		slots[j] = backing[j*bins : (j+1)*bins : (j+1)*bins]
	}
	return &SpectrogramBuffer{
		bins:    bins,
		slots:   slots,
		scratch: make([]float64, width*bins),
	}, nil
}

// Width returns the history capacity W.
func (b *SpectrogramBuffer) Width() int { return len(b.slots) }

// Bins returns the spectrum length the buffer accepts.
func (b *SpectrogramBuffer) Bins() int { return b.bins }

// Slot returns history entry j, 0 being the oldest. The slice is owned by
// the buffer and is overwritten by later pushes.
func (b *SpectrogramBuffer) Slot(j int) []float64 {
	return b.slots[(b.oldest+j)%len(b.slots)]
}

// Push appends the spectrum's smoothed magnitudes as the newest slot,
// evicting the oldest, and returns the updated view. A spectrum of the wrong
// length fails with ErrInvalidInput and leaves the history unchanged.
func (b *SpectrogramBuffer) Push(s *Spectrum) (*SpectrogramView, error) {
	if len(s.Magnitudes) != b.bins {
		return nil, fmt.Errorf("%w: spectrum has %d bins, want %d", ErrInvalidInput, len(s.Magnitudes), b.bins)
	}
	copy(b.slots[b.oldest], s.Magnitudes)
	b.oldest = (b.oldest + 1) % len(b.slots)
	return b.View(), nil
}

// View builds the transposed magnitude and decibel views and their display
// limits from the current history.
func (b *SpectrogramBuffer) View() *SpectrogramView {
	width := len(b.slots)
	mag := newMatrix(b.bins, width)
	db := newMatrix(b.bins, width)

	k := 0
	for j := range width {
		slot := b.Slot(j)
		for i, m := range slot {
			mag[i][j] = m
			d := Decibels(m)
			db[i][j] = d
			b.scratch[k] = d
			k++
		}
	}

	slices.Sort(b.scratch)
	return &SpectrogramView{
		Magnitudes: mag,
		Decibels:   db,
		Low:        stat.Quantile(LowPercentile, stat.LinInterp, b.scratch, nil),
		High:       stat.Quantile(HighPercentile, stat.LinInterp, b.scratch, nil),
	}
}

// Decibels converts a magnitude to 20*log10(m + DecibelEpsilon).
func Decibels(m float64) float64 {
	return 20 * math.Log10(m+DecibelEpsilon)
}

func newMatrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}
