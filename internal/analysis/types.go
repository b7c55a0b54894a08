// SPDX-License-Identifier: MIT
package analysis

import "gonum.org/v1/gonum/floats"

// Block is one fixed-length chunk of signed 16-bit mono samples.
type Block []int16

// Spectrum is the magnitude spectrum of one block: N/2 values where index i
// corresponds to frequency i*R/N. Magnitudes holds the smoothed values used
// for detection and display. Raw holds |X|/N before smoothing.
type Spectrum struct {
	Magnitudes []float64
	Raw        []float64
	SampleRate float64
	Size       int // Block length N.
}

// Bins returns the number of magnitude values.
func (s *Spectrum) Bins() int { return len(s.Magnitudes) }

// BinWidth returns the spacing between bins in Hz.
func (s *Spectrum) BinWidth() float64 {
	if s.Size == 0 {
		return 0
	}
	return s.SampleRate / float64(s.Size)
}

// Frequency returns the frequency in Hz of bin i.
func (s *Spectrum) Frequency(i int) float64 {
	return float64(i) * s.BinWidth()
}

// Max returns the index and value of the largest smoothed magnitude. Ties
// resolve to the lowest index.
func (s *Spectrum) Max() (int, float64) {
	if len(s.Magnitudes) == 0 {
		return 0, 0
	}
	i := floats.MaxIdx(s.Magnitudes)
	return i, s.Magnitudes[i]
}
