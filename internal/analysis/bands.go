// SPDX-License-Identifier: MIT
package analysis

import "math"

// FrequencyBand defines the name and frequency range of an energy band.
// A zero HighHz extends the band to the Nyquist frequency.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands splits the spectrum into six perceptual ranges.
var DefaultBands = []FrequencyBand{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000},
}

// BandLevel is the energy of one band for one block. Level is the RMS of the
// band's smoothed magnitudes; Relative is Level divided by the loudest band.
type BandLevel struct {
	Name     string
	Level    float64
	Relative float64
}

// BandMeter measures energy per frequency band. Bin ranges are resolved
// once at construction.
type BandMeter struct {
	bands  []FrequencyBand
	ranges [][2]int // Half-open bin ranges per band.
}

// NewBandMeter resolves bands against a spectrum of bins bins spaced
// binWidth Hz apart.
func NewBandMeter(bands []FrequencyBand, bins int, binWidth float64) *BandMeter {
	nyquist := float64(bins) * binWidth
	m := &BandMeter{
		bands:  bands,
		ranges: make([][2]int, len(bands)),
	}
	for b, band := range bands {
		high := band.HighHz
		if high <= 0 || high > nyquist {
			high = nyquist
		}
		lo := int(math.Ceil(band.LowHz / binWidth))
		hi := int(math.Ceil(high / binWidth))
		m.ranges[b] = [2]int{min(max(lo, 0), bins), min(max(hi, 0), bins)}
	}
	return m
}

// Measure returns one level per band, in band order.
func (m *BandMeter) Measure(s *Spectrum) []BandLevel {
	levels := make([]BandLevel, len(m.bands))
	var loudest float64
	for b, band := range m.bands {
		lo, hi := m.ranges[b][0], min(m.ranges[b][1], len(s.Magnitudes))
		var energy float64
		for i := lo; i < hi; i++ {
			energy += s.Magnitudes[i] * s.Magnitudes[i]
		}
		level := 0.0
		if hi > lo {
			level = math.Sqrt(energy / float64(hi-lo))
		}
		levels[b] = BandLevel{Name: band.Name, Level: level}
		loudest = math.Max(loudest, level)
	}
	if loudest > 0 {
		for b := range levels {
			levels[b].Relative = levels[b].Level / loudest
		}
	}
	return levels
}
