// SPDX-License-Identifier: MIT
package analysis

import "math"

// DetectionState tells the four outcomes of tone detection apart.
type DetectionState int

const (
	// Silent means the loudest bin did not clear the silence gate.
	Silent DetectionState = iota
	// NotDetected means no bin exceeded the peak threshold.
	NotDetected
	// DetectedNoNote means a peak was found outside the note range.
	DetectedNoNote
	// Detected means a peak was found and converted to a note.
	Detected
)

func (s DetectionState) String() string {
	switch s {
	case Silent:
		return "silent"
	case NotDetected:
		return "not detected"
	case DetectedNoNote:
		return "detected without note"
	case Detected:
		return "detected"
	default:
		return "unknown"
	}
}

// Peak is the dominant bin of a spectrum. Frequency is the bin frequency
// i*R/N. Refined interpolates between bins using the raw magnitudes and is
// the frequency notes are derived from.
type Peak struct {
	Index     int
	Frequency float64
	Magnitude float64
	Refined   float64
}

// Detection is the result of ToneDetector.Detect. Peak is set for Detected
// and DetectedNoNote, Note and Tuning for Detected only.
type Detection struct {
	State        DetectionState
	Peak         Peak
	Note         Note
	Tuning       Tuning
	MaxMagnitude float64
}

// HasPeak reports whether the detection carries a peak.
func (d Detection) HasPeak() bool {
	return d.State == Detected || d.State == DetectedNoNote
}

// ToneDetector finds the dominant peak of a spectrum and names its note.
// It is stateless; the loudness average is passed in per call.
type ToneDetector struct {
	silenceRatio   float64
	thresholdRatio float64
	minHz, maxHz   float64
	tolerance      float64
}

// NewToneDetector returns a detector using the gate, threshold, note range
// and tuning tolerance from p.
func NewToneDetector(p Params) *ToneDetector {
	return &ToneDetector{
		silenceRatio:   p.SilenceRatio,
		thresholdRatio: p.PeakThresholdRatio,
		minHz:          p.MinNoteHz,
		maxHz:          p.MaxNoteHz,
		tolerance:      p.TuningToleranceCents,
	}
}

// Detect classifies the spectrum. A maximum magnitude at or below
// loudnessAvg*silenceRatio is Silent regardless of spectral content.
func (t *ToneDetector) Detect(s *Spectrum, loudnessAvg float64) Detection {
	_, maxMag := s.Max()
	d := Detection{State: Silent, MaxMagnitude: maxMag}
	if maxMag <= loudnessAvg*t.silenceRatio {
		return d
	}

	threshold := maxMag * t.thresholdRatio
	idx := -1
	for i, m := range s.Magnitudes {
		if m > threshold && (idx < 0 || m > s.Magnitudes[idx]) {
			idx = i
		}
	}
	if idx < 0 {
		d.State = NotDetected
		return d
	}

	d.Peak = Peak{
		Index:     idx,
		Frequency: s.Frequency(idx),
		Magnitude: s.Magnitudes[idx],
		Refined:   refinePeak(s, idx),
	}
	d.State = DetectedNoNote
	if d.Peak.Frequency <= t.minHz || d.Peak.Frequency >= t.maxHz {
		return d
	}

	note, err := NoteForFrequency(d.Peak.Refined)
	if err != nil {
		return d
	}
	d.State = Detected
	d.Note = note
	d.Tuning = TuningFor(note.Cents, t.tolerance)
	return d
}

// refinePeak estimates the true frequency of the peak at bin idx. Smoothing
// can shift the maximum by up to two bins, so it first climbs to the local
// maximum of the raw magnitudes, then applies the Hamming magnitude-ratio
// interpolation between that bin and its larger neighbour.
func refinePeak(s *Spectrum, idx int) float64 {
	raw := s.Raw
	if len(raw) != len(s.Magnitudes) {
		return s.Frequency(idx)
	}

	k := idx
	for range 2 {
		switch {
		case k+1 < len(raw) && raw[k+1] > raw[k]:
			k++
		case k > 0 && raw[k-1] > raw[k]:
			k--
		}
	}
	if k < 1 || k >= len(raw)-1 || raw[k] == 0 {
		return s.Frequency(k)
	}

	var delta float64
	if raw[k+1] >= raw[k-1] {
		delta = solveHammingOffset(raw[k+1] / raw[k])
	} else {
		delta = -solveHammingOffset(raw[k-1] / raw[k])
	}
	return (float64(k) + delta) * s.BinWidth()
}

// hammingRatio is the neighbour to peak magnitude ratio of a Hamming
// windowed tone whose true frequency lies d bins above the peak bin.
func hammingRatio(d float64) float64 {
	num := (0.54 - 0.08*(1-d)*(1-d)) * (1 + d)
	den := (0.54 - 0.08*d*d) * (2 - d)
	return num / den
}

// solveHammingOffset inverts hammingRatio on [0, 0.5] by bisection.
func solveHammingOffset(ratio float64) float64 {
	if ratio <= hammingRatio(0) {
		return 0
	}
	if ratio >= 1 {
		return 0.5
	}
	lo, hi := 0.0, 0.5
	for range 40 {
		mid := (lo + hi) / 2
		if hammingRatio(mid) < ratio {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Min((lo+hi)/2, 0.5)
}
