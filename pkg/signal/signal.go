// SPDX-License-Identifier: MIT
//
// Package signal generates deterministic 16-bit test signals: pure tones,
// a tone with harmonics, linear chirps and constant blocks. The synthetic
// block source and the analysis tests both draw their input from here.
package signal

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects the shape produced by an Oscillator.
type Waveform int

const (
	Sine Waveform = iota
	Harmonics
	Chirp
	Silence
)

// String returns the configuration name of the waveform.
func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Harmonics:
		return "harmonics"
	case Chirp:
		return "chirp"
	case Silence:
		return "silence"
	default:
		return "unknown"
	}
}

// ParseWaveform converts a case-insensitive name to a Waveform. Unknown
// names return Sine and an error.
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(name) {
	case "sine", "":
		return Sine, nil
	case "harmonics", "complex":
		return Harmonics, nil
	case "chirp", "sweep":
		return Chirp, nil
	case "silence", "zero":
		return Silence, nil
	default:
		return Sine, fmt.Errorf("unknown waveform: '%s'", name)
	}
}

// Oscillator produces a continuous signal across successive Fill calls.
// Chirps sweep linearly from Frequency to SweepTo over SweepSeconds and
// then restart.
type Oscillator struct {
	Waveform     Waveform
	SampleRate   float64
	Frequency    float64
	SweepTo      float64
	SweepSeconds float64
	Amplitude    float64 // Peak amplitude in int16 units.

	phase float64 // Radians, kept in [0, 2π).
	n     int64   // Samples emitted so far.
}

// NewOscillator returns an oscillator starting at phase zero. Chirps sweep
// from frequency to three times frequency over four seconds.
func NewOscillator(waveform Waveform, sampleRate, frequency, amplitude float64) *Oscillator {
	return &Oscillator{
		Waveform:     waveform,
		SampleRate:   sampleRate,
		Frequency:    frequency,
		SweepTo:      frequency * 3,
		SweepSeconds: 4,
		Amplitude:    amplitude,
	}
}

// Fill writes the next len(dst) samples into dst.
func (o *Oscillator) Fill(dst []int16) {
	for i := range dst {
		dst[i] = quantize(o.next())
	}
}

func (o *Oscillator) next() float64 {
	freq := o.Frequency
	if o.Waveform == Chirp && o.SweepSeconds > 0 {
		period := int64(o.SweepSeconds * o.SampleRate)
		if period > 0 {
			progress := float64(o.n%period) / float64(period)
			freq = o.Frequency + (o.SweepTo-o.Frequency)*progress
		}
	}
	o.n++

	var v float64
	switch o.Waveform {
	case Silence:
		v = 0
	case Harmonics:
		v = math.Sin(o.phase)*0.5 +
			math.Sin(2*o.phase)*0.3 +
			math.Sin(3*o.phase)*0.2
	default:
		v = math.Sin(o.phase)
	}

	o.phase += 2 * math.Pi * freq / o.SampleRate
	if o.phase >= 2*math.Pi {
		o.phase = math.Mod(o.phase, 2*math.Pi)
	}
	return v * o.Amplitude
}

func quantize(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// GenerateSineWave returns size samples of a sine starting at phase zero.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []int16 {
	buffer := make([]int16, size)
	NewOscillator(Sine, sampleRate, frequency, amplitude).Fill(buffer)
	return buffer
}

// GenerateComplexWave returns a fundamental with its second and third
// harmonics mixed 0.5/0.3/0.2.
func GenerateComplexWave(size int, sampleRate, fundamental, amplitude float64) []int16 {
	buffer := make([]int16, size)
	NewOscillator(Harmonics, sampleRate, fundamental, amplitude).Fill(buffer)
	return buffer
}

// GenerateChirp returns a linear sweep from f0 to f1 across the buffer.
func GenerateChirp(size int, sampleRate, f0, f1, amplitude float64) []int16 {
	buffer := make([]int16, size)
	osc := NewOscillator(Chirp, sampleRate, f0, amplitude)
	osc.SweepTo = f1
	osc.SweepSeconds = float64(size) / sampleRate
	osc.Fill(buffer)
	return buffer
}

// GenerateConstant returns size copies of value; its RMS is |value|.
func GenerateConstant(size int, value int16) []int16 {
	buffer := make([]int16, size)
	for i := range buffer {
		buffer[i] = value
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude within
// [startBin, endBin], clamped to the slice bounds.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
