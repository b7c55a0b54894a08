// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"time"
)

// CeilingHeadroom scales the largest magnitude into the spectrum display
// ceiling.
const CeilingHeadroom = 1.3

// Frame is everything computed for one block. A new Frame is built per block
// and handed to renderers; the analyzer keeps no reference to it.
type Frame struct {
	Sequence      uint64
	Time          time.Time
	Waveform      Block
	Spectrum      *Spectrum
	Detection     Detection
	RMS           float64
	Loudness      float64 // Average RMS over the loudness history.
	PeakAmplitude int32
	Clipped       bool
	Bands         []BandLevel
	Onset         bool
	Spectrogram   *SpectrogramView
	Ceiling       float64 // Spectrum display ceiling, 0 for an all-zero spectrum.
	Status        string

	// Degraded frames stand in for blocks that could not be read or
	// analysed. Err holds the cause.
	Degraded bool
	Err      error
}

// StatusText renders the one-line summary shown under the plots.
func StatusText(d Detection, loudness float64) string {
	volume := int(loudness)
	switch d.State {
	case Detected:
		return fmt.Sprintf("Note: %s | Frequency: %.1f Hz | Tuning: %s | Volume: %d",
			d.Note, d.Peak.Refined, d.Tuning.Label, volume)
	case DetectedNoNote:
		return fmt.Sprintf("Frequency: %.1f Hz | Volume: %d", d.Peak.Refined, volume)
	case NotDetected:
		return fmt.Sprintf("Listening... Volume: %d", volume)
	default:
		return "Too quiet or no sound detected"
	}
}

func degradedStatus(err error) string {
	return fmt.Sprintf("No signal: %v", err)
}
