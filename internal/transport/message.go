// SPDX-License-Identifier: MIT
package transport

import (
	"analyzer/internal/analysis"
	"time"
)

// BandMessage is the wire form of one band level.
type BandMessage struct {
	Name     string  `json:"name"`
	Level    float64 `json:"level"`
	Relative float64 `json:"relative"`
}

// FrameMessage is the JSON document published for each frame. The full
// spectrogram is not sent; clients rebuild it from successive columns.
type FrameMessage struct {
	Sequence  uint64    `json:"sequence"`
	Time      time.Time `json:"time"`
	State     string    `json:"state"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Frequency float64   `json:"frequency,omitempty"`
	Cents     float64   `json:"cents"`
	InTune    bool      `json:"in_tune"`
	Tuning    string    `json:"tuning,omitempty"`
	RMS       float64   `json:"rms"`
	Loudness  float64   `json:"loudness"`
	Peak      int32     `json:"peak"`
	Clipped   bool      `json:"clipped"`
	Onset     bool      `json:"onset"`
	Degraded  bool      `json:"degraded"`

	Ceiling  float64       `json:"ceiling"`
	BinWidth float64       `json:"bin_width"`
	Spectrum []float64     `json:"spectrum"`
	Bands    []BandMessage `json:"bands"`

	SpectrogramColumn []float64 `json:"spectrogram_column,omitempty"`
	SpectrogramLow    float64   `json:"spectrogram_low"`
	SpectrogramHigh   float64   `json:"spectrogram_high"`
}

// NewFrameMessage converts frame into its wire form. Slices are copied, so
// the message stays valid if the frame is reused.
func NewFrameMessage(frame *analysis.Frame) *FrameMessage {
	d := frame.Detection
	msg := &FrameMessage{
		Sequence: frame.Sequence,
		Time:     frame.Time,
		State:    d.State.String(),
		Status:   frame.Status,
		RMS:      frame.RMS,
		Loudness: frame.Loudness,
		Peak:     frame.PeakAmplitude,
		Clipped:  frame.Clipped,
		Onset:    frame.Onset,
		Degraded: frame.Degraded,
		Ceiling:  frame.Ceiling,
		Bands:    make([]BandMessage, len(frame.Bands)),
	}
	if d.HasPeak() {
		msg.Frequency = d.Peak.Refined
	}
	if d.State == analysis.Detected {
		msg.Note = d.Note.String()
		msg.Cents = d.Note.Cents
		msg.InTune = d.Tuning.InTune
		msg.Tuning = d.Tuning.Label
	}
	if s := frame.Spectrum; s != nil {
		msg.BinWidth = s.BinWidth()
		msg.Spectrum = append([]float64(nil), s.Magnitudes...)
	}
	for i, b := range frame.Bands {
		msg.Bands[i] = BandMessage{Name: b.Name, Level: b.Level, Relative: b.Relative}
	}
	if v := frame.Spectrogram; v != nil && v.Width() > 0 {
		msg.SpectrogramColumn = v.Column(v.Width() - 1)
		msg.SpectrogramLow = v.Low
		msg.SpectrogramHigh = v.High
	}
	return msg
}
