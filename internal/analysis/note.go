// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// Equal temperament reference: A4 is note number 69 at 440 Hz.
const (
	ReferenceFrequency = 440.0
	ReferenceNote      = 69

	// MinNoteFrequency is the lowest frequency NoteForFrequency accepts.
	MinNoteFrequency = 20.0
)

// NoteNames are the twelve pitch classes starting at C.
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is the nearest equal-tempered pitch to a frequency.
type Note struct {
	Name       string  // Pitch class name, e.g. "A".
	PitchClass int     // 0 (C) through 11 (B).
	Octave     int     // Scientific octave; A4 is octave 4.
	Number     int     // Note number; A4 is 69.
	Frequency  float64 // Exact equal-tempered frequency of the note.
	Cents      float64 // Signed deviation of the measured frequency.
}

// String returns the note in scientific pitch notation, e.g. "A4".
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// NoteForFrequency converts f to the nearest note and its deviation in cents.
// Frequencies below MinNoteFrequency, and non-finite values, fail with
// ErrOutOfRange.
func NoteForFrequency(f float64) (Note, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < MinNoteFrequency {
		return Note{}, fmt.Errorf("%w: %.2f Hz is below %.0f Hz", ErrOutOfRange, f, MinNoteFrequency)
	}

	number := int(math.Round(12*math.Log2(f/ReferenceFrequency) + ReferenceNote))
	n := noteFromNumber(number)
	n.Cents = 1200 * math.Log2(f/n.Frequency)
	return n, nil
}

// NoteFrequency returns the equal-tempered frequency of a pitch class in an
// octave, e.g. NoteFrequency(9, 4) == 440.
func NoteFrequency(pitchClass, octave int) float64 {
	return NumberFrequency((octave+1)*12 + pitchClass)
}

// NumberFrequency returns the equal-tempered frequency of a note number.
func NumberFrequency(number int) float64 {
	return ReferenceFrequency * math.Pow(2, float64(number-ReferenceNote)/12)
}

func noteFromNumber(number int) Note {
	pc := ((number % 12) + 12) % 12
	octave := (number-pc)/12 - 1
	return Note{
		Name:       NoteNames[pc],
		PitchClass: pc,
		Octave:     octave,
		Number:     number,
		Frequency:  NumberFrequency(number),
	}
}

// Tuning describes how far a note is from its equal-tempered pitch.
type Tuning struct {
	Label  string
	Cents  float64
	InTune bool
}

// TuningFor labels a cents deviation: "in tune" when |cents| < tolerance,
// otherwise "sharp by N cents" or "flat by N cents".
func TuningFor(cents, tolerance float64) Tuning {
	switch {
	case math.Abs(cents) < tolerance:
		return Tuning{Label: "in tune", Cents: cents, InTune: true}
	case cents > 0:
		return Tuning{Label: fmt.Sprintf("sharp by %.0f cents", cents), Cents: cents}
	default:
		return Tuning{Label: fmt.Sprintf("flat by %.0f cents", -cents), Cents: cents}
	}
}
