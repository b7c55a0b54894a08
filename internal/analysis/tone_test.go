// SPDX-License-Identifier: MIT
package analysis

import (
	"analyzer/pkg/signal"
	"math"
	"testing"
)

func sineSpectrum(t *testing.T, freq, amplitude float64) *Spectrum {
	t.Helper()
	e := newTestEstimator(t)
	s, err := e.Estimate(Block(signal.GenerateSineWave(DefaultBlockSize, DefaultSampleRate, freq, amplitude)))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func manualSpectrum(mags ...float64) *Spectrum {
	return &Spectrum{Magnitudes: mags, SampleRate: DefaultSampleRate, Size: 2 * len(mags)}
}

func TestDetectA440(t *testing.T) {
	s := sineSpectrum(t, 440, 10000)
	d := NewToneDetector(DefaultParams()).Detect(s, 10000/math.Sqrt2)

	if d.State != Detected {
		t.Fatalf("state = %v, want detected", d.State)
	}
	if d.Note.Name != "A" || d.Note.Octave != 4 {
		t.Errorf("note = %s, want A4", d.Note)
	}
	if math.Abs(d.Note.Cents) >= 1 {
		t.Errorf("cents = %.3f, want |cents| < 1", d.Note.Cents)
	}
	if !d.Tuning.InTune {
		t.Errorf("tuning = %q, want in tune", d.Tuning.Label)
	}
	if math.Abs(d.Peak.Frequency-float64(d.Peak.Index)*s.BinWidth()) > 1e-9 {
		t.Errorf("peak frequency %.3f is not the bin frequency of %d", d.Peak.Frequency, d.Peak.Index)
	}
}

func TestDetectNotes(t *testing.T) {
	tests := []struct {
		freq float64
		want string
	}{
		{110, "A2"},
		{220, "A3"},
		{261.63, "C4"},
		{329.63, "E4"},
		{880, "A5"},
		{1760, "A6"},
	}

	det := NewToneDetector(DefaultParams())
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			d := det.Detect(sineSpectrum(t, tt.freq, 10000), 10000/math.Sqrt2)
			if d.State != Detected {
				t.Fatalf("state = %v, want detected", d.State)
			}
			if d.Note.String() != tt.want {
				t.Errorf("note = %s, want %s", d.Note, tt.want)
			}
			if math.Abs(d.Note.Cents) > 5 {
				t.Errorf("cents = %.2f, want within 5", d.Note.Cents)
			}
		})
	}
}

func TestDetectSilenceGate(t *testing.T) {
	det := NewToneDetector(DefaultParams())
	s := manualSpectrum(0, 1, 10, 1, 0)

	if d := det.Detect(s, 100); d.State != Silent {
		t.Errorf("max == avg*ratio: state = %v, want silent", d.State)
	}
	if d := det.Detect(s, 1000); d.State != Silent {
		t.Errorf("max < avg*ratio: state = %v, want silent", d.State)
	}
	if d := det.Detect(s, 99); d.State == Silent {
		t.Errorf("max > avg*ratio: state = silent, want a peak")
	}
}

func TestDetectZeroSpectrumIsSilent(t *testing.T) {
	det := NewToneDetector(DefaultParams())
	d := det.Detect(manualSpectrum(make([]float64, 16)...), 0)
	if d.State != Silent || d.HasPeak() {
		t.Errorf("state = %v, want silent without peak", d.State)
	}
}

func TestDetectNoBinAboveThreshold(t *testing.T) {
	p := DefaultParams()
	p.PeakThresholdRatio = 1
	d := NewToneDetector(p).Detect(manualSpectrum(0, 3, 7, 3, 0), 0)
	if d.State != NotDetected {
		t.Errorf("state = %v, want not detected", d.State)
	}
}

func TestDetectOutsideNoteRange(t *testing.T) {
	mags := make([]float64, 1024)
	mags[200] = 50 // 200 * 44100/2048 ≈ 4307 Hz
	d := NewToneDetector(DefaultParams()).Detect(manualSpectrum(mags...), 10)

	if d.State != DetectedNoNote {
		t.Fatalf("state = %v, want detected without note", d.State)
	}
	if d.Peak.Index != 200 || math.Abs(d.Peak.Frequency-4306.640625) > 1e-6 {
		t.Errorf("peak = %+v, want bin 200 at 4306.64 Hz", d.Peak)
	}
}

func TestDetectTieBreaksLow(t *testing.T) {
	mags := make([]float64, 64)
	mags[10], mags[30] = 8, 8
	d := NewToneDetector(DefaultParams()).Detect(manualSpectrum(mags...), 0)
	if d.Peak.Index != 10 {
		t.Errorf("peak index = %d, want 10", d.Peak.Index)
	}
}

func TestSolveHammingOffset(t *testing.T) {
	for _, want := range []float64{0, 0.1, 0.25, 0.4, 0.5} {
		got := solveHammingOffset(hammingRatio(want))
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("solveHammingOffset(ratio(%.2f)) = %.6f", want, got)
		}
	}
	if got := solveHammingOffset(0.1); got != 0 {
		t.Errorf("ratio below minimum gave %.3f, want 0", got)
	}
}
