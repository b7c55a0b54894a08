// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"
)

func constSpectrum(bins int, v float64) *Spectrum {
	mags := make([]float64, bins)
	for i := range mags {
		mags[i] = v
	}
	return &Spectrum{Magnitudes: mags}
}

func TestSpectrogramStartsZeroed(t *testing.T) {
	b, err := NewSpectrogramBuffer(4, 3)
	if err != nil {
		t.Fatal(err)
	}
	v := b.View()
	if v.Bins() != 3 || v.Width() != 4 {
		t.Fatalf("view is %dx%d, want 3x4", v.Bins(), v.Width())
	}
	for i := range v.Decibels {
		for j := range v.Decibels[i] {
			if v.Magnitudes[i][j] != 0 {
				t.Fatalf("magnitude[%d][%d] = %g, want 0", i, j, v.Magnitudes[i][j])
			}
			if math.Abs(v.Decibels[i][j]+200) > 1e-9 {
				t.Fatalf("decibels[%d][%d] = %g, want -200", i, j, v.Decibels[i][j])
			}
		}
	}
	if math.Abs(v.Low+200) > 1e-9 || math.Abs(v.High+200) > 1e-9 {
		t.Errorf("limits = [%g, %g], want -200", v.Low, v.High)
	}
}

func TestSpectrogramFIFO(t *testing.T) {
	const width, bins, pushes = 4, 3, 9
	b, err := NewSpectrogramBuffer(width, bins)
	if err != nil {
		t.Fatal(err)
	}

	var v *SpectrogramView
	for m := 1; m <= pushes; m++ {
		v, err = b.Push(constSpectrum(bins, float64(m)))
		if err != nil {
			t.Fatal(err)
		}
		if v.Width() != width {
			t.Fatalf("after %d pushes width = %d, want %d", m, v.Width(), width)
		}
	}

	// Slot 0 holds s_{M-W+1}; slots follow in arrival order.
	for j := range width {
		want := float64(pushes - width + 1 + j)
		if got := b.Slot(j)[0]; got != want {
			t.Errorf("Slot(%d) = %g, want %g", j, got, want)
		}
		for i := range bins {
			if v.Magnitudes[i][j] != want {
				t.Errorf("view[%d][%d] = %g, want %g", i, j, v.Magnitudes[i][j], want)
			}
		}
	}
}

func TestSpectrogramViewIsSnapshot(t *testing.T) {
	b, err := NewSpectrogramBuffer(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	v, err := b.Push(constSpectrum(2, 5))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Push(constSpectrum(2, 7)); err != nil {
		t.Fatal(err)
	}
	if v.Magnitudes[0][1] != 5 {
		t.Errorf("earlier view changed after push: %g", v.Magnitudes[0][1])
	}
}

func TestSpectrogramRejectsWrongBins(t *testing.T) {
	b, err := NewSpectrogramBuffer(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Push(constSpectrum(4, 1)); err != nil {
		t.Fatal(err)
	}
	_, err = b.Push(constSpectrum(5, 9))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if got := b.Slot(2)[0]; got != 1 {
		t.Errorf("newest slot = %g after rejected push, want 1", got)
	}
}

func TestSpectrogramPercentiles(t *testing.T) {
	b, err := NewSpectrogramBuffer(10, 10)
	if err != nil {
		t.Fatal(err)
	}
	var v *SpectrogramView
	for m := 1; m <= 10; m++ {
		mags := make([]float64, 10)
		for i := range mags {
			mags[i] = float64(m * (i + 1))
		}
		if v, err = b.Push(&Spectrum{Magnitudes: mags}); err != nil {
			t.Fatal(err)
		}
	}

	lowest, highest := Decibels(1), Decibels(100)
	if v.Low < lowest || v.High > highest || v.Low >= v.High {
		t.Errorf("limits [%.2f, %.2f] outside [%.2f, %.2f]", v.Low, v.High, lowest, highest)
	}
	// A single huge outlier barely moves the 99th percentile.
	mags := make([]float64, 10)
	mags[0] = 1e9
	if v, err = b.Push(&Spectrum{Magnitudes: mags}); err != nil {
		t.Fatal(err)
	}
	if v.High > Decibels(100) {
		t.Errorf("high limit %.2f followed a single outlier", v.High)
	}
}

func TestDecibels(t *testing.T) {
	if got := Decibels(0); math.Abs(got+200) > 1e-9 {
		t.Errorf("Decibels(0) = %g, want -200", got)
	}
	if got := Decibels(1); math.Abs(got) > 1e-6 {
		t.Errorf("Decibels(1) = %g, want 0", got)
	}
	if got := Decibels(10); math.Abs(got-20) > 1e-6 {
		t.Errorf("Decibels(10) = %g, want 20", got)
	}
}
