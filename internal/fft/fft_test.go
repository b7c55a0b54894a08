// SPDX-License-Identifier: MIT
package fft

import (
	"analyzer/pkg/signal"
	"math"
	"testing"
)

const (
	testFFTSize    = 1024
	testSampleRate = 44100
)

func newTestProcessor(t testing.TB) *Processor {
	t.Helper()
	p, err := NewProcessor(testFFTSize, testSampleRate)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return p
}

func TestNewProcessorRejectsBadSizes(t *testing.T) {
	tests := []struct {
		name string
		size int
		rate float64
	}{
		{"zero", 0, testSampleRate},
		{"one", 1, testSampleRate},
		{"not power of two", 1000, testSampleRate},
		{"zero rate", 1024, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProcessor(tt.size, tt.rate); err == nil {
				t.Errorf("NewProcessor(%d, %.0f) expected error", tt.size, tt.rate)
			}
		})
	}
}

func TestHammingWindow(t *testing.T) {
	p := newTestProcessor(t)
	w := p.Window()
	if math.Abs(w[0]-0.08) > 1e-12 || math.Abs(w[len(w)-1]-0.08) > 1e-12 {
		t.Errorf("window edges = %.4f, %.4f, want 0.08", w[0], w[len(w)-1])
	}
	for i := range w {
		if math.Abs(w[i]-w[len(w)-1-i]) > 1e-12 {
			t.Fatalf("window not symmetric at %d", i)
		}
	}
}

func TestProcessZeroInput(t *testing.T) {
	p := newTestProcessor(t)
	dst := make([]float64, p.Bins())
	if err := p.Process(make([]int16, testFFTSize), dst); err != nil {
		t.Fatal(err)
	}
	for i, m := range dst {
		if m != 0 {
			t.Fatalf("bin %d = %g, want 0", i, m)
		}
	}
}

func TestProcessSinePeak(t *testing.T) {
	p := newTestProcessor(t)
	// Bin-centred tone: bin 40 at 1024 points.
	freq := 40 * float64(testSampleRate) / testFFTSize
	block := signal.GenerateSineWave(testFFTSize, testSampleRate, freq, 10000)
	dst := make([]float64, p.Bins())
	if err := p.Process(block, dst); err != nil {
		t.Fatal(err)
	}

	peak := signal.FindPeakBin(dst, 0, len(dst))
	if peak != 40 {
		t.Fatalf("peak bin = %d, want 40", peak)
	}
	// A·0.54/2 for a centred tone under a Hamming window.
	want := 10000 * 0.54 / 2
	if math.Abs(dst[peak]-want)/want > 0.02 {
		t.Errorf("peak magnitude = %.1f, want about %.1f", dst[peak], want)
	}
	if got := p.Frequency(peak); math.Abs(got-freq) > 1e-9 {
		t.Errorf("Frequency(%d) = %f, want %f", peak, got, freq)
	}
}

func TestProcessLengthMismatch(t *testing.T) {
	p := newTestProcessor(t)
	if err := p.Process(make([]int16, 10), make([]float64, p.Bins())); err == nil {
		t.Error("expected error for short block")
	}
	if err := p.Process(make([]int16, testFFTSize), make([]float64, 3)); err == nil {
		t.Error("expected error for short destination")
	}
}

func TestFFTHotPath(t *testing.T) {
	processor := newTestProcessor(t)

	inputBuffer := make([]int16, testFFTSize)
	for i := range inputBuffer {
		inputBuffer[i] = int16((i%256 - 128) * 100) // Arbitrary non-zero data
	}
	dst := make([]float64, processor.Bins())

	// Warm-up call so the first Process does not count.
	_ = processor.Process(inputBuffer, dst)
	allocs := testing.AllocsPerRun(100, func() {
		_ = processor.Process(inputBuffer, dst)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in FFT Process hot path, got %.1f", allocs)
	}
}

func TestFrequencyZeroAllocs(t *testing.T) {
	processor := newTestProcessor(t)

	allocs := testing.AllocsPerRun(100, func() {
		_ = processor.Frequency(0)               // DC component
		_ = processor.Frequency(10)              // Low frequency
		_ = processor.Frequency(testFFTSize / 4) // Mid frequency
		_ = processor.Frequency(-1)              // Out of range
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in Frequency, got %.1f", allocs)
	}
}

func BenchmarkProcess(b *testing.B) {
	processor := newTestProcessor(b)
	inputBuffer := signal.GenerateComplexWave(testFFTSize, testSampleRate, 440, 20000)
	dst := make([]float64, processor.Bins())

	b.ReportAllocs()

	for b.Loop() {
		_ = processor.Process(inputBuffer, dst)
	}
}
