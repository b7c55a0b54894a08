// SPDX-License-Identifier: MIT
package audio

import (
	"analyzer/pkg/signal"
	"context"
	"errors"
	"testing"
	"time"
)

func TestSynthSourceContinuity(t *testing.T) {
	src := NewSynthSource(signal.Sine, 440, testSampleRate, testBlockSize, SynthAmplitude, false)
	defer src.Close()

	var got []int16
	for range 4 {
		block, err := src.NextBlock(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(block) != testBlockSize {
			t.Fatalf("block length = %d, want %d", len(block), testBlockSize)
		}
		got = append(got, block...)
	}

	want := signal.GenerateSineWave(4*testBlockSize, testSampleRate, 440, SynthAmplitude)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d (phase not carried across blocks)", i, got[i], want[i])
		}
	}
}

func TestSynthSourcePacing(t *testing.T) {
	// 441 samples at 44.1 kHz is 10 ms per block.
	src := NewSynthSource(signal.Sine, 440, testSampleRate, 441, SynthAmplitude, true)

	start := time.Now()
	for range 3 {
		if _, err := src.NextBlock(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("3 paced blocks took %v, want at least 25ms", elapsed)
	}
}

func TestSynthSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, realtime := range []bool{false, true} {
		src := NewSynthSource(signal.Sine, 440, testSampleRate, testBlockSize, SynthAmplitude, realtime)
		if _, err := src.NextBlock(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("realtime=%v: NextBlock error = %v, want context.Canceled", realtime, err)
		}
	}
}
