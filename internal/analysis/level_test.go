// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func TestPeakAmplitude(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  int32
	}{
		{"empty", nil, 0},
		{"zeros", make(Block, 64), 0},
		{"positive", Block{1, 5, 3}, 5},
		{"negative", Block{-1, -9, 4}, 9},
		{"min int16", Block{0, math.MinInt16, 100}, 32768},
		{"max int16", Block{math.MaxInt16, -2}, 32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeakAmplitude(tt.block); got != tt.want {
				t.Errorf("PeakAmplitude() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClipped(t *testing.T) {
	if Clipped(Block{100, -32000}) {
		t.Error("unclipped block reported as clipped")
	}
	if !Clipped(Block{100, math.MinInt16}) {
		t.Error("full scale negative sample not reported")
	}
}

// TestPeakAmplitudeHotPath checks the level scan stays allocation free.
func TestPeakAmplitudeHotPath(t *testing.T) {
	block := make(Block, 2048)
	for i := range block {
		block[i] = int16((i%100 - 50) * 600)
	}

	allocs := testing.AllocsPerRun(100, func() {
		_ = PeakAmplitude(block)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in PeakAmplitude, got %.1f", allocs)
	}
}

func BenchmarkPeakAmplitude(b *testing.B) {
	block := make(Block, 2048)
	for i := range block {
		block[i] = int16((i%100 - 50) * 600)
	}
	for b.Loop() {
		_ = PeakAmplitude(block)
	}
}
