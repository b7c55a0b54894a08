// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// LoudnessState is a fixed-capacity FIFO of recent RMS values. Once full,
// each push evicts the oldest value.
type LoudnessState struct {
	values []float64
	next   int // Slot the next push writes.
	count  int
}

// NewLoudnessState allocates a history holding up to capacity values.
func NewLoudnessState(capacity int) (*LoudnessState, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("loudness history capacity %d must be positive", capacity)
	}
	return &LoudnessState{values: make([]float64, capacity)}, nil
}

// Push appends v, evicting the oldest value when full.
func (s *LoudnessState) Push(v float64) {
	s.values[s.next] = v
	s.next = (s.next + 1) % len(s.values)
	if s.count < len(s.values) {
		s.count++
	}
}

// Len returns the number of values held.
func (s *LoudnessState) Len() int { return s.count }

// Cap returns the history capacity.
func (s *LoudnessState) Cap() int { return len(s.values) }

// Mean returns the arithmetic mean of the values held, or 0 when empty.
func (s *LoudnessState) Mean() float64 {
	if s.count == 0 {
		return 0
	}
	// Until the ring wraps the held values are exactly values[:count]; after
	// that every slot is held. Order does not matter for the mean.
	return stat.Mean(s.values[:s.count], nil)
}

// Values returns a copy of the held values, oldest first.
func (s *LoudnessState) Values() []float64 {
	out := make([]float64, 0, s.count)
	start := 0
	if s.count == len(s.values) {
		start = s.next
	}
	for i := range s.count {
		out = append(out, s.values[(start+i)%len(s.values)])
	}
	return out
}

// LoudnessTracker measures block RMS and keeps its moving average.
type LoudnessTracker struct {
	state *LoudnessState
}

// NewLoudnessTracker returns a tracker averaging over the last capacity blocks.
func NewLoudnessTracker(capacity int) (*LoudnessTracker, error) {
	state, err := NewLoudnessState(capacity)
	if err != nil {
		return nil, err
	}
	return &LoudnessTracker{state: state}, nil
}

// Update pushes the RMS of block into the history and returns it together
// with the new average.
func (t *LoudnessTracker) Update(block Block) (rms, avg float64) {
	rms = RMS(block)
	t.state.Push(rms)
	return rms, t.state.Mean()
}

// Average returns the current average without updating it.
func (t *LoudnessTracker) Average() float64 { return t.state.Mean() }

// State exposes the history for inspection. Callers must not push to it.
func (t *LoudnessTracker) State() *LoudnessState { return t.state }

// RMS returns the root-mean-square amplitude of block in sample units.
func RMS(block Block) float64 {
	if len(block) == 0 {
		return 0
	}
	var sumSquare float64
	for _, s := range block {
		v := float64(s)
		sumSquare += v * v
	}
	return math.Sqrt(sumSquare / float64(len(block)))
}
