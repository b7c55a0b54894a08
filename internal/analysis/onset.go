// SPDX-License-Identifier: MIT
package analysis

// OnsetDetector flags blocks whose RMS jumps above the previous block's.
// It is a coarse energy onset detector, good enough for claps and plucks.
type OnsetDetector struct {
	floor float64 // Minimum RMS for an onset.
	ratio float64 // Minimum rise over the previous block.
	last  float64
}

// NewOnsetDetector returns a detector with the given floor and rise ratio.
func NewOnsetDetector(floor, ratio float64) *OnsetDetector {
	return &OnsetDetector{floor: floor, ratio: ratio}
}

// Update records rms and reports whether it is an onset: above the floor and
// either the first non-silent block or at least ratio times the last one.
func (d *OnsetDetector) Update(rms float64) bool {
	onset := rms > d.floor && (d.last == 0 || rms/d.last > d.ratio)
	d.last = rms
	return onset
}

// Reset forgets the previous block.
func (d *OnsetDetector) Reset() { d.last = 0 }
