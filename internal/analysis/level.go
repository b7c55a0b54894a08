// SPDX-License-Identifier: MIT
package analysis

// ClipLevel is the absolute sample value treated as clipping.
const ClipLevel = 32767

// PeakAmplitude returns the largest absolute sample value in block. The abs
// and max steps are branchless so the loop cost does not depend on the
// signal.
func PeakAmplitude(block Block) int32 {
	var peak int32
	for _, s := range block {
		sample := int32(s)
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - peak
		peak += (diff & (diff >> 31)) ^ diff
	}
	return peak
}

// Clipped reports whether any sample of block reached full scale.
func Clipped(block Block) bool {
	return PeakAmplitude(block) >= ClipLevel
}
