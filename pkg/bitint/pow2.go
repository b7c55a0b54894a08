// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used to validate and
suggest analysis block sizes. The FFT stage only accepts power-of-two
lengths, so configuration errors are reported together with the nearest
valid sizes on either side.

Usage:

	if !bitint.IsPowerOfTwo(blockSize) {
		lo, hi := bitint.Neighbours(blockSize) // 1000 -> 512, 1024
	}

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of two are preserved:

	size 8:  bits.Len(7) = 3, 1<<3 = 8
	size 9:  bits.Len(8) = 4, 1<<4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size.
// Non-positive sizes map to 1.
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// PrevPowerOfTwo returns the largest power of two <= size.
// Non-positive sizes map to 1.
func PrevPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// Neighbours returns the closest powers of two below and above size. For a
// size that already is a power of two both values equal size.
func Neighbours(size int) (lo, hi int) {
	return PrevPowerOfTwo(size), NextPowerOfTwo(size)
}

// IsPowerOfTwo reports whether n is a positive power of two.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
