// SPDX-License-Identifier: MIT
package analysis

import "errors"

// Error kinds reported by the analysis pipeline and its block sources.
// Callers match them with errors.Is; concrete errors wrap them with detail.
var (
	// ErrInvalidInput marks a block or spectrum whose length does not match
	// the configured block size. It fails the call, never the process.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutOfRange marks a note conversion outside the defined frequency domain.
	ErrOutOfRange = errors.New("frequency out of range")

	// ErrDevice marks a capture failure surfaced by a block source. The
	// pipeline answers it with a degraded frame and keeps going.
	ErrDevice = errors.New("device error")
)
