// SPDX-License-Identifier: MIT
package transport

import (
	"analyzer/internal/analysis"
	"analyzer/internal/log"
	"time"
)

// LoggingRenderer writes frame summaries to the log. Changes of detection
// state or note are logged at info level, at most once per interval; every
// frame is logged at debug level.
type LoggingRenderer struct {
	throttle  throttle
	lastState analysis.DetectionState
	lastNote  string
	started   bool
}

// NewLoggingRenderer returns a renderer logging at most one change per
// interval.
func NewLoggingRenderer(interval time.Duration) *LoggingRenderer {
	log.Infof("transport: logging frame summaries")
	return &LoggingRenderer{throttle: throttle{interval: interval}}
}

// Render logs frame.
func (l *LoggingRenderer) Render(frame *analysis.Frame) {
	if frame.Degraded {
		log.Warnf("frame %d: %s", frame.Sequence, frame.Status)
		return
	}

	note := ""
	if frame.Detection.State == analysis.Detected {
		note = frame.Detection.Note.String()
	}
	changed := !l.started || frame.Detection.State != l.lastState || note != l.lastNote
	if changed && l.throttle.allow(frame.Time) {
		l.started = true
		l.lastState = frame.Detection.State
		l.lastNote = note
		log.Infof("frame %d: %s", frame.Sequence, frame.Status)
	} else if log.Enabled(log.LevelDebug) {
		log.Debugf("frame %d: %s", frame.Sequence, frame.Status)
	}
	if frame.Onset {
		log.Debugf("frame %d: onset (rms %.1f)", frame.Sequence, frame.RMS)
	}
}

// Close is a no-op.
func (l *LoggingRenderer) Close() error { return nil }

var _ Renderer = (*LoggingRenderer)(nil)
