// SPDX-License-Identifier: MIT
package audio

import (
	"analyzer/internal/analysis"
	"analyzer/internal/log"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder wraps a BlockSource and writes every block it delivers to a
// 16-bit mono WAV file while recording is active. Start and Stop may be
// called from another goroutine than the one reading blocks.
type Recorder struct {
	source     BlockSource
	sampleRate int

	isRecording atomic.Bool
	mu          sync.Mutex // Guards the fields below.
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion.
	path        string
}

var _ BlockSource = (*Recorder)(nil)

// NewRecorder wraps source. Nothing is written until Start.
func NewRecorder(source BlockSource, sampleRate float64, blockSize int) *Recorder {
	return &Recorder{
		source:     source,
		sampleRate: int(sampleRate),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 1,
				SampleRate:  int(sampleRate),
			},
			Data:           make([]int, blockSize),
			SourceBitDepth: 16,
		},
	}
}

// RecordingPath returns a time-stamped file name in dir.
func RecordingPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("analyzer-%s.wav", now.Format("20060102-150405")))
}

// Start creates filename and begins recording to it.
func (r *Recorder) Start(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRecording.Load() {
		return fmt.Errorf("already recording")
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, 16, 1, 1)
	r.path = filename
	r.isRecording.Store(true)

	log.Infof("audio: recording to %s", filename)
	return nil
}

// Stop finishes the WAV file. Stopping when not recording is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRecording.Load() {
		return nil
	}
	r.isRecording.Store(false)

	var encErr, fileErr error
	if r.wavEncoder != nil {
		encErr = r.wavEncoder.Close()
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		fileErr = r.outputFile.Close()
		r.outputFile = nil
	}
	return errors.Join(encErr, fileErr)
}

// Recording reports whether blocks are currently written.
func (r *Recorder) Recording() bool { return r.isRecording.Load() }

// Path returns the file of the current or last recording.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// NextBlock reads from the wrapped source and records the block. A failed
// write is logged and stops the recording; the block is still returned.
func (r *Recorder) NextBlock(ctx context.Context) (analysis.Block, error) {
	block, err := r.source.NextBlock(ctx)
	if err != nil || !r.isRecording.Load() {
		return block, err
	}

	if werr := r.write(block); werr != nil {
		log.Errorf("audio: error writing to WAV file, recording stopped: %v", werr)
		if serr := r.Stop(); serr != nil {
			log.Errorf("audio: error closing WAV file: %v", serr)
		}
	}
	return block, nil
}

func (r *Recorder) write(block analysis.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil {
		return nil
	}

	if cap(r.sampleBuf.Data) < len(block) {
		r.sampleBuf.Data = make([]int, len(block))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(block)]
	for i, s := range block {
		r.sampleBuf.Data[i] = int(s)
	}
	return r.wavEncoder.Write(r.sampleBuf)
}

// Close stops recording and closes the wrapped source.
func (r *Recorder) Close() error {
	return errors.Join(r.Stop(), r.source.Close())
}
