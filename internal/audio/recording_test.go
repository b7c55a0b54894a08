// SPDX-License-Identifier: MIT
package audio

import (
	"analyzer/pkg/signal"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	testSampleRate = 44100
	testBlockSize  = 256
)

func newTestRecorder() (*Recorder, *scriptedSource) {
	src := &scriptedSource{synth: NewSynthSource(signal.Sine, 440, testSampleRate, testBlockSize, SynthAmplitude, false)}
	return NewRecorder(src, testSampleRate, testBlockSize), src
}

func TestRecordingPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	got := RecordingPath("out", now)
	want := filepath.Join("out", "analyzer-20240309-140507.wav")
	if got != want {
		t.Errorf("RecordingPath() = %q, want %q", got, want)
	}
}

func TestRecordingRoundTrip(t *testing.T) {
	rec, _ := newTestRecorder()
	path := filepath.Join(t.TempDir(), "nested", "take.wav")

	if err := rec.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !rec.Recording() {
		t.Fatal("Recording() = false after Start")
	}

	var written []int16
	for range 3 {
		block, err := rec.NextBlock(context.Background())
		if err != nil {
			t.Fatalf("NextBlock: %v", err)
		}
		written = append(written, block...)
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec.Recording() {
		t.Error("Recording() = true after Stop")
	}
	if rec.Path() != path {
		t.Errorf("Path() = %q, want %q", rec.Path(), path)
	}

	src, err := OpenWav(path, testBlockSize, false)
	if err != nil {
		t.Fatalf("OpenWav on recording: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != testSampleRate || src.Channels() != 1 {
		t.Errorf("recording format = %v Hz, %d ch, want %d Hz mono", src.SampleRate(), src.Channels(), testSampleRate)
	}
	blocks := readAllBlocks(t, src)
	if len(blocks) != 3 {
		t.Fatalf("read back %d blocks, want 3", len(blocks))
	}
	for b, block := range blocks {
		for i, v := range block {
			if want := written[b*testBlockSize+i]; v != want {
				t.Fatalf("block %d sample %d = %d, want %d", b, i, v, want)
			}
		}
	}
}

func TestRecordingAlreadyRecording(t *testing.T) {
	rec, _ := newTestRecorder()
	dir := t.TempDir()

	if err := rec.Start(filepath.Join(dir, "a.wav")); err != nil {
		t.Fatal(err)
	}
	defer rec.Stop()

	err := rec.Start(filepath.Join(dir, "b.wav"))
	if err == nil || !strings.Contains(err.Error(), "already recording") {
		t.Errorf("second Start error = %v, want 'already recording'", err)
	}
}

func TestRecordingInvalidPath(t *testing.T) {
	rec, _ := newTestRecorder()

	// A regular file cannot hold a directory.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := rec.Start(filepath.Join(blocker, "sub", "take.wav")); err == nil {
		t.Error("expected error for path below a regular file")
	}
	if rec.Recording() {
		t.Error("Recording() = true after failed Start")
	}
}

func TestRecordingStopWhenIdle(t *testing.T) {
	rec, _ := newTestRecorder()
	if err := rec.Stop(); err != nil {
		t.Errorf("Stop when idle = %v, want nil", err)
	}
}

func TestRecordingPassThroughWhenIdle(t *testing.T) {
	rec, _ := newTestRecorder()
	block, err := rec.NextBlock(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(block) != testBlockSize {
		t.Errorf("block length = %d, want %d", len(block), testBlockSize)
	}
	if rec.Path() != "" {
		t.Errorf("Path() = %q before any recording", rec.Path())
	}
}

func TestRecordingClose(t *testing.T) {
	rec, src := newTestRecorder()
	if err := rec.Start(filepath.Join(t.TempDir(), "take.wav")); err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rec.Recording() {
		t.Error("Recording() = true after Close")
	}
	if !src.closed {
		t.Error("wrapped source not closed")
	}
}
