// SPDX-License-Identifier: MIT
package config

import (
	"analyzer/internal/analysis"
	"time"
)

// Core configuration constants that define the boundaries and defaults
// for the analyzer.
const (
	DefaultDeviceID        = MinDeviceID // System default input device.
	DefaultSource          = SourceMic
	DefaultSynthFrequency  = 440.0
	DefaultSynthWaveform   = "sine"
	DefaultLogLevel        = "info"
	DefaultOutputDir       = "./recordings"
	DefaultWebSocketAddr   = "127.0.0.1:8080"
	DefaultWebSocketPeriod = 50 * time.Millisecond
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultUDPInterval     = 33 * time.Millisecond

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents the system default device.
	MinSampleRate = 8000   // Minimum usable sample rate (Hz).
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz).
	MaxBlockSize  = 16384  // Largest block, a power of two.

	// Error handling configuration
	DefaultMaxConsecutiveReadFailures = 5 // Failed reads in a row before stopping.
)

// Block sources.
const (
	SourceMic   = "mic"
	SourceWav   = "wav"
	SourceSynth = "synth"
)

// Config represents the application configuration, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Force debug logging.
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn" or "error".
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
	TUI       TUIConfig       `yaml:"tui"`

	// MaxConsecutiveReadFailures stops the run after this many failed reads
	// in a row. Each failure still produces a degraded frame.
	MaxConsecutiveReadFailures int `yaml:"max_consecutive_read_failures"`
}

// AudioConfig selects the block source and its format.
type AudioConfig struct {
	InputDevice    int     `yaml:"input_device"`    // PortAudio device index (-1 for default).
	SampleRate     float64 `yaml:"sample_rate"`     // Sample rate in Hz.
	BlockSize      int     `yaml:"block_size"`      // Samples per block, a power of two.
	LowLatency     bool    `yaml:"low_latency"`     // Request the device's low input latency.
	Source         string  `yaml:"source"`          // "mic", "wav" or "synth".
	InputFile      string  `yaml:"input_file"`      // WAV file for the wav source.
	SynthFrequency float64 `yaml:"synth_frequency"` // Fundamental of the synth source in Hz.
	SynthWaveform  string  `yaml:"synth_waveform"`  // "sine", "harmonics", "chirp" or "silence".
	Realtime       bool    `yaml:"realtime"`        // Pace file and synth sources at the sample rate.
}

// AnalysisConfig holds the fixed parameters of the analysis pipeline.
type AnalysisConfig struct {
	SpectrogramWidth     int     `yaml:"spectrogram_width"`
	LoudnessHistory      int     `yaml:"loudness_history"`
	SilenceRatio         float64 `yaml:"silence_ratio"`
	PeakThresholdRatio   float64 `yaml:"peak_threshold_ratio"`
	TuningToleranceCents float64 `yaml:"tuning_tolerance_cents"`
	MinNoteHz            float64 `yaml:"min_note_hz"`
	MaxNoteHz            float64 `yaml:"max_note_hz"`
	SmoothingSpan        int     `yaml:"smoothing_span"`
	OnsetRatio           float64 `yaml:"onset_ratio"`
	OnsetFloor           float64 `yaml:"onset_floor"`
}

// RecordingConfig controls writing the analysed input to a WAV file.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputDir  string `yaml:"output_dir"`  // Directory for generated file names.
	OutputFile string `yaml:"output_file"` // Explicit path; overrides OutputDir.
}

// TransportConfig holds the frame publishers.
type TransportConfig struct {
	WebSocketEnabled     bool          `yaml:"websocket_enabled"`
	WebSocketAddress     string        `yaml:"websocket_address"`      // Listen address for /frames.
	WebSocketMinInterval time.Duration `yaml:"websocket_min_interval"` // Minimum gap between frames per client.
	UDPEnabled           bool          `yaml:"udp_enabled"`
	UDPTargetAddress     string        `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090".
	UDPSendInterval      time.Duration `yaml:"udp_send_interval"`
	LogFrames            bool          `yaml:"log_frames"` // Log a line per detected tone.
}

// TUIConfig controls the terminal interface.
type TUIConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:    DefaultDeviceID,
			SampleRate:     analysis.DefaultSampleRate,
			BlockSize:      analysis.DefaultBlockSize,
			Source:         DefaultSource,
			SynthFrequency: DefaultSynthFrequency,
			SynthWaveform:  DefaultSynthWaveform,
			Realtime:       true,
		},
		Analysis: AnalysisConfig{
			SpectrogramWidth:     analysis.DefaultSpectrogramWidth,
			LoudnessHistory:      analysis.DefaultLoudnessHistory,
			SilenceRatio:         analysis.DefaultSilenceRatio,
			PeakThresholdRatio:   analysis.DefaultPeakThresholdRatio,
			TuningToleranceCents: analysis.DefaultTuningToleranceCents,
			MinNoteHz:            analysis.DefaultMinNoteHz,
			MaxNoteHz:            analysis.DefaultMaxNoteHz,
			SmoothingSpan:        analysis.DefaultSmoothingSpan,
			OnsetRatio:           analysis.DefaultOnsetRatio,
			OnsetFloor:           analysis.DefaultOnsetFloor,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultOutputDir,
		},
		Transport: TransportConfig{
			WebSocketAddress:     DefaultWebSocketAddr,
			WebSocketMinInterval: DefaultWebSocketPeriod,
			UDPTargetAddress:     DefaultUDPTarget,
			UDPSendInterval:      DefaultUDPInterval,
		},
		MaxConsecutiveReadFailures: DefaultMaxConsecutiveReadFailures,
	}
}

// AnalysisParams combines the audio format and analysis settings into the
// parameters of an analysis.Analyzer.
func (c *Config) AnalysisParams() analysis.Params {
	return analysis.Params{
		BlockSize:            c.Audio.BlockSize,
		SampleRate:           c.Audio.SampleRate,
		SmoothingSpan:        c.Analysis.SmoothingSpan,
		SpectrogramWidth:     c.Analysis.SpectrogramWidth,
		LoudnessHistory:      c.Analysis.LoudnessHistory,
		SilenceRatio:         c.Analysis.SilenceRatio,
		PeakThresholdRatio:   c.Analysis.PeakThresholdRatio,
		TuningToleranceCents: c.Analysis.TuningToleranceCents,
		MinNoteHz:            c.Analysis.MinNoteHz,
		MaxNoteHz:            c.Analysis.MaxNoteHz,
		OnsetRatio:           c.Analysis.OnsetRatio,
		OnsetFloor:           c.Analysis.OnsetFloor,
	}
}
