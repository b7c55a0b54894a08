// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Audio.BlockSize != 2048 || cfg.Audio.SampleRate != 44100 {
		t.Errorf("unexpected defaults: %+v", cfg.Audio)
	}
	if cfg.Analysis.SpectrogramWidth != 200 || cfg.Analysis.LoudnessHistory != 50 {
		t.Errorf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: warn
audio:
  source: synth
  synth_frequency: 220
  synth_waveform: harmonics
  block_size: 4096
  sample_rate: 48000
analysis:
  spectrogram_width: 120
  tuning_tolerance_cents: 5
transport:
  udp_enabled: true
  udp_target_address: "10.0.0.2:7000"
  udp_send_interval: 100ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "warn" || cfg.Audio.Source != SourceSynth || cfg.Audio.SynthFrequency != 220 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Analysis.SpectrogramWidth != 120 || cfg.Analysis.LoudnessHistory != 50 {
		t.Errorf("analysis = %+v, want width 120 and default history", cfg.Analysis)
	}
	if cfg.Transport.UDPSendInterval != 100*time.Millisecond {
		t.Errorf("udp interval = %s", cfg.Transport.UDPSendInterval)
	}

	p := cfg.AnalysisParams()
	if p.BlockSize != 4096 || p.SampleRate != 48000 || p.TuningToleranceCents != 5 {
		t.Errorf("AnalysisParams() = %+v", p)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_SOURCE", "SYNTH")
	t.Setenv("ENV_DEVICE", "3")
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "192.168.1.5:9999")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "250ms")
	t.Setenv("ENV_WS_ENABLED", "1")
	t.Setenv("ENV_WS_ADDRESS", "0.0.0.0:9000")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug || cfg.Audio.Source != SourceSynth || cfg.Audio.InputDevice != 3 {
		t.Errorf("general overrides not applied: debug=%v source=%s device=%d", cfg.Debug, cfg.Audio.Source, cfg.Audio.InputDevice)
	}
	tr := cfg.Transport
	if !tr.UDPEnabled || tr.UDPTargetAddress != "192.168.1.5:9999" || tr.UDPSendInterval != 250*time.Millisecond {
		t.Errorf("udp overrides not applied: %+v", tr)
	}
	if !tr.WebSocketEnabled || tr.WebSocketAddress != "0.0.0.0:9000" {
		t.Errorf("websocket overrides not applied: %+v", tr)
	}
}

func TestLoadConfig_EnvIgnoresBadValues(t *testing.T) {
	t.Setenv("ENV_DEBUG", "maybe")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "soon")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Debug || cfg.Transport.UDPSendInterval != DefaultUDPInterval {
		t.Errorf("bad env values were applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"device", func(c *Config) { c.Audio.InputDevice = -2 }, "input_device"},
		{"rate low", func(c *Config) { c.Audio.SampleRate = 4000 }, "sample_rate"},
		{"rate high", func(c *Config) { c.Audio.SampleRate = 384000 }, "sample_rate"},
		{"block size", func(c *Config) { c.Audio.BlockSize = 1000 }, "block_size"},
		{"source", func(c *Config) { c.Audio.Source = "line-in" }, "audio.source"},
		{"wav without file", func(c *Config) { c.Audio.Source = SourceWav }, "input_file"},
		{"wav with file", func(c *Config) { c.Audio.Source = SourceWav; c.Audio.InputFile = "a.wav" }, ""},
		{"synth frequency", func(c *Config) { c.Audio.Source = SourceSynth; c.Audio.SynthFrequency = 0 }, "synth_frequency"},
		{"history", func(c *Config) { c.Analysis.LoudnessHistory = 0 }, "analysis"},
		{"threshold", func(c *Config) { c.Analysis.PeakThresholdRatio = 0 }, "analysis"},
		{"note range", func(c *Config) { c.Analysis.MinNoteHz = 5000 }, "analysis"},
		{"udp address", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "localhost" }, "udp_target_address"},
		{"udp interval", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPSendInterval = 0 }, "udp_send_interval"},
		{"ws address", func(c *Config) { c.Transport.WebSocketEnabled = true; c.Transport.WebSocketAddress = "8080" }, "websocket_address"},
		{"read failures", func(c *Config) { c.MaxConsecutiveReadFailures = 0 }, "max_consecutive_read_failures"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadConfig_SkipsValidation(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "audio:\n  source: wav\n")

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Audio.Source != SourceWav || cfg.Audio.InputFile != "" {
		t.Errorf("unexpected audio config: %+v", cfg.Audio)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig accepted a wav source without input_file")
	}
}
