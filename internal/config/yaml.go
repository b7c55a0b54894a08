// SPDX-License-Identifier: MIT
package config

import (
	"analyzer/internal/log"
	"analyzer/pkg/bitint"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPaths are searched in order when LoadConfig gets an empty path.
var DefaultPaths = []string{"config.yaml", "analyzer.yaml"}

// LoadConfig reads the configuration like ReadConfig and validates it.
func LoadConfig(path string) (*Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ReadConfig loads configuration from the YAML file at path without
// validating it, for callers that apply further overrides first. If path is
// empty it searches DefaultPaths and falls back to built-in defaults when
// none exists. Environment overrides are applied after the file.
func ReadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range DefaultPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("configuration: loaded %s", path)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	a := c.Audio
	switch {
	case a.InputDevice < MinDeviceID:
		return fmt.Errorf("audio.input_device %d must be >= %d", a.InputDevice, MinDeviceID)
	case a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate:
		return fmt.Errorf("audio.sample_rate %.0f must be within %d..%d", a.SampleRate, MinSampleRate, MaxSampleRate)
	case !bitint.IsPowerOfTwo(a.BlockSize) || a.BlockSize < 64 || a.BlockSize > MaxBlockSize:
		return fmt.Errorf("audio.block_size %d must be a power of two within 64..%d", a.BlockSize, MaxBlockSize)
	}

	switch a.Source {
	case SourceMic, SourceSynth:
	case SourceWav:
		if a.InputFile == "" {
			return fmt.Errorf("audio.input_file must be set for the wav source")
		}
	default:
		return fmt.Errorf("audio.source '%s' must be one of mic, wav, synth", a.Source)
	}
	if a.Source == SourceSynth && a.SynthFrequency <= 0 {
		return fmt.Errorf("audio.synth_frequency %.1f must be positive", a.SynthFrequency)
	}

	if err := c.AnalysisParams().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	t := c.Transport
	if t.UDPEnabled {
		if !strings.Contains(t.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", t.UDPTargetAddress)
		}
		if t.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if t.WebSocketEnabled {
		if !strings.Contains(t.WebSocketAddress, ":") {
			return fmt.Errorf("transport.websocket_address '%s' appears invalid (missing port?)", t.WebSocketAddress)
		}
		if t.WebSocketMinInterval < 0 {
			return fmt.Errorf("transport.websocket_min_interval must not be negative")
		}
	}

	if c.MaxConsecutiveReadFailures < 1 {
		return fmt.Errorf("max_consecutive_read_failures %d must be positive", c.MaxConsecutiveReadFailures)
	}
	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the file settings.
// Values that fail to parse are ignored.
func (c *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			log.Debugf("configuration: overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		log.Debugf("configuration: overriding log_level from env: %s", val)
	}

	// ENV_DEVICE
	if val, ok := os.LookupEnv("ENV_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = iVal
			log.Debugf("configuration: overriding audio.input_device from env: %d", iVal)
		}
	}
	// ENV_SOURCE
	if val, ok := os.LookupEnv("ENV_SOURCE"); ok {
		c.Audio.Source = strings.ToLower(val)
		log.Debugf("configuration: overriding audio.source from env: %s", val)
	}

	// ENV_WS_{...}
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.WebSocketEnabled = bVal
			log.Debugf("configuration: overriding transport.websocket_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WebSocketAddress = val
		log.Debugf("configuration: overriding transport.websocket_address from env: %s", val)
	}

	// ENV_UDP_{...}
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
			log.Debugf("configuration: overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		log.Debugf("configuration: overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			log.Debugf("configuration: overriding transport.udp_send_interval from env: %s", dur)
		}
	}
}
