// SPDX-License-Identifier: MIT

// Package cmd parses the command line into run options.
package cmd

import (
	"analyzer/internal/config"
	"analyzer/pkg/build"
	"fmt"

	"github.com/spf13/cobra"
)

// Commands selected on the command line. An empty command means nothing
// is left to do, for example after --help.
const (
	CommandRun     = "run"
	CommandList    = "list"
	CommandVersion = "version"
)

// Options is the parsed command line.
type Options struct {
	Command     string
	Config      *config.Config
	Interactive bool // list: open the device browser.
	MaxBlocks   int  // Stop after this many blocks; 0 runs until interrupted.
}

// flagValues receives the raw flag values. Only flags set on the command
// line are copied over the loaded configuration.
type flagValues struct {
	configPath string
	device     int
	source     string
	input      string
	frequency  float64
	waveform   string
	sampleRate float64
	blockSize  int
	lowLatency bool
	realtime   bool
	record     bool
	output     string
	ws         bool
	wsAddr     string
	udp        bool
	udpAddr    string
	tui        bool
	logFrames  bool
	verbose    bool
}

// ParseArgs parses args (without the program name), loads the configuration
// file and applies flag overrides on top of it.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	opts := &Options{}
	var f flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = CommandRun
			return opts.load(cmd, &f)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = CommandList
			return opts.load(cmd, &f)
		},
	}
	listCmd.Flags().BoolVar(&opts.Interactive, "interactive", false,
		"Browse devices interactively and pick a sample rate")
	rootCmd.AddCommand(listCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts.Command = CommandVersion
		},
	})

	// General
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "",
		"Path to a YAML configuration file (default: config.yaml or analyzer.yaml if present)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false,
		"Show verbose output")

	// Audio source
	fl := rootCmd.Flags()
	fl.IntVarP(&f.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	fl.StringVar(&f.source, "source", config.DefaultSource,
		"Block source: mic, wav or synth")
	fl.StringVarP(&f.input, "input", "i", "",
		"WAV file to analyse (implies --source wav)")
	fl.Float64Var(&f.frequency, "frequency", config.DefaultSynthFrequency,
		"Fundamental of the synth source in Hz")
	fl.StringVar(&f.waveform, "waveform", config.DefaultSynthWaveform,
		"Synth waveform: sine, harmonics, chirp or silence")
	fl.Float64VarP(&f.sampleRate, "sample-rate", "s", 44100,
		"Sample rate, measured in Hertz (Hz)")
	fl.IntVarP(&f.blockSize, "block-size", "b", 2048,
		"Samples per analysis block, a power of two")
	fl.BoolVarP(&f.lowLatency, "low-latency", "l", false,
		"Use the device's low input latency")
	fl.BoolVar(&f.realtime, "realtime", true,
		"Pace wav and synth sources at the sample rate")

	// Recording
	fl.BoolVarP(&f.record, "record", "r", false,
		"Record the analysed input to a WAV file")
	fl.StringVarP(&f.output, "output", "o", "",
		"Recording file name. Default is analyzer-YYYYMMDD-HHMMSS.wav in the output directory")

	// Outputs
	fl.BoolVar(&f.ws, "ws", false, "Serve frames over WebSocket")
	fl.StringVar(&f.wsAddr, "ws-addr", config.DefaultWebSocketAddr, "WebSocket listen address")
	fl.BoolVar(&f.udp, "udp", false, "Stream frames as UDP packets")
	fl.StringVar(&f.udpAddr, "udp-addr", config.DefaultUDPTarget, "UDP target address")
	fl.BoolVar(&f.tui, "tui", false, "Show the live terminal view")
	fl.BoolVar(&f.logFrames, "log-frames", false, "Log detected tones")
	fl.IntVar(&opts.MaxBlocks, "max-blocks", 0, "Stop after this many blocks (0 = unlimited)")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return opts, nil
}

// load reads the configuration file and applies the flags that were set.
func (o *Options) load(cmd *cobra.Command, f *flagValues) error {
	cfg, err := config.ReadConfig(f.configPath)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	a := &cfg.Audio
	if changed("device") {
		a.InputDevice = f.device
	}
	if changed("source") {
		a.Source = f.source
	}
	if changed("input") {
		a.InputFile = f.input
		if !changed("source") {
			a.Source = config.SourceWav
		}
	}
	if changed("frequency") {
		a.SynthFrequency = f.frequency
	}
	if changed("waveform") {
		a.SynthWaveform = f.waveform
	}
	if changed("sample-rate") {
		a.SampleRate = f.sampleRate
	}
	if changed("block-size") {
		a.BlockSize = f.blockSize
	}
	if changed("low-latency") {
		a.LowLatency = f.lowLatency
	}
	if changed("realtime") {
		a.Realtime = f.realtime
	}

	if changed("record") {
		cfg.Recording.Enabled = f.record
	}
	if changed("output") {
		cfg.Recording.OutputFile = f.output
		cfg.Recording.Enabled = true
	}

	t := &cfg.Transport
	if changed("ws") {
		t.WebSocketEnabled = f.ws
	}
	if changed("ws-addr") {
		t.WebSocketAddress = f.wsAddr
		t.WebSocketEnabled = true
	}
	if changed("udp") {
		t.UDPEnabled = f.udp
	}
	if changed("udp-addr") {
		t.UDPTargetAddress = f.udpAddr
		t.UDPEnabled = true
	}
	if changed("log-frames") {
		t.LogFrames = f.logFrames
	}
	if changed("tui") {
		cfg.TUI.Enabled = f.tui
	}
	if f.verbose {
		cfg.Debug = true
	}

	if o.MaxBlocks < 0 {
		return fmt.Errorf("--max-blocks %d must not be negative", o.MaxBlocks)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.Config = cfg
	return nil
}
