// SPDX-License-Identifier: MIT
package main

import (
	"analyzer/cmd"
	"analyzer/internal/audio"
	"analyzer/internal/config"
	"analyzer/internal/log"
	"analyzer/internal/transport"
	"analyzer/internal/transport/udp"
	"analyzer/internal/tui"
	"analyzer/pkg/build"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// main is the entry point of the analyzer. The program flow is divided into
// three phases:
//
// 1. Startup:
//   - Initialize build information
//   - Parse command line arguments and load the configuration
//   - Execute one-off commands (list, version)
//   - Open the block source and the renderers
//
// 2. Run:
//   - Drive the engine until the source ends, the user quits or a signal
//     arrives
//
// 3. Shutdown:
//   - Stop recording if active
//   - Close renderers, the source and PortAudio
func main() {
	// ==================== STARTUP PHASE ====================

	// Development builds run without ldflags.
	if err := build.Initialize(); err != nil {
		log.Debugf("build: %v", err)
	}

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if opts.Config != nil {
		if err := log.Configure(opts.Config.LogLevel, opts.Config.Debug); err != nil {
			log.Warnf("configuration: %v", err)
		}
	}

	switch opts.Command {
	case cmd.CommandVersion:
		fmt.Println(build.GetBuildFlags().Summary())
	case cmd.CommandList:
		if err := listDevices(opts.Interactive); err != nil {
			log.Fatalf("%v", err)
		}
	case cmd.CommandRun:
		if err := run(opts); err != nil {
			log.Fatalf("%v", err)
		}
	}
}

// listDevices prints the capture devices, or opens the device browser.
func listDevices(interactive bool) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	if !interactive {
		return audio.ListInputDevices(os.Stdout)
	}
	sel, err := tui.RunDeviceBrowser()
	if err != nil {
		return err
	}
	if sel != nil {
		fmt.Printf("Selected %s. Run with:\n  %s --device %d --sample-rate %.0f\n",
			sel.DeviceName, build.GetBuildFlags().Name, sel.DeviceID, sel.SampleRate)
	}
	return nil
}

func run(opts *cmd.Options) error {
	cfg := opts.Config

	if cfg.Audio.Source == config.SourceMic {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		if !cfg.TUI.Enabled {
			if err := audio.ListInputDevices(os.Stderr); err != nil {
				log.Warnf("audio: %v", err)
			}
		}
	}

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := audio.OpenSource(cfg)
	if err != nil {
		return err
	}
	// The recorder owns the source from here on.
	recorder := audio.NewRecorder(source, cfg.Audio.SampleRate, cfg.Audio.BlockSize)
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Errorf("audio: error closing source: %v", err)
		}
	}()

	if cfg.Recording.Enabled {
		if err := recorder.Start(recordingPath(cfg)); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
	}

	renderers, err := openRenderers(cfg)
	if err != nil {
		return err
	}

	var program *tea.Program
	if cfg.TUI.Enabled {
		model := tui.NewLiveModel(sourceLabel(cfg), recordToggle(cfg, recorder))
		program = tea.NewProgram(model, tea.WithAltScreen())
		renderers = append(renderers, tui.NewProgramRenderer(program))
	}
	fanout := transport.NewFanout(renderers...)
	defer func() {
		if err := fanout.Close(); err != nil {
			log.Errorf("transport: error closing renderers: %v", err)
		}
	}()

	engine, err := audio.NewEngine(cfg, recorder, fanout)
	if err != nil {
		return err
	}
	engine.MaxBlocks = opts.MaxBlocks

	// ==================== RUN PHASE ====================

	log.Infof("analyzer: %s source, %d-sample blocks at %.0f Hz",
		cfg.Audio.Source, cfg.Audio.BlockSize, cfg.Audio.SampleRate)

	if program == nil {
		err = engine.Run(ctx)
	} else {
		err = runWithTUI(ctx, stop, engine, program)
	}

	// ==================== SHUTDOWN PHASE ====================

	st := engine.Stats()
	log.Infof("analyzer: %d blocks analysed, %d degraded, %d clipped", st.Blocks, st.Degraded, st.Clipped)

	if recorder.Recording() {
		path := recorder.Path()
		if serr := recorder.Stop(); serr != nil {
			log.Errorf("audio: error stopping recording: %v", serr)
		}
		fmt.Printf("\nRecording saved to: %s\n", path)
	}
	return err
}

// runWithTUI runs the engine next to the terminal program. Whichever ends
// first stops the other. Log output is discarded while the program owns the
// terminal.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, engine *audio.Engine, program *tea.Program) error {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	errc := make(chan error, 1)
	go func() {
		errc <- engine.Run(ctx)
		program.Quit()
	}()
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, perr := program.Run()
	cancel()
	return errors.Join(<-errc, perr)
}

// openRenderers builds the configured non-interactive renderers.
func openRenderers(cfg *config.Config) ([]transport.Renderer, error) {
	var renderers []transport.Renderer
	closeAll := func() { transport.NewFanout(renderers...).Close() }

	t := cfg.Transport
	if t.LogFrames || !cfg.TUI.Enabled {
		renderers = append(renderers, transport.NewLoggingRenderer(time.Second/4))
	}
	if t.WebSocketEnabled {
		ws, err := transport.NewWebSocketRenderer(t.WebSocketAddress, t.WebSocketMinInterval)
		if err != nil {
			closeAll()
			return nil, err
		}
		renderers = append(renderers, ws)
	}
	if t.UDPEnabled {
		sender, err := udp.NewSender(t.UDPTargetAddress)
		if err != nil {
			closeAll()
			return nil, err
		}
		publisher, err := udp.NewPublisher(t.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			closeAll()
			return nil, err
		}
		publisher.Start()
		renderers = append(renderers, publisher)
	}
	return renderers, nil
}

func recordingPath(cfg *config.Config) string {
	if cfg.Recording.OutputFile != "" {
		return cfg.Recording.OutputFile
	}
	return audio.RecordingPath(cfg.Recording.OutputDir, time.Now())
}

// recordToggle starts a new recording or stops the current one.
func recordToggle(cfg *config.Config, recorder *audio.Recorder) tui.RecordToggle {
	return func() (bool, string, error) {
		if recorder.Recording() {
			path := recorder.Path()
			return false, path, recorder.Stop()
		}
		path := audio.RecordingPath(cfg.Recording.OutputDir, time.Now())
		if err := recorder.Start(path); err != nil {
			return false, path, err
		}
		return true, path, nil
	}
}

func sourceLabel(cfg *config.Config) string {
	a := cfg.Audio
	switch a.Source {
	case config.SourceWav:
		return fmt.Sprintf("wav %s @ %.0f Hz", a.InputFile, a.SampleRate)
	case config.SourceSynth:
		return fmt.Sprintf("synth %s %.1f Hz", a.SynthWaveform, a.SynthFrequency)
	default:
		return fmt.Sprintf("mic device %d @ %.0f Hz", a.InputDevice, a.SampleRate)
	}
}
