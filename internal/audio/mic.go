// SPDX-License-Identifier: MIT
package audio

import (
	"analyzer/internal/analysis"
	"analyzer/internal/log"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Mic captures mono int16 blocks from a PortAudio input device using a
// blocking stream. Each Read fills exactly one block.
type Mic struct {
	stream  *portaudio.Stream
	buf     []int16
	device  *portaudio.DeviceInfo
	latency time.Duration
}

var _ BlockSource = (*Mic)(nil)

// NewMic opens and starts a capture stream on deviceID (-1 for the system
// default) delivering blockSize frames per read.
func NewMic(deviceID int, sampleRate float64, blockSize int, lowLatency bool) (*Mic, error) {
	device, err := InputDevice(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrDevice, err)
	}

	latency := device.DefaultHighInputLatency
	if lowLatency {
		latency = device.DefaultLowInputLatency
	}

	buf := make([]int16, blockSize)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  latency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: blockSize,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open input stream on %s: %v", analysis.ErrDevice, device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: failed to start input stream on %s: %v", analysis.ErrDevice, device.Name, err)
	}

	log.Infof("audio: capturing from %s (%.0f Hz, %d frames, latency %s)", device.Name, sampleRate, blockSize, latency)
	return &Mic{stream: stream, buf: buf, device: device, latency: latency}, nil
}

// Device returns the device being captured.
func (m *Mic) Device() *portaudio.DeviceInfo { return m.device }

// NextBlock blocks until the stream has delivered a full block. An input
// overflow means samples were dropped before this read; the block itself is
// still valid, so it is only logged.
func (m *Mic) NextBlock(ctx context.Context) (analysis.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, fmt.Errorf("%w: %v", analysis.ErrDevice, err)
		}
		log.Debugf("audio: input overflowed, samples dropped")
	}

	block := make(analysis.Block, len(m.buf))
	copy(block, m.buf)
	return block, nil
}

// Close stops and closes the stream.
func (m *Mic) Close() error {
	if m.stream == nil {
		return nil
	}
	stopErr := m.stream.Stop()
	closeErr := m.stream.Close()
	m.stream = nil
	return errors.Join(stopErr, closeErr)
}
