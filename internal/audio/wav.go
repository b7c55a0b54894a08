// SPDX-License-Identifier: MIT
package audio

import (
	"analyzer/internal/analysis"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV format tags accepted by OpenWav.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WavSource replays a PCM WAV file as fixed-length blocks. Only the first
// channel is used. The final short block is zero padded, after which
// NextBlock returns io.EOF.
type WavSource struct {
	file       *os.File
	decoder    *wav.Decoder
	blockSize  int
	channels   int
	bitDepth   int
	sampleRate float64
	buf        *audio.IntBuffer
	pacer      *pacer
	done       bool
}

var _ BlockSource = (*WavSource)(nil)

// OpenWav opens path for replay. With realtime set, blocks are paced at
// the file's sample rate.
func OpenWav(path string, blockSize int, realtime bool) (*WavSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("%s is not a valid wav file: %v", path, decoder.Err())
	}
	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		file.Close()
		return nil, fmt.Errorf("%s: unsupported wav format %d, want PCM", path, decoder.WavAudioFormat)
	}

	channels := int(decoder.NumChans)
	sampleRate := float64(decoder.SampleRate)
	return &WavSource{
		file:       file,
		decoder:    decoder,
		blockSize:  blockSize,
		channels:   channels,
		bitDepth:   int(decoder.BitDepth),
		sampleRate: sampleRate,
		buf: &audio.IntBuffer{
			Format: decoder.Format(),
			Data:   make([]int, blockSize*channels),
		},
		pacer: newPacer(blockSize, sampleRate, realtime),
	}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (w *WavSource) SampleRate() float64 { return w.sampleRate }

// Channels returns the file's channel count.
func (w *WavSource) Channels() int { return w.channels }

// NextBlock decodes the next block. Decoding errors wrap analysis.ErrDevice.
func (w *WavSource) NextBlock(ctx context.Context) (analysis.Block, error) {
	if w.done {
		return nil, io.EOF
	}
	if err := w.pacer.wait(ctx); err != nil {
		return nil, err
	}

	block := make(analysis.Block, w.blockSize)
	filled := 0
	for filled < w.blockSize {
		w.buf.Data = w.buf.Data[:(w.blockSize-filled)*w.channels]
		n, err := w.decoder.PCMBuffer(w.buf)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode wav data: %v", analysis.ErrDevice, err)
		}
		frames := n / w.channels
		if frames == 0 {
			break
		}
		for i := range frames {
			block[filled+i] = toInt16(w.buf.Data[i*w.channels], w.bitDepth)
		}
		filled += frames
	}

	if filled < w.blockSize {
		w.done = true
		if filled == 0 {
			return nil, io.EOF
		}
	}
	return block, nil
}

// Close closes the underlying file.
func (w *WavSource) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// toInt16 scales a decoded sample of the given bit depth to 16 bits. 8-bit
// WAV data is unsigned.
func toInt16(v, bitDepth int) int16 {
	switch bitDepth {
	case 8:
		return int16((v - 128) << 8)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	default:
		return int16(v)
	}
}
