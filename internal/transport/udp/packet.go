// SPDX-License-Identifier: MIT
package udp

import (
	"analyzer/internal/analysis"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

/*
Packet layout, big endian:

	| Field          | Type      | Bytes | Notes                                 |
	|----------------|-----------|-------|---------------------------------------|
	| Sequence       | uint32    | 4     | Per publisher, starts at 1            |
	| Timestamp      | int64     | 8     | Frame time, ns since the Unix epoch   |
	| Count          | uint16    | 2     | Number of magnitudes N                |
	| Magnitudes     | []float32 | N*4   | Smoothed spectrum                     |
	| State          | uint8     | 1     | analysis.DetectionState               |
	| Flags          | uint8     | 1     | bit 0 onset, 1 clipped, 2 degraded    |
	| Note number    | int16     | 2     | MIDI number, -1 without a note        |
	| Frequency      | float32   | 4     | Refined peak frequency, 0 without one |
	| Cents          | float32   | 4     |                                       |
	| RMS            | float32   | 4     |                                       |
	| Loudness       | float32   | 4     | Average RMS                           |
*/

const (
	headerSize  = 4 + 8 + 2
	trailerSize = 1 + 1 + 2 + 4*4

	// MaxMagnitudes is the most magnitudes a packet can carry.
	MaxMagnitudes = math.MaxUint16
)

// Packet flag bits.
const (
	FlagOnset uint8 = 1 << iota
	FlagClipped
	FlagDegraded
)

// ErrShortPacket is returned when a datagram is too short for its header
// or declared magnitude count.
var ErrShortPacket = errors.New("short packet")

// Packet is the decoded form of one datagram.
type Packet struct {
	Sequence   uint32
	Timestamp  int64
	Magnitudes []float32
	State      analysis.DetectionState
	Flags      uint8
	NoteNumber int16
	Frequency  float32
	Cents      float32
	RMS        float32
	Loudness   float32
}

// trailer mirrors the fixed-size fields after the magnitudes.
type trailer struct {
	State      uint8
	Flags      uint8
	NoteNumber int16
	Frequency  float32
	Cents      float32
	RMS        float32
	Loudness   float32
}

// PacketSize returns the encoded size of a packet with n magnitudes.
func PacketSize(n int) int { return headerSize + 4*n + trailerSize }

// encodePacket writes seq and frame into buf. mags is scratch space for the
// float32 magnitudes and is returned, grown if needed.
func encodePacket(buf *bytes.Buffer, seq uint32, frame *analysis.Frame, mags []float32) ([]float32, error) {
	mags = mags[:0]
	if frame.Spectrum != nil {
		for _, m := range frame.Spectrum.Magnitudes {
			mags = append(mags, float32(m))
		}
	}
	if len(mags) > MaxMagnitudes {
		return mags, fmt.Errorf("%d magnitudes exceed the packet limit of %d", len(mags), MaxMagnitudes)
	}

	d := frame.Detection
	t := trailer{State: uint8(d.State), NoteNumber: -1, RMS: float32(frame.RMS), Loudness: float32(frame.Loudness)}
	if frame.Onset {
		t.Flags |= FlagOnset
	}
	if frame.Clipped {
		t.Flags |= FlagClipped
	}
	if frame.Degraded {
		t.Flags |= FlagDegraded
	}
	if d.HasPeak() {
		t.Frequency = float32(d.Peak.Refined)
	}
	if d.State == analysis.Detected {
		t.NoteNumber = int16(d.Note.Number)
		t.Cents = float32(d.Note.Cents)
	}

	buf.Reset()
	buf.Grow(PacketSize(len(mags)))
	err := binary.Write(buf, binary.BigEndian, seq)
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, frame.Time.UnixNano())
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint16(len(mags)))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, mags)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, &t)
	}
	return mags, err
}

// DecodePacket parses a datagram produced by a Publisher.
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(data))
	}
	p := &Packet{
		Sequence:  binary.BigEndian.Uint32(data[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(data[4:12])),
	}
	n := int(binary.BigEndian.Uint16(data[12:14]))
	if len(data) < PacketSize(n) {
		return nil, fmt.Errorf("%w: %d bytes for %d magnitudes", ErrShortPacket, len(data), n)
	}

	r := bytes.NewReader(data[headerSize:])
	p.Magnitudes = make([]float32, n)
	if err := binary.Read(r, binary.BigEndian, p.Magnitudes); err != nil {
		return nil, err
	}
	var t trailer
	if err := binary.Read(r, binary.BigEndian, &t); err != nil {
		return nil, err
	}
	p.State = analysis.DetectionState(t.State)
	p.Flags = t.Flags
	p.NoteNumber = t.NoteNumber
	p.Frequency = t.Frequency
	p.Cents = t.Cents
	p.RMS = t.RMS
	p.Loudness = t.Loudness
	return p, nil
}
