// SPDX-License-Identifier: MIT

// Package udp streams analysis frames as compact binary datagrams.
package udp

import (
	"analyzer/internal/analysis"
	"analyzer/internal/log"
	"analyzer/internal/transport"
	"bytes"
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is used when a non-positive interval is configured.
const DefaultInterval = 16 * time.Millisecond

// Publisher samples the latest frame at a fixed interval, packs it into a
// datagram and sends it with a Sender. Render only stores the frame, so the
// engine never waits on the network.
type Publisher struct {
	sender   *Sender
	interval time.Duration
	latest   transport.Latest

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Closed to stop the publishing goroutine.
	stopOnce sync.Once      // Ensures the stop logic runs once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publishing goroutine during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.

	// Owned by the publishing goroutine.
	sequenceNum  uint32
	lastFrame    uint64
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher returns a stopped publisher sending through sender.
func NewPublisher(interval time.Duration, sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp: sender cannot be nil")
	}
	if interval <= 0 {
		log.Warnf("udp: invalid interval %s, defaulting to %s", interval, DefaultInterval)
		interval = DefaultInterval
	}
	return &Publisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Render records frame as the next one to publish.
func (p *Publisher) Render(frame *analysis.Frame) { p.latest.Render(frame) }

// Start launches the publishing goroutine. Calling Start while running is a
// no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("udp: publisher already running")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, doneChan := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Infof("udp: publishing every %s to %s", p.interval, p.sender.Target())
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publishing goroutine and waits for it. Safe to call
// repeatedly.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()
	p.wg.Wait()
}

// publish sends the latest frame if it has not been sent yet.
func (p *Publisher) publish() {
	frame := p.latest.Load()
	if frame == nil || frame.Sequence == p.lastFrame {
		return
	}
	p.lastFrame = frame.Sequence
	p.sequenceNum++

	var err error
	p.f32Buffer, err = encodePacket(p.packetBuffer, p.sequenceNum, frame, p.f32Buffer)
	if err != nil {
		log.Errorf("udp: error packing frame %d: %v", frame.Sequence, err)
		return
	}
	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		log.Debugf("udp: %v", err)
		return
	}
	log.Debugf("udp: sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
}

// Close stops publishing and closes the sender.
func (p *Publisher) Close() error {
	p.Stop()
	return p.sender.Close()
}

var _ transport.Renderer = (*Publisher)(nil)
