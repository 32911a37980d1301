// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package uartline simulates a UART port: framed tx/rx with bounded
// queues, configurable baud/parity/stop bits, and bit-error injection
// on the receive path.
package uartline

import (
	"fmt"
	"math/rand"

	"sbcsim/kernel"
)

// Parity is the UART parity mode.
type Parity int

// Parity modes.
const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// DefaultQueueDepth bounds the tx/rx ring buffers.
const DefaultQueueDepth = 1024

// Config holds the framing parameters a Port is configured with.
type Config struct {
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits int
}

// DefaultConfig matches the original's 9600-8-N-1 default.
func DefaultConfig() Config {
	return Config{BaudRate: 9600, DataBits: 8, Parity: ParityNone, StopBits: 1}
}

// frameBits returns the total bit count per frame: start + data +
// parity (if any) + stop bits.
func (c Config) frameBits() int {
	bits := 1 + c.DataBits + c.StopBits
	if c.Parity != ParityNone {
		bits++
	}
	return bits
}

// frameDuration returns (1+dataBits+parityBit+stopBits)/baud.
func (c Config) frameDuration() float64 {
	return float64(c.frameBits()) / float64(c.BaudRate)
}

// Port is a simulated UART port, identified by a logical port number
// (not necessarily a GPIO pin pair, though a Board typically wires it
// to GPIO14/15 by convention).
type Port struct {
	id     int
	bus    *kernel.EventBus
	cfg    Config
	opened bool

	tx, rx    []byte
	queueCap  int
	errorRate float64
	onData    func(b byte)

	rng *rand.Rand
}

// NewPort returns a closed Port with the default 9600-8-N-1
// configuration and the default queue depth.
func NewPort(id int, bus *kernel.EventBus) *Port {
	return &Port{
		id: id, bus: bus, cfg: DefaultConfig(), queueCap: DefaultQueueDepth,
		rng: rand.New(rand.NewSource(int64(id) + 1)),
	}
}

// Open clears both buffers and marks the port usable. Idempotent.
func (p *Port) Open() bool {
	p.opened = true
	p.tx = p.tx[:0]
	p.rx = p.rx[:0]
	return true
}

// Close marks the port unusable; buffered data is retained until the
// next Open.
func (p *Port) Close() { p.opened = false }

// Configure replaces the port's framing parameters.
func (p *Port) Configure(cfg Config) { p.cfg = cfg }

// Write enqueues data into the bounded tx ring, publishing one
// uart_data{direction:tx} event per byte actually enqueued. Returns the
// count of bytes accepted (fewer than len(data) if the queue fills, 0
// if the port is closed).
func (p *Port) Write(data []byte, now float64) int {
	if !p.opened {
		return 0
	}
	written := 0
	duration := p.cfg.frameDuration()
	for _, b := range data {
		if len(p.tx) >= p.queueCap {
			break
		}
		p.tx = append(p.tx, b)
		written++
		p.bus.Publish(kernel.Event{
			Kind: kernel.KindUARTData, Timestamp: now, Source: fmt.Sprintf("UART%d", p.id),
			Payload: kernel.Payload{"direction": "tx", "data": b, "baud_rate": p.cfg.BaudRate, "duration": duration},
		})
	}
	return written
}

// Read dequeues up to maxBytes from the rx ring.
func (p *Port) Read(maxBytes int) []byte {
	if !p.opened || maxBytes <= 0 {
		return nil
	}
	if maxBytes > len(p.rx) {
		maxBytes = len(p.rx)
	}
	out := append([]byte(nil), p.rx[:maxBytes]...)
	p.rx = p.rx[maxBytes:]
	return out
}

// Available returns the number of bytes waiting in the rx ring.
func (p *Port) Available() int { return len(p.rx) }

// InjectData is the external driver's inverse of Write: it enqueues
// data into the rx ring as if received over the wire, optionally
// flipping one random bit per byte with probability errorRate, and
// invokes the registered receive callback synchronously for each byte
// actually enqueued.
func (p *Port) InjectData(data []byte, now float64) {
	if !p.opened {
		return
	}
	for _, b := range data {
		if p.errorRate > 0 && p.rng.Float64() < p.errorRate {
			bit := p.rng.Intn(8)
			b ^= 1 << uint(bit)
		}
		if len(p.rx) >= p.queueCap {
			break
		}
		p.rx = append(p.rx, b)
		p.bus.Publish(kernel.Event{
			Kind: kernel.KindUARTData, Timestamp: now, Source: fmt.Sprintf("UART%d", p.id),
			Payload: kernel.Payload{"direction": "rx", "data": b, "baud_rate": p.cfg.BaudRate},
		})
		if p.onData != nil {
			p.fireOnData(b)
		}
	}
}

func (p *Port) fireOnData(b byte) {
	defer func() {
		if r := recover(); r != nil {
			logOnDataError(p.id, r)
		}
	}()
	p.onData(b)
}

// SetErrorRate clamps rate to [0,1] and adopts it as the per-byte bit
// error probability InjectData applies.
func (p *Port) SetErrorRate(rate float64) {
	switch {
	case rate < 0:
		rate = 0
	case rate > 1:
		rate = 1
	}
	p.errorRate = rate
}

// OnDataReceived registers the callback InjectData invokes per byte.
func (p *Port) OnDataReceived(callback func(b byte)) { p.onData = callback }

// FlushTX discards any buffered, not-yet-consumed tx bytes.
func (p *Port) FlushTX() { p.tx = p.tx[:0] }

// FlushRX discards any buffered, not-yet-read rx bytes.
func (p *Port) FlushRX() { p.rx = p.rx[:0] }
