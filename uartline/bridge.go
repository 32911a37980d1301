// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package uartline

import (
	"io"

	"github.com/tarm/serial"
)

// SerialBridge pumps bytes between a Port and a real serial device,
// for tests that want to drive sbcsim's UART simulation from actual
// hardware (a USB-serial adapter looped back to a device under test)
// instead of InjectData. Grounded on driver/mjolnir's Open() pattern
// for opening a tarm/serial port; unlike that driver this one is
// bidirectional and simulated-time-stamped by the caller.
type SerialBridge struct {
	port *Port
	conn io.ReadWriteCloser
	now  func() float64
	done chan struct{}
}

// OpenSerialBridge opens dev at baud and returns a bridge pumping bytes
// to/from port. nowSrc supplies the simulated timestamp stamped on
// each byte pumped from the wire into port's rx ring.
func OpenSerialBridge(port *Port, dev string, baud int, nowSrc func() float64) (*SerialBridge, error) {
	cfg := &serial.Config{Name: dev, Baud: baud}
	conn, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	b := &SerialBridge{port: port, conn: conn, now: nowSrc, done: make(chan struct{})}
	go b.pumpFromWire()
	return b, nil
}

// pumpFromWire reads bytes off the real serial connection and feeds
// them into the Port's rx ring until the bridge is closed.
func (b *SerialBridge) pumpFromWire() {
	buf := make([]byte, 256)
	for {
		n, err := b.conn.Read(buf)
		if n > 0 {
			b.port.InjectData(buf[:n], b.now())
		}
		if err != nil {
			select {
			case <-b.done:
				return
			default:
				return
			}
		}
	}
}

// Flush drains Port's tx ring out to the real serial connection.
func (b *SerialBridge) Flush() error {
	if len(b.port.tx) == 0 {
		return nil
	}
	_, err := b.conn.Write(b.port.tx)
	b.port.FlushTX()
	return err
}

// Close stops the pump goroutine and closes the underlying connection.
func (b *SerialBridge) Close() error {
	close(b.done)
	return b.conn.Close()
}
