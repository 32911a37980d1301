// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2c simulates a protocol-accurate I2C bus: addressed devices,
// start/stop/ack timing, and fault injection. AsPeriphBus wraps a Bus
// in an adapter implementing periph.io/x/periph/conn/i2c.Bus and .Pins,
// the same interfaces hostextra/d2xx/i2c.go implements against real
// FTDI hardware; Bus itself does not implement them.
package i2c

import (
	"errors"
	"fmt"

	"sbcsim/kernel"

	pi2c "periph.io/x/periph/conn/i2c"
)

// Sentinel errors.
var (
	ErrAddressCollision = errors.New("i2c: device already attached at this address")
	ErrNoDevice         = errors.New("i2c: no device at this address")
)

// Timing constants at 100kHz, matching peripherals/i2c.py; they scale
// with the bus's configured clock frequency.
const (
	SetupTimeSeconds = 4.7e-6
	HoldTimeSeconds  = 4.0e-6
)

// ErrorKind is a fault InjectError can simulate.
type ErrorKind string

// Supported fault kinds.
const (
	ErrorClockStretch ErrorKind = "clock_stretch"
	ErrorBusCollision ErrorKind = "bus_collision"
	ErrorNACK         ErrorKind = "nack"
)

// Device is the interface a simulated I2C peripheral implements.
type Device interface {
	Address() uint16
	// Write handles an incoming write transaction and reports ACK/NACK.
	Write(data []byte) bool
	// Read returns length bytes in response to a read transaction.
	Read(length int) []byte
}

// Transaction is one completed bus operation, recorded for export/
// assertion.
type Transaction struct {
	Timestamp float64
	Address   uint16
	Read      bool
	Data      []byte
	ACK       bool
	Success   bool
	Duration  float64
}

// Bus is a simulated I2C bus. The zero value is not usable; use
// NewBus.
type Bus struct {
	id        int
	clockHz   float64
	bus       *kernel.EventBus
	devices   map[uint16]Device
	pending   ErrorKind
	transactions []Transaction

	scl, sda *kernel.Signal
}

// NewBus returns a Bus at the given clockHz (defaulting to 100kHz if
// clockHz <= 0), publishing events to bus.
func NewBus(id int, clockHz float64, eventBus *kernel.EventBus) *Bus {
	if clockHz <= 0 {
		clockHz = 100000
	}
	return &Bus{
		id:      id,
		clockHz: clockHz,
		bus:     eventBus,
		devices: make(map[uint16]Device),
		scl:     kernel.NewSignal(fmt.Sprintf("I2C%d_SCL", id), false),
		sda:     kernel.NewSignal(fmt.Sprintf("I2C%d_SDA", id), false),
	}
}

func (b *Bus) bitTime() float64 { return 1.0 / b.clockHz }

// AddDevice attaches device at its own reported address. Attaching a
// second device at an address already taken fails with
// ErrAddressCollision.
func (b *Bus) AddDevice(device Device) error {
	addr := device.Address()
	if _, exists := b.devices[addr]; exists {
		return fmt.Errorf("%w: 0x%02X", ErrAddressCollision, addr)
	}
	b.devices[addr] = device
	return nil
}

// RemoveDevice detaches whatever device is at address, if any.
func (b *Bus) RemoveDevice(address uint16) {
	delete(b.devices, address)
}

func (b *Bus) transactionDuration(dataLen int) float64 {
	bit := b.bitTime()
	scale := 100000.0 / b.clockHz
	return SetupTimeSeconds*scale + 8*bit + bit + 9*bit*float64(dataLen) + HoldTimeSeconds*scale
}

// WriteTransaction writes data to the device at address. It returns
// false (NACK) if no device answers the address, the device itself
// NACKs, or a pending injected fault forces a NACK/collision.
func (b *Bus) WriteTransaction(address uint16, data []byte, now float64) bool {
	if b.pending == ErrorBusCollision || b.pending == ErrorNACK {
		b.pending = ""
		b.record(Transaction{Timestamp: now, Address: address, Data: data}, now)
		return false
	}

	device, ok := b.devices[address]
	if !ok {
		b.record(Transaction{Timestamp: now, Address: address, Data: data}, now)
		return false
	}

	ack := device.Write(data)
	duration := b.transactionDuration(len(data))
	if b.pending == ErrorClockStretch {
		duration *= 2
		b.pending = ""
	}
	txn := Transaction{Timestamp: now, Address: address, Data: append([]byte(nil), data...), ACK: ack, Success: ack, Duration: duration}
	b.record(txn, now)
	return ack
}

// ReadTransaction reads length bytes from the device at address.
// Returns (nil, false) if no device answers or a pending fault forces
// failure.
func (b *Bus) ReadTransaction(address uint16, length int, now float64) ([]byte, bool) {
	if b.pending == ErrorBusCollision || b.pending == ErrorNACK {
		b.pending = ""
		b.record(Transaction{Timestamp: now, Address: address, Read: true}, now)
		return nil, false
	}

	device, ok := b.devices[address]
	if !ok {
		b.record(Transaction{Timestamp: now, Address: address, Read: true}, now)
		return nil, false
	}

	data := device.Read(length)
	duration := b.transactionDuration(length)
	if b.pending == ErrorClockStretch {
		duration *= 2
		b.pending = ""
	}
	txn := Transaction{Timestamp: now, Address: address, Read: true, Data: data, ACK: true, Success: true, Duration: duration}
	b.record(txn, now)
	return data, true
}

func (b *Bus) record(txn Transaction, now float64) {
	b.transactions = append(b.transactions, txn)
	b.bus.Publish(kernel.Event{
		Kind: kernel.KindI2CTransaction, Timestamp: now, Source: fmt.Sprintf("I2C%d", b.id),
		Payload: kernel.Payload{
			"address": txn.Address, "read": txn.Read, "data": txn.Data,
			"ack": txn.ACK, "duration": txn.Duration,
		},
	})
}

// ScanBus returns every address (0x08-0x77, the valid 7-bit I2C
// address range) currently answered by an attached device.
func (b *Bus) ScanBus() []uint16 {
	var found []uint16
	for addr := uint16(0x08); addr < 0x78; addr++ {
		if _, ok := b.devices[addr]; ok {
			found = append(found, addr)
		}
	}
	return found
}

// InjectError arms a one-shot fault that the next transaction consumes.
func (b *Bus) InjectError(kind ErrorKind, now float64) {
	b.pending = kind
	b.bus.Publish(kernel.Event{
		Kind: kernel.KindI2CTransaction, Timestamp: now, Source: fmt.Sprintf("I2C%d", b.id),
		Payload: kernel.Payload{"injected_error": string(kind)},
	})
}

// Transactions returns the recorded transaction history.
func (b *Bus) Transactions() []Transaction {
	out := make([]Transaction, len(b.transactions))
	copy(out, b.transactions)
	return out
}

var _ pi2c.Bus = (*periphBus)(nil)
var _ pi2c.Pins = (*periphBus)(nil)
