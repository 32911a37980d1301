// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package spi simulates a full-duplex SPI bus with chip-select-keyed
// devices. Bus exposes periph.io/x/periph/conn/spi.Conn's Tx shape
// through AsPeriphConn, the same full-duplex contract
// hostextra/d2xx's SPI support targets.
package spi

import (
	"fmt"

	"sbcsim/kernel"
)

const (
	// MinClockHz and MaxClockHz bound SetClockFreq, matching the
	// original's 1kHz-32MHz clamp.
	MinClockHz = 1000
	MaxClockHz = 32000000

	defaultClockHz = 1000000
)

// Device is a chip-select-addressed SPI peripheral. Transfer must
// return a slice the same length as data (full duplex).
type Device interface {
	Transfer(data []byte) []byte
}

// Transaction is one completed full-duplex transfer, recorded for
// export/assertion.
type Transaction struct {
	Timestamp  float64
	ChipSelect int
	DataOut    []byte
	DataIn     []byte
	ClockHz    float64
	Mode       int
	Duration   float64
}

// Bus is a simulated SPI bus with up to one device per chip-select
// line.
type Bus struct {
	id      int
	bus     *kernel.EventBus
	clockHz float64
	mode    int

	devices      map[int]Device
	transactions []Transaction
}

// NewBus returns a Bus defaulting to 1MHz, mode 0.
func NewBus(id int, eventBus *kernel.EventBus) *Bus {
	return &Bus{id: id, bus: eventBus, clockHz: defaultClockHz, devices: make(map[int]Device)}
}

// AddDevice attaches device at chipSelect, replacing whatever was
// there.
func (b *Bus) AddDevice(device Device, chipSelect int) {
	b.devices[chipSelect] = device
}

// RemoveDevice detaches whatever device is at chipSelect, if any.
func (b *Bus) RemoveDevice(chipSelect int) {
	delete(b.devices, chipSelect)
}

// SetClockFreq clamps freq to [MinClockHz, MaxClockHz] and adopts it.
func (b *Bus) SetClockFreq(freq float64) {
	switch {
	case freq < MinClockHz:
		freq = MinClockHz
	case freq > MaxClockHz:
		freq = MaxClockHz
	}
	b.clockHz = freq
}

// SetMode sets the SPI clock polarity/phase mode, masked to 0-3.
func (b *Bus) SetMode(mode int) {
	b.mode = mode & 0x3
}

// ClockHz returns the currently configured clock frequency.
func (b *Bus) ClockHz() float64 { return b.clockHz }

// Mode returns the currently configured SPI mode.
func (b *Bus) Mode() int { return b.mode }

// Transfer performs a full-duplex exchange with the device at
// chipSelect. Returns (nil, false) if no device is attached there.
func (b *Bus) Transfer(data []byte, chipSelect int, now float64) ([]byte, bool) {
	device, ok := b.devices[chipSelect]
	if !ok {
		return nil, false
	}

	received := device.Transfer(data)
	duration := float64(len(data)) * 8 / b.clockHz

	txn := Transaction{
		Timestamp: now, ChipSelect: chipSelect,
		DataOut: append([]byte(nil), data...), DataIn: append([]byte(nil), received...),
		ClockHz: b.clockHz, Mode: b.mode, Duration: duration,
	}
	b.transactions = append(b.transactions, txn)

	b.bus.Publish(kernel.Event{
		Kind: kernel.KindSPITransaction, Timestamp: now, Source: fmt.Sprintf("SPI%d", b.id),
		Payload: kernel.Payload{
			"device": chipSelect, "data_out": txn.DataOut, "data_in": txn.DataIn,
			"clock_freq": b.clockHz, "mode": b.mode, "duration": duration,
		},
	})
	return received, true
}

// Transactions returns the recorded transaction history.
func (b *Bus) Transactions() []Transaction {
	out := make([]Transaction, len(b.transactions))
	copy(out, b.transactions)
	return out
}
