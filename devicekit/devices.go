// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devicekit provides small simulated I2C/SPI peripherals and
// simulated-time assertion helpers for driving and checking a
// simulation scenario end to end.
package devicekit

// LED is an I2C sink device: every write is ACKed and recorded, but
// produces no reply data. Models a simple write-only indicator/driver
// chip (e.g. an I2C GPIO expander driving an LED).
type LED struct {
	address uint16
	writes  [][]byte
	on      bool
}

// NewLED returns an LED device answering at address.
func NewLED(address uint16) *LED {
	return &LED{address: address}
}

// Address implements i2c.Device.
func (l *LED) Address() uint16 { return l.address }

// Write implements i2c.Device: any non-empty write sets the LED state
// from the low bit of the first byte and always ACKs.
func (l *LED) Write(data []byte) bool {
	l.writes = append(l.writes, append([]byte(nil), data...))
	if len(data) > 0 {
		l.on = data[0]&0x01 != 0
	}
	return true
}

// Read implements i2c.Device: an LED has nothing to report, so it
// reads back as zeros.
func (l *LED) Read(length int) []byte { return make([]byte, length) }

// On reports the LED's last-written state.
func (l *LED) On() bool { return l.on }

// Writes returns every write this device has ACKed, for assertions.
func (l *LED) Writes() [][]byte { return l.writes }

// ADC is an I2C device returning a configurable reading on every Read,
// modelling a converter like the ADS1115 where a controller issues a
// read to fetch the latest conversion.
type ADC struct {
	address uint16
	reading []byte
}

// NewADC returns an ADC answering at address with an initial zero
// reading of width bytes.
func NewADC(address uint16, width int) *ADC {
	return &ADC{address: address, reading: make([]byte, width)}
}

// Address implements i2c.Device.
func (a *ADC) Address() uint16 { return a.address }

// Write implements i2c.Device: a write is treated as a register/config
// select and is simply ACKed; it does not change the reading.
func (a *ADC) Write(data []byte) bool { return true }

// Read implements i2c.Device, returning the configured reading
// truncated or zero-padded to length.
func (a *ADC) Read(length int) []byte {
	out := make([]byte, length)
	copy(out, a.reading)
	return out
}

// SetReading changes the bytes Read returns.
func (a *ADC) SetReading(data []byte) { a.reading = append([]byte(nil), data...) }

// TempSensor is an I2C device returning register-addressed temperature
// bytes, modelling a BME280-style part: a write selects a register,
// the following read returns that register's bytes.
type TempSensor struct {
	address   uint16
	registers map[byte][]byte
	selected  byte
}

// NewTempSensor returns a TempSensor answering at address with no
// registers populated; use SetRegister to seed readings.
func NewTempSensor(address uint16) *TempSensor {
	return &TempSensor{address: address, registers: make(map[byte][]byte)}
}

// Address implements i2c.Device.
func (t *TempSensor) Address() uint16 { return t.address }

// Write implements i2c.Device: the first byte selects the register
// subsequent reads return.
func (t *TempSensor) Write(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	t.selected = data[0]
	return true
}

// Read implements i2c.Device, returning the selected register's bytes
// zero-padded/truncated to length.
func (t *TempSensor) Read(length int) []byte {
	out := make([]byte, length)
	copy(out, t.registers[t.selected])
	return out
}

// SetRegister seeds the bytes returned when reg is selected.
func (t *TempSensor) SetRegister(reg byte, data []byte) {
	t.registers[reg] = append([]byte(nil), data...)
}

// Echo is an SPI device that mirrors every transfer's input back as
// its output, for round-trip transfer tests.
type Echo struct {
	transfers [][]byte
}

// NewEcho returns an Echo device.
func NewEcho() *Echo { return &Echo{} }

// Transfer implements spi.Device.
func (e *Echo) Transfer(data []byte) []byte {
	e.transfers = append(e.transfers, append([]byte(nil), data...))
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// Transfers returns every transfer this device has seen, for assertions.
func (e *Echo) Transfers() [][]byte { return e.transfers }
