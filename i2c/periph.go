// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2c

import (
	"fmt"

	"periph.io/x/periph/conn"
	pgpio "periph.io/x/periph/conn/gpio"
	pi2c "periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/physic"
)

// periphBus adapts Bus to periph.io/x/periph/conn/i2c.Bus/.Pins, the
// same interfaces hostextra/d2xx/i2c.go implements against real FTDI
// hardware. Clock and pin state are cosmetic here: the real work
// happens in Bus.WriteTransaction/ReadTransaction, which callers use
// directly when they want explicit timestamps and fault injection; Tx
// is the periph-compatible entry point for code
// written against the generic interface.
type periphBus struct {
	b      *Bus
	nowSrc func() float64
}

// AsPeriphBus wraps b as a periph.io/x/periph/conn/i2c.Bus, sourcing
// simulated "now" timestamps from nowSrc for every Tx call.
func AsPeriphBus(b *Bus, nowSrc func() float64) pi2c.Bus {
	return &periphBus{b: b, nowSrc: nowSrc}
}

func (p *periphBus) String() string { return fmt.Sprintf("I2C%d", p.b.id) }

// Halt implements conn.Resource. The simulated bus has nothing to
// halt; transactions are synchronous.
func (p *periphBus) Halt() error { return nil }

// Duplex implements conn.Conn.
func (p *periphBus) Duplex() conn.Duplex { return conn.Half }

// SetSpeed implements i2c.Bus.
func (p *periphBus) SetSpeed(f physic.Frequency) error {
	hz := float64(f) / float64(physic.Hertz)
	if hz <= 0 {
		return fmt.Errorf("i2c: invalid speed %s", f)
	}
	p.b.clockHz = hz
	return nil
}

// Tx implements i2c.Bus: addr selects the device, w is written first
// (if non-empty), then r is filled by a read transaction (if
// non-empty), matching the combined-transaction semantics periph
// callers expect.
func (p *periphBus) Tx(addr uint16, w, r []byte) error {
	now := p.nowSrc()
	if len(w) != 0 {
		if ok := p.b.WriteTransaction(addr, w, now); !ok {
			return fmt.Errorf("%w: 0x%02X", ErrNoDevice, addr)
		}
	}
	if len(r) != 0 {
		data, ok := p.b.ReadTransaction(addr, len(r), now)
		if !ok {
			return fmt.Errorf("%w: 0x%02X", ErrNoDevice, addr)
		}
		copy(r, data)
	}
	return nil
}

// SCL implements i2c.Pins. The simulated clock/data lines are plain
// Signals, not GPIO-backed pins, so this returns a no-op PinIO that
// reports the Signal's last digital state.
func (p *periphBus) SCL() pgpio.PinIO { return signalPin{p.b.scl} }

// SDA implements i2c.Pins.
func (p *periphBus) SDA() pgpio.PinIO { return signalPin{p.b.sda} }
