// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spi

import (
	"errors"
	"fmt"

	"periph.io/x/periph/conn"
)

// ErrNoDevice is returned by a periph.io Conn.Tx when no device is
// attached at the wrapped chip-select line.
var ErrNoDevice = errors.New("spi: no device at this chip select")

// periphConn adapts one chip-select line of Bus to
// periph.io/x/periph/conn/spi.Conn's full-duplex Tx contract.
type periphConn struct {
	b          *Bus
	chipSelect int
	nowSrc     func() float64
}

// AsPeriphConn wraps chipSelect on b as a periph.io/x/periph connection,
// sourcing simulated "now" timestamps from nowSrc for every Tx call.
func AsPeriphConn(b *Bus, chipSelect int, nowSrc func() float64) conn.Conn {
	return &periphConn{b: b, chipSelect: chipSelect, nowSrc: nowSrc}
}

func (p *periphConn) String() string {
	return fmt.Sprintf("SPI%d.%d", p.b.id, p.chipSelect)
}

// Duplex implements conn.Conn: SPI is always full-duplex.
func (p *periphConn) Duplex() conn.Duplex { return conn.Full }

// Tx implements conn.Conn: it writes w and fills r with the
// simultaneously-received bytes, which must be the same length.
func (p *periphConn) Tx(w, r []byte) error {
	if len(r) != 0 && len(r) != len(w) {
		return fmt.Errorf("spi: full-duplex transfer requires len(r) == len(w), got %d != %d", len(r), len(w))
	}
	received, ok := p.b.Transfer(w, p.chipSelect, p.nowSrc())
	if !ok {
		return fmt.Errorf("%w: cs=%d", ErrNoDevice, p.chipSelect)
	}
	copy(r, received)
	return nil
}
