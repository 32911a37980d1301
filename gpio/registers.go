// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import "unsafe"

// BCMRegisters mirrors a (small) subset of the BCM2711 GPIO/PWM register
// file, named the way the datasheet names them, so introspection tools
// built against sbcsim can read register state the same way they would
// read /dev/gpiomem on real hardware. This is a mirror for
// observability/debugging only: Controller never computes behavior by
// reading it back, it always indexes the fast Go struct fields directly
// and writes the mirror alongside.
type BCMRegisters struct {
	GPFSEL0, GPFSEL1, GPFSEL2, GPFSEL3, GPFSEL4, GPFSEL5 uint32

	GPSET0, GPSET1 uint32
	GPCLR0, GPCLR1 uint32
	GPLEV0, GPLEV1 uint32

	GPEDS0, GPEDS1 uint32
	GPREN0, GPREN1 uint32
	GPFEN0, GPFEN1 uint32

	GPPUD     uint32
	GPPUDCLK0 uint32
	GPPUDCLK1 uint32

	PWMCTL             uint32
	PWMRNG1, PWMRNG2   uint32
	PWMDAT1, PWMDAT2   uint32
}

// regIndex maps register names to their byte offset within BCMRegisters,
// built once at init for the GetRegister/SetRegister debug path.
var regIndex = map[string]uintptr{
	"GPFSEL0":   unsafe.Offsetof(BCMRegisters{}.GPFSEL0),
	"GPFSEL1":   unsafe.Offsetof(BCMRegisters{}.GPFSEL1),
	"GPFSEL2":   unsafe.Offsetof(BCMRegisters{}.GPFSEL2),
	"GPFSEL3":   unsafe.Offsetof(BCMRegisters{}.GPFSEL3),
	"GPFSEL4":   unsafe.Offsetof(BCMRegisters{}.GPFSEL4),
	"GPFSEL5":   unsafe.Offsetof(BCMRegisters{}.GPFSEL5),
	"GPSET0":    unsafe.Offsetof(BCMRegisters{}.GPSET0),
	"GPSET1":    unsafe.Offsetof(BCMRegisters{}.GPSET1),
	"GPCLR0":    unsafe.Offsetof(BCMRegisters{}.GPCLR0),
	"GPCLR1":    unsafe.Offsetof(BCMRegisters{}.GPCLR1),
	"GPLEV0":    unsafe.Offsetof(BCMRegisters{}.GPLEV0),
	"GPLEV1":    unsafe.Offsetof(BCMRegisters{}.GPLEV1),
	"GPEDS0":    unsafe.Offsetof(BCMRegisters{}.GPEDS0),
	"GPEDS1":    unsafe.Offsetof(BCMRegisters{}.GPEDS1),
	"GPREN0":    unsafe.Offsetof(BCMRegisters{}.GPREN0),
	"GPREN1":    unsafe.Offsetof(BCMRegisters{}.GPREN1),
	"GPFEN0":    unsafe.Offsetof(BCMRegisters{}.GPFEN0),
	"GPFEN1":    unsafe.Offsetof(BCMRegisters{}.GPFEN1),
	"GPPUD":     unsafe.Offsetof(BCMRegisters{}.GPPUD),
	"GPPUDCLK0": unsafe.Offsetof(BCMRegisters{}.GPPUDCLK0),
	"GPPUDCLK1": unsafe.Offsetof(BCMRegisters{}.GPPUDCLK1),
	"PWMCTL":    unsafe.Offsetof(BCMRegisters{}.PWMCTL),
	"PWMRNG1":   unsafe.Offsetof(BCMRegisters{}.PWMRNG1),
	"PWMRNG2":   unsafe.Offsetof(BCMRegisters{}.PWMRNG2),
	"PWMDAT1":   unsafe.Offsetof(BCMRegisters{}.PWMDAT1),
	"PWMDAT2":   unsafe.Offsetof(BCMRegisters{}.PWMDAT2),
}

func regPtr(r *BCMRegisters, name string) *uint32 {
	off, ok := regIndex[name]
	if !ok {
		return nil
	}
	return (*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(r)) + off))
}

// GetRegister returns a named register's value, for debug tooling. An
// unknown name returns 0.
func (r *BCMRegisters) GetRegister(name string) uint32 {
	if p := regPtr(r, name); p != nil {
		return *p
	}
	return 0
}

// SetRegister overwrites a named register, for debug tooling. An
// unknown name is a no-op.
func (r *BCMRegisters) SetRegister(name string, value uint32) {
	if p := regPtr(r, name); p != nil {
		*p = value
	}
}

func funcSelectCode(mode Mode) uint32 {
	switch mode {
	case Input:
		return 0b000
	case Output:
		return 0b001
	case Alt0:
		return 0b100
	case Alt1:
		return 0b101
	case Alt2:
		return 0b110
	case Alt3:
		return 0b111
	case Alt4:
		return 0b011
	case Alt5:
		return 0b010
	default:
		return 0b000
	}
}

// updateFunctionSelect mirrors _update_function_select: each GPFSELn
// register packs 10 pins at 3 bits each.
func (r *BCMRegisters) updateFunctionSelect(pin int, mode Mode) {
	if pin > 53 {
		return
	}
	regNum := pin / 10
	bitPos := uint32(pin%10) * 3
	names := [...]string{"GPFSEL0", "GPFSEL1", "GPFSEL2", "GPFSEL3", "GPFSEL4", "GPFSEL5"}
	p := regPtr(r, names[regNum])
	*p &^= 0x7 << bitPos
	*p |= funcSelectCode(mode) << bitPos
}

func (r *BCMRegisters) updateLevel(pin int, level bool) {
	reg, bit := levelReg(pin)
	p := regPtr(r, reg)
	if level {
		*p |= bit
	} else {
		*p &^= bit
	}
}

func levelReg(pin int) (string, uint32) {
	if pin < 32 {
		return "GPLEV0", 1 << uint32(pin)
	}
	return "GPLEV1", 1 << uint32(pin-32)
}

func (r *BCMRegisters) updateEdgeEnable(pin int, rising, falling bool) {
	bit := uint32(1) << uint32(pin%32)
	renReg, fenReg := "GPREN0", "GPFEN0"
	if pin >= 32 {
		renReg, fenReg = "GPREN1", "GPFEN1"
	}
	setBit(regPtr(r, renReg), bit, rising)
	setBit(regPtr(r, fenReg), bit, falling)
}

func setBit(p *uint32, bit uint32, on bool) {
	if on {
		*p |= bit
	} else {
		*p &^= bit
	}
}

func (r *BCMRegisters) updatePWM(channel int, rangeValue, dataValue uint32, enabled bool) {
	switch channel {
	case 0:
		r.PWMRNG1, r.PWMDAT1 = rangeValue, dataValue
	case 1:
		r.PWMRNG2, r.PWMDAT2 = rangeValue, dataValue
	}
	ctlBit := uint32(1) << uint32(channel*8)
	setBit(&r.PWMCTL, ctlBit, enabled)
}
