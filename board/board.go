// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package board provides the minimal static pin table sbcsim uses to
// validate GPIO numbers and hardware-PWM channel assignments. It is
// observability/validation data only, not an authoritative register
// model: the gpio package owns the BCM register mirror.
package board

// Function names a BCM GPIO's fixed alternate function, where it has
// one. Most GPIOs have no fixed function and are plain digital I/O.
type Function string

// Alternate functions modeled, matching the ALT0/ALT5 assignments in
// the reference 40-pin header table.
const (
	FuncGPIO    Function = "gpio"
	FuncI2CSDA  Function = "i2c_sda"
	FuncI2CSCL  Function = "i2c_scl"
	FuncSPIMOSI Function = "spi_mosi"
	FuncSPIMISO Function = "spi_miso"
	FuncSPISCLK Function = "spi_sclk"
	FuncSPICE0  Function = "spi_ce0"
	FuncSPICE1  Function = "spi_ce1"
	FuncUARTTX  Function = "uart_tx"
	FuncUARTRX  Function = "uart_rx"
	FuncPWM0    Function = "pwm0"
	FuncPWM1    Function = "pwm1"
)

// PinInfo describes one row of a board's 40-pin header.
type PinInfo struct {
	BCM        int     // BCM GPIO number, or -1 for power/ground rows.
	Header     int     // 1-based physical header position.
	Name       string  // Silkscreen label, e.g. "GPIO18" or "3V3".
	Function   Function
	PowerPin   bool
	GroundPin  bool
	// PWMChannel is the hardware PWM channel (0 or 1) this pin is wired
	// to, or nil if the pin has no hardware PWM capability.
	PWMChannel *int
}

// GPIOCapable reports whether this row can be configured as a digital
// I/O GPIO pin, excluding power/ground rows.
func (p PinInfo) GPIOCapable() bool {
	return !p.PowerPin && !p.GroundPin
}

func pwmChan(n int) *int { return &n }

// Model is a static board pin table keyed by BCM GPIO number.
type Model struct {
	Name string
	pins map[int]PinInfo
}

// Pin looks up a BCM GPIO number's row. ok is false for numbers not
// present on this board's header and for power/ground rows, which
// newModel leaves out of the table.
func (m Model) Pin(bcm int) (PinInfo, bool) {
	p, ok := m.pins[bcm]
	return p, ok
}

// Pins returns every GPIO-capable row, in ascending BCM order.
func (m Model) Pins() []PinInfo {
	out := make([]PinInfo, 0, len(m.pins))
	for _, p := range m.pins {
		out = append(out, p)
	}
	// Insertion order from a map is unspecified; sort for determinism.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].BCM < out[j-1].BCM; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func newModel(name string, rows []PinInfo) Model {
	m := Model{Name: name, pins: make(map[int]PinInfo, len(rows))}
	for _, r := range rows {
		if r.GPIOCapable() {
			m.pins[r.BCM] = r
		}
	}
	return m
}

// Pi3 is the 40-pin header of a Raspberry Pi 3 Model B, ported from
// original_source's PI_PIN_DEFINITIONS table. Power/ground rows are
// omitted since board.Model only indexes GPIO-capable pins.
var Pi3 = newModel("Pi3", []PinInfo{
	{BCM: 2, Header: 3, Name: "GPIO2", Function: FuncI2CSDA},
	{BCM: 3, Header: 5, Name: "GPIO3", Function: FuncI2CSCL},
	{BCM: 4, Header: 7, Name: "GPIO4"},
	{BCM: 5, Header: 29, Name: "GPIO5"},
	{BCM: 6, Header: 31, Name: "GPIO6"},
	{BCM: 7, Header: 26, Name: "GPIO7", Function: FuncSPICE1},
	{BCM: 8, Header: 24, Name: "GPIO8", Function: FuncSPICE0},
	{BCM: 9, Header: 21, Name: "GPIO9", Function: FuncSPIMISO},
	{BCM: 10, Header: 19, Name: "GPIO10", Function: FuncSPIMOSI},
	{BCM: 11, Header: 23, Name: "GPIO11", Function: FuncSPISCLK},
	{BCM: 12, Header: 32, Name: "GPIO12", Function: FuncPWM0, PWMChannel: pwmChan(0)},
	{BCM: 13, Header: 33, Name: "GPIO13", Function: FuncPWM1, PWMChannel: pwmChan(1)},
	{BCM: 14, Header: 8, Name: "GPIO14", Function: FuncUARTTX},
	{BCM: 15, Header: 10, Name: "GPIO15", Function: FuncUARTRX},
	{BCM: 16, Header: 36, Name: "GPIO16"},
	{BCM: 17, Header: 11, Name: "GPIO17"},
	{BCM: 18, Header: 12, Name: "GPIO18", Function: FuncPWM0, PWMChannel: pwmChan(0)},
	{BCM: 19, Header: 35, Name: "GPIO19", Function: FuncPWM1, PWMChannel: pwmChan(1)},
	{BCM: 20, Header: 38, Name: "GPIO20"},
	{BCM: 21, Header: 40, Name: "GPIO21"},
	{BCM: 22, Header: 15, Name: "GPIO22"},
	{BCM: 23, Header: 16, Name: "GPIO23"},
	{BCM: 24, Header: 18, Name: "GPIO24"},
	{BCM: 25, Header: 22, Name: "GPIO25"},
	{BCM: 26, Header: 37, Name: "GPIO26"},
	{BCM: 27, Header: 13, Name: "GPIO27"},
})

// Pi4Model is the Pi4's 40-pin header. The BCM2711 keeps the same pin
// numbering and PWM channel assignments as the Pi3's BCM2837, so its
// table is derived directly from Pi3's.
var Pi4Model = newModel("Pi4", Pi3.Pins())
