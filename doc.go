// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sbcsim is for documentation only. It describes how the
// simulator's packages fit together.
//
// Kernel
//
// sbcsim/kernel implements the deterministic core every peripheral
// package builds on: a monotonic Clock, a recordable EventBus and the
// Signal model peripherals publish into. Nothing in this package
// depends on wall-clock time; a driver loop advances simulated time by
// calling Clock.Tick or Clock.AdvanceTo.
//
// Peripherals
//
// sbcsim/gpio, sbcsim/i2c, sbcsim/spi, sbcsim/uartline and sbcsim/pwm
// each own one peripheral controller. They publish kernel.Event values
// onto a shared kernel.EventBus and expose adapters
// (gpio.Pin, i2c.AsPeriphBus, spi.AsPeriphConn) conforming to
// periph.io/x/periph/conn interfaces, so code written against real
// periph.io drivers runs unmodified against the simulator.
//
// sbcsim/board supplies the minimal BCM pin table (sbcsim/board.Pi3,
// sbcsim/board.Pi4Model) gpio.Controller validates pin numbers and
// hardware-PWM channel assignments against.
//
// Analysis
//
// sbcsim/analyzer is a multi-channel logic analyzer that samples bound
// Signals into a triggered capture buffer, with frequency/duty-cycle
// measurement and CSV/VCD export. sbcsim/decoder offline-decodes a
// capture into I2C/SPI/UART protocol frames.
//
// Test support
//
// sbcsim/devicekit provides small simulated I2C/SPI devices (LED, ADC,
// TempSensor, Echo) and simulated-time assertion helpers for driving a
// scenario end to end without any wall-clock dependency.
package sbcsim
