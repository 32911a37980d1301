// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package devicekit

import (
	"testing"

	"sbcsim/board"
	"sbcsim/gpio"
	"sbcsim/i2c"
	"sbcsim/kernel"
)

func TestLEDRecordsWritesAndTracksState(t *testing.T) {
	led := NewLED(0x20)
	if !led.Write([]byte{0x01}) {
		t.Fatal("Write should ACK")
	}
	if !led.On() {
		t.Fatal("On() = false, want true after writing bit 0 set")
	}
	if len(led.Writes()) != 1 {
		t.Fatalf("Writes() = %d, want 1", len(led.Writes()))
	}
}

func TestADCReturnsConfiguredReading(t *testing.T) {
	adc := NewADC(0x48, 2)
	adc.SetReading([]byte{0x01, 0x23})
	got := adc.Read(2)
	if got[0] != 0x01 || got[1] != 0x23 {
		t.Fatalf("Read() = %v, want [0x01 0x23]", got)
	}
}

func TestTempSensorRegisterSelect(t *testing.T) {
	ts := NewTempSensor(0x76)
	ts.SetRegister(0xFA, []byte{0x7E, 0x10})
	ts.Write([]byte{0xFA})
	got := ts.Read(2)
	if got[0] != 0x7E || got[1] != 0x10 {
		t.Fatalf("Read() after select 0xFA = %v, want [0x7E 0x10]", got)
	}
}

func TestEchoMirrorsTransfer(t *testing.T) {
	e := NewEcho()
	got := e.Transfer([]byte{1, 2, 3})
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("Transfer() = %v, want echo of input", got)
	}
	if len(e.Transfers()) != 1 {
		t.Fatal("Transfers() should record one transfer")
	}
}

func TestAssertPinHighFindsEventWithinDeadline(t *testing.T) {
	bus := kernel.NewEventBus()
	bus.StartRecording()
	clk := kernel.NewClock(100) // 100us timestep
	ctrl := gpio.NewController(board.Pi3, bus)
	ctrl.Setup(17, gpio.Output, gpio.PullOff)

	clk.ScheduleTimer(0.0005, func() {
		ctrl.Output(17, 1, clk.Now())
	}, 0)
	clk.Start()

	a := NewAssertions(bus, clk)
	if err := a.AssertPinHigh(17, 0.01); err != nil {
		t.Fatalf("AssertPinHigh: %v", err)
	}
}

func TestAssertPinHighTimesOut(t *testing.T) {
	bus := kernel.NewEventBus()
	bus.StartRecording()
	clk := kernel.NewClock(100)
	clk.Start()

	a := NewAssertions(bus, clk)
	if err := a.AssertPinHigh(17, 0.001); err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestAssertI2CWriteFindsTransaction(t *testing.T) {
	bus := kernel.NewEventBus()
	bus.StartRecording()
	clk := kernel.NewClock(100)
	clk.Start()

	b := i2c.NewBus(1, 100000, bus)
	dev := NewLED(0x20)
	b.AddDevice(dev)
	b.WriteTransaction(0x20, []byte{0x01}, clk.Now())

	a := NewAssertions(bus, clk)
	if err := a.AssertI2CWrite(0x20, []byte{0x01}, 0.001); err != nil {
		t.Fatalf("AssertI2CWrite: %v", err)
	}
}

func TestAssertI2CReadReturnsData(t *testing.T) {
	bus := kernel.NewEventBus()
	bus.StartRecording()
	clk := kernel.NewClock(100)
	clk.Start()

	b := i2c.NewBus(1, 100000, bus)
	dev := NewADC(0x48, 2)
	dev.SetReading([]byte{0xAB, 0xCD})
	b.AddDevice(dev)
	b.ReadTransaction(0x48, 2, clk.Now())

	a := NewAssertions(bus, clk)
	data, err := a.AssertI2CRead(0x48, 2, 0.001)
	if err != nil {
		t.Fatalf("AssertI2CRead: %v", err)
	}
	if data[0] != 0xAB || data[1] != 0xCD {
		t.Fatalf("data = %v, want [0xAB 0xCD]", data)
	}
}

func TestAssertPWMFrequencyChecksEdgeTiming(t *testing.T) {
	bus := kernel.NewEventBus()
	bus.StartRecording()
	clk := kernel.NewClock(100)
	a := NewAssertions(bus, clk)

	sig := kernel.NewSignal("GPIO18", false)
	sig.OnEdge(kernel.Rising, func(s *kernel.Signal, edge kernel.EdgeKind, ts float64) {
		bus.Publish(kernel.Event{Kind: kernel.KindGPIOEdge, Timestamp: ts, Payload: kernel.Payload{"pin": 18, "edge": "rising"}})
	})
	for i := 0; i < 4; i++ {
		sig.SetValue(0, float64(i)*0.01)
		sig.SetValue(1, float64(i)*0.01+0.005)
	}
	if err := a.AssertPWMFrequency(18, 100, 5); err != nil {
		t.Fatalf("AssertPWMFrequency: %v", err)
	}
}

func TestAssertEventSequenceInOrder(t *testing.T) {
	bus := kernel.NewEventBus()
	bus.StartRecording()
	clk := kernel.NewClock(100)
	a := NewAssertions(bus, clk)

	bus.Publish(kernel.Event{Kind: kernel.KindGPIOState, Timestamp: 0, Source: "GPIO17", Payload: kernel.Payload{"pin": 17, "value": 1}})
	bus.Publish(kernel.Event{Kind: kernel.KindGPIOState, Timestamp: 0.1, Source: "GPIO17", Payload: kernel.Payload{"pin": 17, "value": 0}})

	expected := []ExpectedEvent{
		{Kind: kernel.KindGPIOState, Data: map[string]any{"value": 1}},
		{Kind: kernel.KindGPIOState, Data: map[string]any{"value": 0}},
	}
	if err := a.AssertEventSequence(expected, 0.01); err != nil {
		t.Fatalf("AssertEventSequence: %v", err)
	}
}

func TestAssertEventSequenceMissingEventFails(t *testing.T) {
	bus := kernel.NewEventBus()
	bus.StartRecording()
	clk := kernel.NewClock(100)
	a := NewAssertions(bus, clk)

	expected := []ExpectedEvent{{Kind: kernel.KindGPIOState, Data: map[string]any{"pin": 99}}}
	if err := a.AssertEventSequence(expected, 0.01); err == nil {
		t.Fatal("expected error for missing event")
	}
}
