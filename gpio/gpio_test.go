// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import (
	"errors"
	"testing"

	"sbcsim/board"
	"sbcsim/kernel"
)

func newTestController() *Controller {
	return NewController(board.Pi3, kernel.NewEventBus())
}

func TestSetupRejectsNonGPIOPin(t *testing.T) {
	c := newTestController()
	if err := c.Setup(99, Input, PullOff); !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("err = %v, want ErrInvalidPin", err)
	}
}

func TestSetupInitialValueFollowsPull(t *testing.T) {
	c := newTestController()
	if err := c.Setup(17, Input, PullUp); err != nil {
		t.Fatal(err)
	}
	v, _ := c.Input(17)
	if v != 1 {
		t.Fatalf("initial value with pull-up = %d, want 1", v)
	}

	c2 := newTestController()
	c2.Setup(17, Input, PullDown)
	v2, _ := c2.Input(17)
	if v2 != 0 {
		t.Fatalf("initial value with pull-down = %d, want 0", v2)
	}
}

func TestOutputRequiresOutputMode(t *testing.T) {
	c := newTestController()
	c.Setup(17, Input, PullOff)
	if err := c.Output(17, 1, 0); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("err = %v, want ErrWrongMode", err)
	}
}

func TestOutputPublishesGPIOState(t *testing.T) {
	c := newTestController()
	c.Setup(17, Output, PullOff)
	var got kernel.Event
	c.bus.Subscribe(kernel.KindGPIOState, func(e kernel.Event) { got = e })
	if err := c.Output(17, 1, 1.5); err != nil {
		t.Fatal(err)
	}
	if got.Payload["pin"] != 17 || got.Payload["value"] != 1 {
		t.Fatalf("event = %+v", got)
	}
}

func TestInputPullUpDoesNotOverrideExternalDrive(t *testing.T) {
	c := newTestController()
	c.Setup(17, Input, PullUp)
	c.pins[17].value = 0 // external drive low
	v, _ := c.Input(17)
	// Pull only fills in the resting value Setup starts the pin at; an
	// external drive low afterwards reads low.
	if v != 0 {
		t.Fatalf("input = %d, want 0 (external drive wins over pull-up)", v)
	}
}

func TestEdgeDetectFiresOnTransition(t *testing.T) {
	c := newTestController()
	c.Setup(17, Output, PullOff)
	fired := 0
	c.AddEventDetect(17, kernel.Rising, func(pin int) { fired++ }, 0)
	c.Output(17, 1, 1.0)
	c.Output(17, 0, 2.0)
	c.Output(17, 1, 3.0)
	if fired != 2 {
		t.Fatalf("fired = %d, want 2 (rising edges only)", fired)
	}
}

func TestEdgeDetectDebounceSuppression(t *testing.T) {
	c := newTestController()
	c.Setup(17, Output, PullOff)
	fired := 0
	c.AddEventDetect(17, kernel.BothEdges, func(pin int) { fired++ }, 500) // 500ms bounce
	c.Output(17, 1, 0)
	c.Output(17, 0, 0.1) // within 500ms, suppressed
	c.Output(17, 1, 1.0) // past bounce window
	if fired != 2 {
		t.Fatalf("fired = %d, want 2 (first edge + one past debounce)", fired)
	}
}

func TestRemoveEventDetectStopsCallbacks(t *testing.T) {
	c := newTestController()
	c.Setup(17, Output, PullOff)
	fired := 0
	c.AddEventDetect(17, kernel.BothEdges, func(pin int) { fired++ }, 0)
	c.RemoveEventDetect(17)
	c.Output(17, 1, 0)
	if fired != 0 {
		t.Fatalf("fired = %d, want 0 after removal", fired)
	}
}

func TestInjectGlitchPulsesAndRestores(t *testing.T) {
	c := newTestController()
	c.Setup(17, Output, PullOff)
	c.Output(17, 0, 0)
	if err := c.InjectGlitch(17, 10, 1.0); err != nil {
		t.Fatal(err)
	}
	sig := c.Signal(17)
	samples := sig.Samples(nil, nil)
	last := samples[len(samples)-1]
	if last.Value != 0 {
		t.Fatalf("final glitch sample = %v, want restored to 0", last.Value)
	}
}

func TestHardwarePWMComputesRangeAndData(t *testing.T) {
	c := newTestController()
	if err := c.SetupPWMHardware(18, 1000, 50); err != nil {
		t.Fatal(err)
	}
	wantRange := uint32(PWMClockHz / 1000)
	if got := c.GetRegister("PWMRNG1"); got != wantRange {
		t.Fatalf("PWMRNG1 = %d, want %d", got, wantRange)
	}
	wantData := wantRange / 2
	if got := c.GetRegister("PWMDAT1"); got != wantData {
		t.Fatalf("PWMDAT1 = %d, want %d", got, wantData)
	}
}

func TestHardwarePWMRejectsNonPWMPin(t *testing.T) {
	c := newTestController()
	if err := c.SetupPWMHardware(17, 1000, 50); !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("err = %v, want ErrInvalidPin", err)
	}
}

func TestSoftwarePWMTogglesAcrossDuty(t *testing.T) {
	c := newTestController()
	c.SetupPWMSoftware(17, 10) // 10Hz -> 100ms period
	c.StartPWM(17, 50)

	var states []int
	sub := c.bus.Subscribe(kernel.KindGPIOState, func(e kernel.Event) {
		states = append(states, e.Payload["pin"].(int))
	})
	defer sub.Close()

	c.UpdateSoftwarePWM(0.0)   // cycle start -> high
	c.UpdateSoftwarePWM(0.06)  // past 50% of 100ms -> low
	c.UpdateSoftwarePWM(0.10)  // new cycle start -> high again

	v, _ := c.Input(17)
	if v != 1 {
		t.Fatalf("final software PWM value = %d, want 1", v)
	}
	if len(states) != 3 {
		t.Fatalf("state transitions published = %d, want 3", len(states))
	}
}

func TestStopPWMDrivesSoftwarePinLow(t *testing.T) {
	c := newTestController()
	c.SetupPWMSoftware(17, 10)
	c.StartPWM(17, 100)
	c.UpdateSoftwarePWM(0)
	c.StopPWM(17)
	v, _ := c.Input(17)
	if v != 0 {
		t.Fatalf("value after StopPWM = %d, want 0", v)
	}
}
