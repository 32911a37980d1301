// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sbcsim-scope runs a short logic-analyzer capture against the Signal
// of a channel of the standalone PWM controller, then renders the
// waveform to the console and optionally exports it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"sbcsim/analyzer"
	"sbcsim/kernel"
	"sbcsim/pwm"
)

func mainImpl() error {
	verbose := flag.Bool("v", false, "verbose mode")
	freq := flag.Float64("freq", 100, "PWM frequency in Hz")
	duty := flag.Float64("duty", 50, "PWM duty cycle percent")
	durationMs := flag.Float64("duration", 50, "capture duration in milliseconds")
	sampleRate := flag.Float64("rate", 1_000_000, "sample rate in Hz")
	width := flag.Int("width", 80, "console render width in blocks")
	exportPath := flag.String("export", "", "optional CSV/VCD export path (extension picks format)")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	bus := kernel.NewEventBus()
	clk := kernel.NewClock(1) // 1us timestep, fine enough for MHz-range sampling
	pwmCtrl := pwm.NewController(bus)
	ch := pwmCtrl.NewChannel(0, *freq)
	pwmCtrl.SetDutyCycle(0, *duty)
	pwmCtrl.StartPWM(0)

	a := analyzer.NewAnalyzer(bus, 16)
	a.SampleRate = *sampleRate
	a.MemoryDepth = int(*durationMs / 1000.0 * *sampleRate)
	if a.MemoryDepth <= 0 {
		a.MemoryDepth = 1
	}
	a.AutoTrigger = true
	if err := a.AddChannel(0, "PWM0", ch.Signal, ""); err != nil {
		return err
	}
	a.StartAcquisition()

	fmt.Println("sbcsim Logic Analyzer")
	fmt.Printf("PWM0: %gHz, %g%% duty\n", *freq, *duty)
	fmt.Printf("Capturing %gms at %gHz sample rate (%d samples)\n", *durationMs, *sampleRate, a.MemoryDepth)

	clk.Start()
	deadline := *durationMs / 1000.0
	for clk.Now() < deadline {
		pwmCtrl.Update(clk.Now())
		a.Update(clk.Now())
		clk.Tick()
	}
	a.StopAcquisition()

	view := analyzer.NewConsoleView()
	if err := view.Render(a, *width); err != nil {
		return err
	}

	if *exportPath != "" {
		format := analyzer.FormatCSV
		if len(*exportPath) > 4 && (*exportPath)[len(*exportPath)-4:] == ".vcd" {
			format = analyzer.FormatVCD
		}
		if err := a.ExportData(*exportPath, format); err != nil {
			return err
		}
		fmt.Printf("Exported capture to %s\n", *exportPath)
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "sbcsim-scope: %s.\n", err)
		os.Exit(1)
	}
}
