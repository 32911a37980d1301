// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sbcsim-blink drives a simulated GPIO pin high and low at a fixed
// rate, the simulator's equivalent of the classic blink-an-LED example.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"sbcsim/board"
	"sbcsim/gpio"
	"sbcsim/kernel"
)

func mainImpl() error {
	verbose := flag.Bool("v", false, "verbose mode")
	pin := flag.Int("pin", 18, "BCM pin number to blink")
	count := flag.Int("count", 10, "number of on/off cycles")
	delayMs := flag.Float64("delay", 500, "on/off delay in milliseconds")
	model := flag.String("model", "pi3", "board model: pi3 or pi4")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	var boardModel board.Model
	switch *model {
	case "pi3":
		boardModel = board.Pi3
	case "pi4":
		boardModel = board.Pi4Model
	default:
		return fmt.Errorf("unknown board model %q", *model)
	}

	bus := kernel.NewEventBus()
	clk := kernel.NewClock(1000) // 1ms timestep
	ctrl := gpio.NewController(boardModel, bus)

	if err := ctrl.Setup(*pin, gpio.Output, gpio.PullOff); err != nil {
		return err
	}

	fmt.Println("sbcsim LED Blink")
	fmt.Printf("LED Pin: GPIO%d\n", *pin)
	fmt.Printf("Blink Count: %d\n", *count)
	fmt.Printf("Delay: %gms\n", *delayMs)
	fmt.Println("------------------------------")

	delaySeconds := *delayMs / 1000.0
	clk.Start()

	for i := 0; i < *count; i++ {
		if err := ctrl.Output(*pin, 1, clk.Now()); err != nil {
			return err
		}
		fmt.Printf("Blink %d: LED ON\n", i+1)
		clk.AdvanceTo(clk.Now() + delaySeconds)

		if err := ctrl.Output(*pin, 0, clk.Now()); err != nil {
			return err
		}
		fmt.Printf("Blink %d: LED OFF\n", i+1)
		clk.AdvanceTo(clk.Now() + delaySeconds)
	}

	fmt.Println("Blink sequence complete!")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "sbcsim-blink: %s.\n", err)
		os.Exit(1)
	}
}
