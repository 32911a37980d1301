// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kernel

import "sbcsim/simlog"

func logEventCallbackError(event Event, r any) {
	simlog.Default.Errorf(string(event.Kind), "subscriber callback panicked: %v", r)
}

func logTimerError(r any) {
	simlog.Default.Errorf("clock", "timer callback panicked: %v", r)
}

func logScheduledEventError(r any) {
	simlog.Default.Errorf("scheduler", "scheduled callback panicked: %v", r)
}

func logEdgeCallbackError(signalName string, r any) {
	simlog.Default.Errorf(signalName, "edge callback panicked: %v", r)
}
