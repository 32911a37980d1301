// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package uartline

import (
	"fmt"

	"sbcsim/simlog"
)

func logOnDataError(port int, r any) {
	simlog.Default.Errorf(fmt.Sprintf("UART%d", port), "data-received callback panicked: %v", r)
}
