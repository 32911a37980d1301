// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import (
	"fmt"

	"sbcsim/simlog"
)

func logEdgeDispatchError(pin int, r any) {
	simlog.Default.Errorf(fmt.Sprintf("GPIO%d", pin), "edge detect callback panicked: %v", r)
}
