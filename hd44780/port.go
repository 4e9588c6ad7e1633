// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Port is the I/O device the display is wired to. Pins are identified by
// their number on the port.
//
// Implementations are not required to be safe for concurrent use. If several
// displays share a Port, the caller must serialize every call made on them.
type Port interface {
	// SetPinMode configures pin as an input or an output.
	SetPinMode(pin int, input bool) error
	// Out drives a single pin.
	Out(pin int, l gpio.Level) error
	// OutBulk drives several pins in as few transactions as the port allows.
	OutBulk(levels map[int]gpio.Level) error
	// Analog writes an intensity between 0 and 255. Ports without PWM
	// support treat any non-zero value as high.
	Analog(pin int, v uint8) error
	// AverageTxTime returns how long a write transaction takes on average.
	// Delays shorter than this are skipped.
	AverageTxTime() time.Duration
}
