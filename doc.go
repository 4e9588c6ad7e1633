// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package liquidcrystal is a container for the HD44780 character LCD driver
// and the ports it can be wired to.
//
// The driver itself lives in hd44780. gpioport and shiftport connect it to
// GPIO pins or to a 74HC595 shift register, lcdsim emulates the display.
package liquidcrystal
