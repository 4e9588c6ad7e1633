// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// writeMode selects how send frames a value.
type writeMode byte

const (
	// modeFourBits sends the low nibble alone as an instruction. Only used
	// while the interface width is still being negotiated.
	modeFourBits writeMode = iota
	modeCommand
	modeData
)

var sleep = time.Sleep

func (lcd *HD44780) command(value byte) error {
	return lcd.send(value, modeCommand)
}

// send transmits value high nibble first, or only its low nibble in
// modeFourBits, then waits for the instruction to execute.
func (lcd *HD44780) send(value byte, mode writeMode) error {
	if mode == modeFourBits {
		if err := lcd.writeBits(value&0x0f, 4, modeCommand); err != nil {
			return err
		}
	} else {
		if err := lcd.writeBits(value>>4, 4, mode); err != nil {
			return err
		}
		if err := lcd.writeBits(value&0x0f, 4, mode); err != nil {
			return err
		}
	}
	lcd.sleep(ExecTime)
	return nil
}

// writeBits puts the low width bits of value on the data pins, bit 0 on the
// first pin, selects the register and latches it with an enable pulse. Bits
// with no pin to go to are dropped.
func (lcd *HD44780) writeBits(value byte, width int, mode writeMode) error {
	levels := make(map[int]gpio.Level, len(lcd.data)+2)
	if lcd.rw != NoPin {
		levels[lcd.rw] = gpio.Low
	}
	for i := 0; i < width && i < len(lcd.data); i++ {
		levels[lcd.data[i]] = gpio.Level(value>>i&1 == 1)
	}
	levels[lcd.rs] = gpio.Level(mode == modeData)
	if err := lcd.port.OutBulk(levels); err != nil {
		return err
	}
	return lcd.pulseEnable()
}

// pulseEnable latches whatever is on the data pins. The controller reads them
// on the falling edge.
func (lcd *HD44780) pulseEnable() error {
	if err := lcd.port.Out(lcd.en, gpio.High); err != nil {
		return err
	}
	lcd.sleep(EnablePulse)
	return lcd.port.Out(lcd.en, gpio.Low)
}

// sleep waits for at least d. A slow port already spends AverageTxTime on
// every write, so only the remainder is slept, if any.
func (lcd *HD44780) sleep(d time.Duration) {
	if avg := lcd.port.AverageTxTime(); d > avg {
		sleep(d - avg)
	}
}
