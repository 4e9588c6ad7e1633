// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shiftport drives a character display through a 74HC595 serial to
// parallel shift register on an SPI bus. The eight register outputs are the
// pins 0 to 7 seen by the display.
//
// # Datasheet
//
// https://www.nexperia.com/product/74HC595D
package shiftport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// NumPins is the number of outputs of the register.
const NumPins = 8

var (
	ErrUnknownPin       = errors.New("shiftport: unknown pin")
	ErrInputUnsupported = errors.New("shiftport: 74HC595 outputs can't be inputs")
)

// Dev is a hd44780.Port over a 74HC595.
type Dev struct {
	mu   sync.Mutex
	conn spi.Conn
	// value is the byte latched in the register. It starts out of range so
	// the first write always reaches the device.
	value uint16

	total time.Duration
	count int64
}

// New returns a Dev writing to conn. The connection should be set up for 8
// bits words, the latch pin being the chip select.
func New(conn spi.Conn) *Dev {
	return &Dev{conn: conn, value: 1 << 9}
}

// SetPinMode accepts outputs only, the register has no inputs.
func (d *Dev) SetPinMode(pin int, input bool) error {
	if err := check(pin); err != nil {
		return err
	}
	if input {
		return ErrInputUnsupported
	}
	return nil
}

// Out drives one output.
func (d *Dev) Out(pin int, l gpio.Level) error {
	if err := check(pin); err != nil {
		return err
	}
	var value byte
	if l {
		value = 1 << pin
	}
	return d.write(value, 1<<pin)
}

// OutBulk drives the outputs in levels with one SPI transaction.
func (d *Dev) OutBulk(levels map[int]gpio.Level) error {
	var value, mask byte
	for pin, l := range levels {
		if err := check(pin); err != nil {
			return err
		}
		mask |= 1 << pin
		if l {
			value |= 1 << pin
		}
	}
	return d.write(value, mask)
}

// Analog turns the output on for any non-zero level. The 74HC595 can't
// do PWM.
func (d *Dev) Analog(pin int, v uint8) error {
	return d.Out(pin, v != 0)
}

// AverageTxTime returns the mean duration of an SPI transaction.
func (d *Dev) AverageTxTime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.count == 0 {
		return 0
	}
	return d.total / time.Duration(d.count)
}

// Value returns the byte currently latched in the register.
func (d *Dev) Value() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return byte(d.value)
}

func (d *Dev) String() string {
	return "74HC595"
}

// Halt drives every output low.
func (d *Dev) Halt() error {
	return d.write(0, 0xff)
}

// write merges value into the latched byte for the bits set in mask. A write
// that changes nothing is skipped.
func (d *Dev) write(value, mask byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	newValue := (byte(d.value) &^ mask) | (value & mask)
	if d.value == uint16(newValue) {
		return nil
	}
	start := time.Now()
	err := d.conn.Tx([]byte{newValue}, nil)
	d.total += time.Since(start)
	d.count++
	if err != nil {
		return fmt.Errorf("shiftport: %w", err)
	}
	d.value = uint16(newValue)
	return nil
}

func check(pin int) error {
	if pin < 0 || pin >= NumPins {
		return fmt.Errorf("%w: %d", ErrUnknownPin, pin)
	}
	return nil
}
