// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpioport drives a character display through periph GPIO pins.
//
// Pins can be passed one by one, or as a gpio.Group in which case bulk writes
// become a single Group.Out() transaction. This matters on I/O expanders where
// every write is a bus transaction.
package gpioport

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

var (
	ErrUnknownPin = errors.New("gpioport: unknown pin")
	ErrNotInput   = errors.New("gpioport: pin can't be used as an input")
	ErrNotOutput  = errors.New("gpioport: pin can't be used as an output")
	ErrEmptyGroup = errors.New("gpioport: group has no pins")
)

// PWMFrequency is the frequency used for the backlight.
const PWMFrequency = 1 * physic.KiloHertz

// Dev is a hd44780.Port over GPIO pins. The pin number used by the display
// is the index of the pin in the list given to New, or its offset in the
// group given to NewGroup.
type Dev struct {
	mu    sync.Mutex
	pins  []gpio.PinOut
	group gpio.Group
	tx    txStats
}

// New returns a Dev using pins. A nil entry is a pin that is not connected.
func New(pins ...gpio.PinOut) *Dev {
	return &Dev{pins: append([]gpio.PinOut(nil), pins...)}
}

// NewGroup returns a Dev using the pins of gr. Every pin in the group must
// implement gpio.PinOut.
func NewGroup(gr gpio.Group) (*Dev, error) {
	grPins := gr.Pins()
	if len(grPins) == 0 {
		return nil, ErrEmptyGroup
	}
	d := &Dev{group: gr, pins: make([]gpio.PinOut, len(grPins))}
	for ix, p := range grPins {
		out, ok := p.(gpio.PinOut)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotOutput, p)
		}
		d.pins[ix] = out
	}
	return d, nil
}

// SetPinMode configures the pin. Outputs are driven low.
func (d *Dev) SetPinMode(number int, input bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.pin(number)
	if err != nil {
		return err
	}
	if input {
		in, ok := p.(gpio.PinIn)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotInput, p)
		}
		return in.In(gpio.PullNoChange, gpio.NoEdge)
	}
	return d.timed(func() error { return p.Out(gpio.Low) })
}

// Out drives a single pin.
func (d *Dev) Out(number int, l gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.pin(number)
	if err != nil {
		return err
	}
	return d.timed(func() error { return p.Out(l) })
}

// OutBulk drives all the pins in levels. With a group it is a single
// transaction, otherwise pins are written in increasing pin order.
func (d *Dev) OutBulk(levels map[int]gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	numbers := make([]int, 0, len(levels))
	for n := range levels {
		if _, err := d.pin(n); err != nil {
			return err
		}
		numbers = append(numbers, n)
	}
	if d.group != nil {
		var value, mask gpio.GPIOValue
		for _, n := range numbers {
			bit := gpio.GPIOValue(1) << n
			mask |= bit
			if levels[n] {
				value |= bit
			}
		}
		return d.timed(func() error { return d.group.Out(value, mask) })
	}
	slices.Sort(numbers)
	for _, n := range numbers {
		if err := d.timed(func() error { return d.pins[n].Out(levels[n]) }); err != nil {
			return err
		}
	}
	return nil
}

// Analog sets the duty cycle of the pin. Fully off and fully on are plain
// digital writes, so pins without PWM still support them.
func (d *Dev) Analog(number int, v uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.pin(number)
	if err != nil {
		return err
	}
	switch v {
	case 0:
		return d.timed(func() error { return p.Out(gpio.Low) })
	case 0xff:
		return d.timed(func() error { return p.Out(gpio.High) })
	}
	return d.timed(func() error { return p.PWM(ToDuty(v), PWMFrequency) })
}

// AverageTxTime returns the mean duration of the writes done so far.
func (d *Dev) AverageTxTime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tx.average()
}

func (d *Dev) String() string {
	if d.group != nil {
		return "gpioport(" + d.group.String() + ")"
	}
	names := make([]string, len(d.pins))
	for ix, p := range d.pins {
		if p == nil {
			names[ix] = "NC"
		} else {
			names[ix] = p.Name()
		}
	}
	return fmt.Sprintf("gpioport%v", names)
}

// Halt halts every pin, or the group.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.group != nil {
		return d.group.Halt()
	}
	var errs []error
	for _, p := range d.pins {
		if p != nil {
			errs = append(errs, p.Halt())
		}
	}
	return errors.Join(errs...)
}

// ToDuty scales an 8 bit intensity to a gpio.Duty.
func ToDuty(v uint8) gpio.Duty {
	return gpio.Duty(int64(gpio.DutyMax) * int64(v) / 0xff)
}

func (d *Dev) pin(number int) (gpio.PinOut, error) {
	if number < 0 || number >= len(d.pins) || d.pins[number] == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPin, number)
	}
	return d.pins[number], nil
}

func (d *Dev) timed(f func() error) error {
	start := time.Now()
	err := f()
	d.tx.add(time.Since(start))
	return err
}

// txStats keeps a running mean of transaction durations.
type txStats struct {
	total time.Duration
	count int64
}

func (s *txStats) add(d time.Duration) {
	s.total += d
	s.count++
}

func (s *txStats) average() time.Duration {
	if s.count == 0 {
		return 0
	}
	return s.total / time.Duration(s.count)
}
