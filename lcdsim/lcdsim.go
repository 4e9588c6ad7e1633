// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates an HD44780 controller behind a hd44780.Port.
//
// The emulator watches the pins the way the controller does: a nibble is
// latched on every falling edge of EN. It powers up in 8-bit interface mode
// and needs the usual 0x3, 0x3, 0x3, 0x2 handshake before bytes are read as
// two nibbles. Instructions are then executed against DDRAM and CGRAM so the
// display content can be checked, printed to a terminal or drawn.
//
// Useful to develop without the hardware on the desk, and in tests.
package lcdsim

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GermanBionicSystems/liquidcrystal/hd44780"
	"github.com/maruel/ansi256"
	"periph.io/x/conn/v3/gpio"
)

// ErrNotOutput is returned when a pin is written before being configured as
// an output.
var ErrNotOutput = errors.New("lcdsim: pin is not an output")

const (
	ddramSize = 0x80
	cgramSize = 0x40
	lineLen   = 40
)

// Op is a byte transferred in 4-bit mode.
type Op struct {
	// Data is true when RS was high, false for an instruction.
	Data  bool
	Value byte
}

func (o Op) String() string {
	if o.Data {
		return fmt.Sprintf("D(0x%02x)", o.Value)
	}
	return fmt.Sprintf("C(0x%02x)", o.Value)
}

// Dev is an emulated display. It implements hd44780.Port.
type Dev struct {
	// TxTime is reported as the port's AverageTxTime.
	TxTime time.Duration
	// Palette is used by Render. ansi256.Default when nil.
	Palette *ansi256.Palette

	mu      sync.Mutex
	en      int
	rs      int
	bl      int
	data    []int
	rows    int
	cols    int
	outputs map[int]bool
	levels  map[int]gpio.Level
	light   uint8

	fourBit  bool
	pending  bool
	high     byte
	nibbles  []byte
	ops      []Op
	ddram    [ddramSize]byte
	cgram    [cgramSize]byte
	ac       int
	cg       bool
	shift    int
	function byte
	control  byte
	entry    byte
}

// New returns an emulated display wired as described by opts. If opts is
// nil, hd44780.DefaultOpts is used.
func New(opts *hd44780.Opts) *Dev {
	if opts == nil {
		opts = &hd44780.DefaultOpts
	}
	d := &Dev{
		en:      opts.EN,
		rs:      opts.RS,
		bl:      opts.Backlight,
		data:    append([]int(nil), opts.Data...),
		rows:    opts.Rows,
		cols:    opts.Cols,
		outputs: map[int]bool{},
		levels:  map[int]gpio.Level{},
		// Power on reset state.
		function: hd44780.FunctionSet | hd44780.Mode8Bit,
		entry:    hd44780.EntryLeft,
	}
	for i := range d.ddram {
		d.ddram[i] = ' '
	}
	return d
}

// SetPinMode implements hd44780.Port.
func (d *Dev) SetPinMode(pin int, input bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputs[pin] = !input
	return nil
}

// Out implements hd44780.Port.
func (d *Dev) Out(pin int, l gpio.Level) error {
	return d.OutBulk(map[int]gpio.Level{pin: l})
}

// OutBulk implements hd44780.Port. The levels are applied at once, a
// falling edge on EN latches the data pins as set by the same call.
func (d *Dev) OutBulk(levels map[int]gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for pin := range levels {
		if !d.outputs[pin] {
			return fmt.Errorf("%w: %d", ErrNotOutput, pin)
		}
	}
	falling := false
	if l, ok := levels[d.en]; ok && l == gpio.Low && d.levels[d.en] == gpio.High {
		falling = true
	}
	for pin, l := range levels {
		d.levels[pin] = l
	}
	if falling {
		d.latch()
	}
	return nil
}

// Analog implements hd44780.Port.
func (d *Dev) Analog(pin int, v uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.outputs[pin] {
		return fmt.Errorf("%w: %d", ErrNotOutput, pin)
	}
	d.levels[pin] = v != 0
	if pin == d.bl {
		d.light = v
	}
	return nil
}

// AverageTxTime implements hd44780.Port.
func (d *Dev) AverageTxTime() time.Duration {
	return d.TxTime
}

// Ops returns the bytes received in 4-bit mode, in order.
func (d *Dev) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Op(nil), d.ops...)
}

// ResetOps forgets the bytes received so far.
func (d *Dev) ResetOps() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = nil
}

// Nibbles returns the values latched while in 8-bit interface mode.
func (d *Dev) Nibbles() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.nibbles...)
}

// FourBit reports whether the controller is in 4-bit interface mode.
func (d *Dev) FourBit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fourBit
}

// Function returns the last function set instruction.
func (d *Dev) Function() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.function
}

// Control returns the display, cursor and blink flags.
func (d *Dev) Control() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.control
}

// Entry returns the entry mode flags.
func (d *Dev) Entry() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entry
}

// Address returns the address counter and whether it points to CGRAM.
func (d *Dev) Address() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ac, d.cg
}

// Shift returns the display shift, positive when the content moved left.
func (d *Dev) Shift() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shift
}

// Backlight returns the backlight level.
func (d *Dev) Backlight() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.light
}

// Glyph returns the 8 rows of custom character location.
func (d *Dev) Glyph(location int) [8]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	var g [8]byte
	copy(g[:], d.cgram[(location&7)*8:])
	return g
}

// Codes returns the character codes visible on row.
func (d *Dev) Codes(row int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes(row)
}

// Line returns the text visible on row. Codes outside of printable ASCII
// are shown as '?'.
func (d *Dev) Line(row int) string {
	var b strings.Builder
	for _, c := range d.Codes(row) {
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// String returns all the rows, one per line.
func (d *Dev) String() string {
	lines := make([]string, d.rows)
	for r := range lines {
		lines[r] = d.Line(r)
	}
	return strings.Join(lines, "\n")
}

func (d *Dev) codes(row int) []byte {
	out := make([]byte, d.cols)
	base := int(hd44780.RowOffset(row, d.rows, d.cols))
	for col := range out {
		out[col] = d.ddram[d.visible(base+col)]
	}
	return out
}

// visible maps the unshifted address addr to the address shown there once
// the display shift is applied.
func (d *Dev) visible(addr int) int {
	if !d.twoLine() {
		return mod(addr+d.shift, 2*lineLen)
	}
	line := addr & 0x40
	return line | mod((addr&0x3f)+d.shift, lineLen)
}

func (d *Dev) twoLine() bool {
	return d.function&hd44780.Line2 != 0
}

func (d *Dev) latch() {
	var nibble byte
	for i, p := range d.data {
		if i < 4 && d.levels[p] {
			nibble |= 1 << i
		}
	}
	rs := bool(d.levels[d.rs])
	if !d.fourBit {
		d.nibbles = append(d.nibbles, nibble)
		d.exec(rs, nibble<<4)
		return
	}
	if !d.pending {
		d.high = nibble
		d.pending = true
		return
	}
	d.pending = false
	v := d.high<<4 | nibble
	d.ops = append(d.ops, Op{Data: rs, Value: v})
	d.exec(rs, v)
}

func (d *Dev) exec(data bool, v byte) {
	if data {
		d.write(v)
		return
	}
	switch {
	case v&hd44780.SetDDRAMAddr != 0:
		d.ac, d.cg = int(v&0x7f), false
	case v&hd44780.SetCGRAMAddr != 0:
		d.ac, d.cg = int(v&0x3f), true
	case v&hd44780.FunctionSet != 0:
		d.function = v
		d.fourBit = v&hd44780.Mode8Bit == 0
		d.pending = false
	case v&hd44780.CursorShift != 0:
		step := -1
		if v&hd44780.MoveRight != 0 {
			step = 1
		}
		if v&hd44780.DisplayMove != 0 {
			d.shift -= step
		} else {
			d.moveAC(step)
		}
	case v&hd44780.DisplayControl != 0:
		d.control = v & 0x07
	case v&hd44780.EntryModeSet != 0:
		d.entry = v & 0x03
	case v&hd44780.ReturnHome != 0:
		d.ac, d.cg, d.shift = 0, false, 0
	case v&hd44780.ClearDisplay != 0:
		for i := range d.ddram {
			d.ddram[i] = ' '
		}
		d.ac, d.cg, d.shift = 0, false, 0
		d.entry |= hd44780.EntryLeft
	}
}

func (d *Dev) write(v byte) {
	step := -1
	if d.entry&hd44780.EntryLeft != 0 {
		step = 1
	}
	if d.cg {
		d.cgram[d.ac] = v
		d.ac = mod(d.ac+step, cgramSize)
		return
	}
	d.ddram[d.ac] = v
	d.moveAC(step)
	if d.entry&hd44780.EntryShiftIncrement != 0 {
		d.shift += step
	}
}

// moveAC moves the address counter by step, wrapping like the controller.
func (d *Dev) moveAC(step int) {
	if d.cg {
		d.ac = mod(d.ac+step, cgramSize)
		return
	}
	if !d.twoLine() {
		d.ac = mod(d.ac+step, 2*lineLen)
		return
	}
	// 0x00-0x27 is followed by 0x40-0x67, which wraps back to 0x00.
	pos := d.ac & 0x3f
	if pos >= lineLen {
		pos = lineLen - 1
	}
	if d.ac&0x40 != 0 {
		pos += lineLen
	}
	pos = mod(pos+step, 2*lineLen)
	if pos >= lineLen {
		d.ac = 0x40 | (pos - lineLen)
	} else {
		d.ac = pos
	}
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}
