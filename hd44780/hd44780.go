// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls character LCD displays built around the Hitachi
// HD44780 controller, wired in 4-bit mode to a Port.
//
// The busy flag is never read. Every instruction is followed by the delay the
// datasheet documents for it, shortened by the time the Port already spends
// on a transaction.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// NoPin marks an optional pin as not connected.
const NoPin = -1

// BacklightOn is the backlight level set during initialization.
const BacklightOn uint8 = 0xff

// CharSize selects the font.
type CharSize byte

const (
	Font5x8  CharSize = CharSize(Dots5x8)
	Font5x10 CharSize = CharSize(Dots5x10)
)

// ErrInvalidConfiguration is returned by New when Opts cannot describe a
// display.
var ErrInvalidConfiguration = errors.New("hd44780: invalid configuration")

// Opts describes how the display is wired to the Port and its geometry.
//
// Start from a copy of DefaultOpts: a zero RW or Backlight is pin 0, not NoPin.
// New rejects wiring where two roles share a pin.
type Opts struct {
	EN int
	// RW is pulled low before every write. Set to NoPin when tied to ground.
	RW int
	RS int
	// Data lists the data pins, least significant bit first. In 4-bit mode
	// these are connected to D4-D7.
	Data []int
	// Backlight is driven with Port.Analog. Set to NoPin when not connected.
	Backlight int
	Cols      int
	Rows      int
	// CharSize Font5x10 is only honored by single row displays.
	CharSize CharSize
}

// DefaultOpts is the wiring of the common PyWiring style breakout.
var DefaultOpts = Opts{
	EN:        2,
	RW:        1,
	RS:        0,
	Data:      []int{4, 5, 6, 7},
	Backlight: 3,
	Cols:      16,
	Rows:      2,
	CharSize:  Font5x8,
}

// HD44780 is a display driven in 4-bit mode.
//
// The cached function, control and entry registers always hold the value last
// sent to the controller.
type HD44780 struct {
	port Port
	en   int
	rw   int
	rs   int
	bl   int
	data []int
	rows int
	cols int

	function  byte
	control   byte
	entry     byte
	backlight uint8
}

// New initializes the display wired to p as described by opts. If opts is
// nil, DefaultOpts is used.
//
// New blocks for at least PowerOnDelay.
func New(p Port, opts *Opts) (*HD44780, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if n := len(opts.Data); n != 4 && n != 8 {
		return nil, fmt.Errorf("%w: %d data pins, want 4 or 8", ErrInvalidConfiguration, n)
	}
	if opts.EN == NoPin || opts.RS == NoPin {
		return nil, fmt.Errorf("%w: EN and RS are required", ErrInvalidConfiguration)
	}
	if err := checkPins(opts); err != nil {
		return nil, err
	}
	if opts.Rows < 1 || opts.Cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d geometry", ErrInvalidConfiguration, opts.Rows, opts.Cols)
	}
	lcd := &HD44780{
		port:     p,
		en:       opts.EN,
		rw:       opts.RW,
		rs:       opts.RS,
		bl:       opts.Backlight,
		data:     append([]int(nil), opts.Data...),
		rows:     opts.Rows,
		cols:     opts.Cols,
		function: FunctionSet | Mode4Bit,
		control:  DisplayOn | CursorOn | BlinkOn,
		entry:    EntryLeft | EntryShiftDecrement,
	}
	if lcd.rows > 1 {
		lcd.function |= Line2
	} else if opts.CharSize == Font5x10 {
		lcd.function |= Dots5x10
	}
	if err := lcd.setup(); err != nil {
		return nil, err
	}
	return lcd, lcd.init()
}

// checkPins verifies that no pin is used twice.
func checkPins(opts *Opts) error {
	used := map[int]string{}
	add := func(role string, pin int) error {
		if pin == NoPin {
			return nil
		}
		if other, ok := used[pin]; ok {
			return fmt.Errorf("%w: pin %d used as %s and %s", ErrInvalidConfiguration, pin, other, role)
		}
		used[pin] = role
		return nil
	}
	for _, r := range []struct {
		role string
		pin  int
	}{{"RS", opts.RS}, {"EN", opts.EN}, {"RW", opts.RW}, {"backlight", opts.Backlight}} {
		if err := add(r.role, r.pin); err != nil {
			return err
		}
	}
	for i, p := range opts.Data {
		if err := add(fmt.Sprintf("D%d", i), p); err != nil {
			return err
		}
	}
	return nil
}

// setup makes every pin an output and pulls the control lines low.
func (lcd *HD44780) setup() error {
	levels := map[int]gpio.Level{lcd.rs: gpio.Low, lcd.en: gpio.Low}
	pins := append([]int(nil), lcd.data...)
	pins = append(pins, lcd.rs)
	for _, p := range []int{lcd.rw, lcd.bl} {
		if p != NoPin {
			pins = append(pins, p)
			levels[p] = gpio.Low
		}
	}
	pins = append(pins, lcd.en)
	for _, p := range pins {
		if err := lcd.port.SetPinMode(p, false); err != nil {
			return err
		}
	}
	return lcd.port.OutBulk(levels)
}

// init runs the power on sequence of figure 24 in the datasheet. The three
// 0x3 nibbles put the controller in 8-bit mode whatever state it was in, so
// the following 0x2 is always read as the switch to 4-bit mode.
func (lcd *HD44780) init() error {
	lcd.sleep(PowerOnDelay)
	steps := []struct {
		nibble byte
		delay  func()
	}{
		{0x03, func() { lcd.sleep(initFirstDelay) }},
		{0x03, func() { lcd.sleep(initSecondDelay) }},
		{0x03, func() { lcd.sleep(initThirdDelay) }},
		{0x02, func() {}},
	}
	for _, s := range steps {
		if err := lcd.send(s.nibble, modeFourBits); err != nil {
			return err
		}
		s.delay()
	}
	if err := lcd.command(lcd.function); err != nil {
		return err
	}
	if err := lcd.command(DisplayControl | lcd.control); err != nil {
		return err
	}
	if err := lcd.Clear(); err != nil {
		return err
	}
	if err := lcd.command(EntryModeSet | lcd.entry); err != nil {
		return err
	}
	return lcd.SetBacklight(BacklightOn)
}

// Clear blanks the display and moves the cursor home.
func (lcd *HD44780) Clear() error {
	if err := lcd.command(ClearDisplay); err != nil {
		return err
	}
	lcd.sleep(HomeClearExecTime)
	return nil
}

// Home moves the cursor to the first character and undoes any display
// scroll.
func (lcd *HD44780) Home() error {
	if err := lcd.command(ReturnHome); err != nil {
		return err
	}
	lcd.sleep(HomeClearExecTime)
	return nil
}

// SetCursor moves the cursor to row, col. Both start at 0. Rows past the
// last one are clamped to the last row.
func (lcd *HD44780) SetCursor(row, col int) error {
	if row >= lcd.rows {
		row = lcd.rows - 1
	}
	if row < 0 {
		row = 0
	}
	return lcd.command(SetDDRAMAddr | (RowOffset(row, lcd.rows, lcd.cols) + byte(col)))
}

// DisplayOn reports whether the display content is shown.
func (lcd *HD44780) DisplayOn() bool {
	return lcd.control&DisplayOn != 0
}

// SetDisplayOn shows or hides the content of the display. DDRAM is kept.
func (lcd *HD44780) SetDisplayOn(on bool) error {
	return lcd.setControl(DisplayOn, on)
}

// CursorOn reports whether the underline cursor is shown.
func (lcd *HD44780) CursorOn() bool {
	return lcd.control&CursorOn != 0
}

// SetCursorOn shows or hides the underline cursor.
func (lcd *HD44780) SetCursorOn(on bool) error {
	return lcd.setControl(CursorOn, on)
}

// BlinkOn reports whether the cursor position blinks.
func (lcd *HD44780) BlinkOn() bool {
	return lcd.control&BlinkOn != 0
}

// SetBlinkOn enables or disables the blinking block at the cursor position.
func (lcd *HD44780) SetBlinkOn(on bool) error {
	return lcd.setControl(BlinkOn, on)
}

// LTR reports whether text is written left to right.
func (lcd *HD44780) LTR() bool {
	return lcd.entry&EntryLeft != 0
}

// SetLTR writes new characters left to right when true.
func (lcd *HD44780) SetLTR(ltr bool) error {
	return lcd.setEntry(EntryLeft, ltr)
}

// RTL reports whether text is written right to left.
func (lcd *HD44780) RTL() bool {
	return !lcd.LTR()
}

// SetRTL writes new characters right to left when true.
func (lcd *HD44780) SetRTL(rtl bool) error {
	return lcd.SetLTR(!rtl)
}

// Autoscroll reports whether the display shifts on every write.
func (lcd *HD44780) Autoscroll() bool {
	return lcd.entry&EntryShiftIncrement != 0
}

// SetAutoscroll makes the display shift on every write, right justifying the
// text from the cursor.
func (lcd *HD44780) SetAutoscroll(on bool) error {
	return lcd.setEntry(EntryShiftIncrement, on)
}

// ScrollDisplayLeft shifts the whole display one character to the left. The
// cursor address is unchanged, Home undoes the shift.
func (lcd *HD44780) ScrollDisplayLeft() error {
	return lcd.command(CursorShift | DisplayMove | MoveLeft)
}

// ScrollDisplayRight shifts the whole display one character to the right.
func (lcd *HD44780) ScrollDisplayRight() error {
	return lcd.command(CursorShift | DisplayMove | MoveRight)
}

// MoveCursorLeft moves the cursor one character to the left.
func (lcd *HD44780) MoveCursorLeft() error {
	return lcd.command(CursorShift | CursorMove | MoveLeft)
}

// MoveCursorRight moves the cursor one character to the right.
func (lcd *HD44780) MoveCursorRight() error {
	return lcd.command(CursorShift | CursorMove | MoveRight)
}

// CreateChar stores glyph as custom character location. The controller has 8
// slots, location is taken modulo 8. Each glyph byte is one row of the 5x8
// matrix, top row first, and only the first 8 bytes are used.
//
// Once created, the character is printed with WriteByte(location).
func (lcd *HD44780) CreateChar(location int, glyph []byte) error {
	location &= 0x7
	if err := lcd.command(SetCGRAMAddr | byte(location<<3)); err != nil {
		return err
	}
	lcd.sleep(CGRAMAddrTime)
	if len(glyph) > 8 {
		glyph = glyph[:8]
	}
	for _, row := range glyph {
		if err := lcd.send(row, modeData); err != nil {
			return err
		}
		lcd.sleep(CGRAMWriteTime)
	}
	return nil
}

// WriteByte writes a raw character code at the cursor. Codes 0 to 7 are the
// custom characters.
func (lcd *HD44780) WriteByte(c byte) error {
	return lcd.send(c, modeData)
}

// Write writes p as character codes. It implements io.Writer.
func (lcd *HD44780) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if err = lcd.send(c, modeData); err != nil {
			return
		}
		n++
	}
	return
}

// WriteString writes the code point of each character in text, truncated to
// a byte. There is no wrapping, characters past the end of a row land
// wherever the controller's address counter points. It returns the number of
// characters written.
func (lcd *HD44780) WriteString(text string) (n int, err error) {
	for _, r := range text {
		if err = lcd.send(byte(r), modeData); err != nil {
			return
		}
		n++
	}
	return
}

// Backlight returns the last backlight level set.
func (lcd *HD44780) Backlight() uint8 {
	return lcd.backlight
}

// SetBacklight sets the backlight intensity. Ports without PWM turn it on for
// any non-zero level. It does nothing when no backlight pin is connected.
func (lcd *HD44780) SetBacklight(level uint8) error {
	if lcd.bl == NoPin {
		return nil
	}
	if err := lcd.port.Analog(lcd.bl, level); err != nil {
		return err
	}
	lcd.backlight = level
	return nil
}

// Rows returns the number of rows of the display.
func (lcd *HD44780) Rows() int {
	return lcd.rows
}

// Cols returns the number of columns of the display.
func (lcd *HD44780) Cols() int {
	return lcd.cols
}

func (lcd *HD44780) String() string {
	if s, ok := lcd.port.(fmt.Stringer); ok {
		return fmt.Sprintf("HD44780::%s - Rows: %d, Cols: %d", s, lcd.rows, lcd.cols)
	}
	return fmt.Sprintf("HD44780 - Rows: %d, Cols: %d", lcd.rows, lcd.cols)
}

// Halt turns the display and the backlight off. DDRAM content is kept.
func (lcd *HD44780) Halt() error {
	if err := lcd.SetDisplayOn(false); err != nil {
		return err
	}
	return lcd.SetBacklight(0)
}

func (lcd *HD44780) setControl(flag byte, on bool) error {
	control := lcd.control &^ flag
	if on {
		control |= flag
	}
	if err := lcd.command(DisplayControl | control); err != nil {
		return err
	}
	lcd.control = control
	return nil
}

func (lcd *HD44780) setEntry(flag byte, on bool) error {
	entry := lcd.entry &^ flag
	if on {
		entry |= flag
	}
	if err := lcd.command(EntryModeSet | entry); err != nil {
		return err
	}
	lcd.entry = entry
	return nil
}
