// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// TextDisplay exposes an HD44780 as a periph display.TextDisplay. Unlike the
// HD44780 methods, rows and columns start at 1 and out of range positions
// are errors.
type TextDisplay struct {
	lcd *HD44780
}

// NewTextDisplay wraps lcd. Both may be used interchangeably.
func NewTextDisplay(lcd *HD44780) *TextDisplay {
	return &TextDisplay{lcd: lcd}
}

// AutoScroll enables or disables the display shift on writes.
func (td *TextDisplay) AutoScroll(enabled bool) error {
	return td.lcd.SetAutoscroll(enabled)
}

// Clear clears the screen and moves the cursor to the first position.
func (td *TextDisplay) Clear() error {
	return td.lcd.Clear()
}

// Cols returns the number of columns.
func (td *TextDisplay) Cols() int {
	return td.lcd.cols
}

// Cursor sets the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (td *TextDisplay) Cursor(modes ...display.CursorMode) error {
	control := td.lcd.control &^ (CursorOn | BlinkOn)
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			control &^= CursorOn | BlinkOn
		case display.CursorUnderline:
			control |= CursorOn
		case display.CursorBlink, display.CursorBlock:
			control |= BlinkOn
		default:
			return fmt.Errorf("hd44780: unexpected cursor: %d: %w", mode, display.ErrInvalidCommand)
		}
	}
	if err := td.lcd.command(DisplayControl | control); err != nil {
		return err
	}
	td.lcd.control = control
	return nil
}

// Home moves the cursor to MinRow(), MinCol().
func (td *TextDisplay) Home() error {
	return td.lcd.Home()
}

// MinCol returns 1, columns are 1-based.
func (td *TextDisplay) MinCol() int {
	return 1
}

// MinRow returns 1, rows are 1-based.
func (td *TextDisplay) MinRow() int {
	return 1
}

// Move moves the cursor forward or backward.
func (td *TextDisplay) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Backward:
		return td.lcd.MoveCursorLeft()
	case display.Forward:
		return td.lcd.MoveCursorRight()
	default:
		return fmt.Errorf("hd44780: %w", display.ErrNotImplemented)
	}
}

// MoveTo moves the cursor to an arbitrary position.
func (td *TextDisplay) MoveTo(row, col int) error {
	if row < td.MinRow() || row > td.lcd.rows || col < td.MinCol() || col > td.lcd.cols {
		return fmt.Errorf("hd44780: MoveTo(%d,%d) value out of range", row, col)
	}
	return td.lcd.SetCursor(row-1, col-1)
}

// Rows returns the number of rows.
func (td *TextDisplay) Rows() int {
	return td.lcd.rows
}

func (td *TextDisplay) String() string {
	return td.lcd.String()
}

// Display turns the display on or off.
func (td *TextDisplay) Display(on bool) error {
	return td.lcd.SetDisplayOn(on)
}

// Write writes a set of bytes to the display.
func (td *TextDisplay) Write(p []byte) (int, error) {
	return td.lcd.Write(p)
}

// WriteString writes a string output to the display.
func (td *TextDisplay) WriteString(text string) (int, error) {
	return td.lcd.WriteString(text)
}

// Halt turns the display and its backlight off.
func (td *TextDisplay) Halt() error {
	return td.lcd.Halt()
}

// Backlight sets the backlight intensity, clamped to 0-255.
func (td *TextDisplay) Backlight(intensity display.Intensity) error {
	level := BacklightOn
	if intensity <= 0 {
		level = 0
	} else if intensity < display.Intensity(BacklightOn) {
		level = uint8(intensity)
	}
	return td.lcd.SetBacklight(level)
}

var _ display.TextDisplay = &TextDisplay{}
var _ display.DisplayBacklight = &TextDisplay{}
var _ conn.Resource = &TextDisplay{}
var _ conn.Resource = &HD44780{}
