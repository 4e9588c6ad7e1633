// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import "time"

// Instructions.
const (
	ClearDisplay   byte = 0x01
	ReturnHome     byte = 0x02
	EntryModeSet   byte = 0x04
	DisplayControl byte = 0x08
	CursorShift    byte = 0x10
	FunctionSet    byte = 0x20
	SetCGRAMAddr   byte = 0x40
	SetDDRAMAddr   byte = 0x80
)

// Entry mode flags.
const (
	EntryRight          byte = 0x00
	EntryLeft           byte = 0x02
	EntryShiftIncrement byte = 0x01
	EntryShiftDecrement byte = 0x00
)

// Display control flags.
const (
	DisplayOn byte = 0x04
	CursorOn  byte = 0x02
	BlinkOn   byte = 0x01
)

// Cursor and display shift flags.
const (
	DisplayMove byte = 0x08
	CursorMove  byte = 0x00
	MoveRight   byte = 0x04
	MoveLeft    byte = 0x00
)

// Function set flags.
const (
	Mode8Bit byte = 0x10
	Mode4Bit byte = 0x00
	Line2    byte = 0x08
	Line1    byte = 0x00
	Dots5x10 byte = 0x04
	Dots5x8  byte = 0x00
)

// Timing floors from the datasheet. PowerOnDelay is padded over the 40ms the
// chip needs once Vcc rises above 2.7V.
const (
	ExecTime          = 37 * time.Microsecond
	HomeClearExecTime = 2000 * time.Microsecond
	CGRAMAddrTime     = 30 * time.Microsecond
	CGRAMWriteTime    = 40 * time.Microsecond
	EnablePulse       = time.Microsecond
	PowerOnDelay      = 100 * time.Millisecond

	initFirstDelay  = 4500 * time.Microsecond
	initSecondDelay = 150 * time.Microsecond
	initThirdDelay  = time.Millisecond
)

// RowOffsets is the DDRAM address of the first column of each row.
var RowOffsets = [4]byte{0x00, 0x40, 0x14, 0x54}

// RowOffsets16x4 is used instead of RowOffsets by 16 columns x 4 rows panels.
var RowOffsets16x4 = [4]byte{0x00, 0x40, 0x10, 0x50}

// RowOffset returns the DDRAM address of the first column of row for a
// panel of the given geometry.
func RowOffset(row, rows, cols int) byte {
	if cols == 16 && rows == 4 {
		return RowOffsets16x4[row&3]
	}
	return RowOffsets[row&3]
}
