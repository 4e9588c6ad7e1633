// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/liquidcrystal/hd44780"
	"periph.io/x/conn/v3/gpio"
)

func getLCD(t *testing.T, rows, cols int) (*hd44780.HD44780, *Dev) {
	t.Helper()
	opts := hd44780.DefaultOpts
	opts.Rows, opts.Cols = rows, cols
	sim := New(&opts)
	lcd, err := hd44780.New(sim, &opts)
	if err != nil {
		t.Fatal(err)
	}
	sim.ResetOps()
	return lcd, sim
}

func TestInit(t *testing.T) {
	sim := New(nil)
	lcd, err := hd44780.New(sim, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := sim.Nibbles(); !reflect.DeepEqual(got, []byte{0x3, 0x3, 0x3, 0x2}) {
		t.Errorf("handshake %v", got)
	}
	if !sim.FourBit() {
		t.Fatal("not in 4-bit mode")
	}
	want := []Op{{false, 0x28}, {false, 0x0f}, {false, 0x01}, {false, 0x06}}
	if got := sim.Ops(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops %v, want %v", got, want)
	}
	if sim.Function() != 0x28 || sim.Control() != 0x07 || sim.Entry() != 0x02 {
		t.Errorf("function=%#x control=%#x entry=%#x", sim.Function(), sim.Control(), sim.Entry())
	}
	if sim.Backlight() != hd44780.BacklightOn || lcd.Backlight() != hd44780.BacklightOn {
		t.Error("backlight off")
	}
	if s := sim.String(); s != strings.Repeat(" ", 16)+"\n"+strings.Repeat(" ", 16) {
		t.Errorf("display not blank: %q", s)
	}
}

func TestInitSlowPort(t *testing.T) {
	opts := hd44780.DefaultOpts
	sim := New(&opts)
	sim.TxTime = 10 * time.Millisecond
	lcd, err := hd44780.New(sim, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lcd.WriteString("slow"); err != nil {
		t.Fatal(err)
	}
	if got := sim.Line(0); got != "slow            " {
		t.Errorf("Line(0) = %q", got)
	}
}

func TestWriteString(t *testing.T) {
	lcd, sim := getLCD(t, 4, 20)
	if _, err := lcd.WriteString("HI"); err != nil {
		t.Fatal(err)
	}
	if got := sim.Ops(); !reflect.DeepEqual(got, []Op{{true, 72}, {true, 73}}) {
		t.Errorf("ops %v", got)
	}
	if got := sim.Line(0); got != "HI"+strings.Repeat(" ", 18) {
		t.Errorf("Line(0) = %q", got)
	}
}

func TestSetCursor(t *testing.T) {
	for _, geometry := range [][2]int{{4, 20}, {4, 16}, {2, 16}} {
		rows, cols := geometry[0], geometry[1]
		lcd, sim := getLCD(t, rows, cols)
		for row := 0; row < rows; row++ {
			if err := lcd.SetCursor(row, row+1); err != nil {
				t.Fatal(err)
			}
			if err := lcd.WriteByte(byte('a' + row)); err != nil {
				t.Fatal(err)
			}
		}
		// Clamped to the last row.
		if err := lcd.SetCursor(rows+3, 0); err != nil {
			t.Fatal(err)
		}
		if err := lcd.WriteByte('z'); err != nil {
			t.Fatal(err)
		}
		for row := 0; row < rows; row++ {
			line := sim.Line(row)
			if line[row+1] != byte('a'+row) {
				t.Errorf("%dx%d row %d: %q", rows, cols, row, line)
			}
		}
		if line := sim.Line(rows - 1); line[0] != 'z' {
			t.Errorf("%dx%d clamped row: %q", rows, cols, line)
		}
	}
}

func TestLineWrap(t *testing.T) {
	lcd, sim := getLCD(t, 2, 16)
	if _, err := lcd.WriteString(strings.Repeat("x", 40)); err != nil {
		t.Fatal(err)
	}
	if ac, cg := sim.Address(); ac != 0x40 || cg {
		t.Errorf("address %#x cgram=%t, want 0x40", ac, cg)
	}
	if _, err := lcd.WriteString("next"); err != nil {
		t.Fatal(err)
	}
	if got := sim.Line(1); !strings.HasPrefix(got, "next") {
		t.Errorf("Line(1) = %q", got)
	}
}

func TestScroll(t *testing.T) {
	lcd, sim := getLCD(t, 2, 16)
	if _, err := lcd.WriteString("AB"); err != nil {
		t.Fatal(err)
	}
	if err := lcd.ScrollDisplayLeft(); err != nil {
		t.Fatal(err)
	}
	if got := sim.Line(0); got[0] != 'B' || sim.Shift() != 1 {
		t.Errorf("after scroll left %q shift=%d", got, sim.Shift())
	}
	if err := lcd.ScrollDisplayRight(); err != nil {
		t.Fatal(err)
	}
	if err := lcd.ScrollDisplayRight(); err != nil {
		t.Fatal(err)
	}
	if got := sim.Line(0); got[:3] != " AB" {
		t.Errorf("after scroll right %q", got)
	}
	if ac, _ := sim.Address(); ac != 2 {
		t.Errorf("scrolling moved the cursor to %#x", ac)
	}
	if err := lcd.Home(); err != nil {
		t.Fatal(err)
	}
	if got := sim.Line(0); got[:2] != "AB" || sim.Shift() != 0 {
		t.Errorf("after home %q", got)
	}
}

func TestMoveCursor(t *testing.T) {
	lcd, sim := getLCD(t, 2, 16)
	for _, f := range []func() error{lcd.MoveCursorRight, lcd.MoveCursorRight, lcd.MoveCursorLeft} {
		if err := f(); err != nil {
			t.Fatal(err)
		}
	}
	if err := lcd.WriteByte('m'); err != nil {
		t.Fatal(err)
	}
	if got := sim.Line(0); got[1] != 'm' {
		t.Errorf("Line(0) = %q", got)
	}
}

func TestEntryModes(t *testing.T) {
	lcd, sim := getLCD(t, 2, 16)
	if err := lcd.SetCursor(0, 5); err != nil {
		t.Fatal(err)
	}
	if err := lcd.SetRTL(true); err != nil {
		t.Fatal(err)
	}
	if _, err := lcd.WriteString("ab"); err != nil {
		t.Fatal(err)
	}
	if got := sim.Line(0); got[4:6] != "ba" {
		t.Errorf("right to left: %q", got)
	}
	if err := lcd.SetLTR(true); err != nil {
		t.Fatal(err)
	}
	if err := lcd.SetAutoscroll(true); err != nil {
		t.Fatal(err)
	}
	if _, err := lcd.WriteString("cd"); err != nil {
		t.Fatal(err)
	}
	if sim.Shift() != 2 || sim.Entry() != 0x03 {
		t.Errorf("shift=%d entry=%#x", sim.Shift(), sim.Entry())
	}
}

func TestCreateChar(t *testing.T) {
	lcd, sim := getLCD(t, 2, 16)
	heart := [8]byte{0x00, 0x0a, 0x1f, 0x1f, 0x0e, 0x04, 0x00, 0x00}
	if err := lcd.CreateChar(9, heart[:]); err != nil {
		t.Fatal(err)
	}
	if got := sim.Glyph(1); got != heart {
		t.Errorf("glyph %v, want %v", got, heart)
	}
	if err := lcd.SetCursor(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := lcd.WriteByte(1); err != nil {
		t.Fatal(err)
	}
	if got := sim.Codes(0)[0]; got != 1 {
		t.Errorf("code %d", got)
	}
	if got := sim.Line(0)[0]; got != '?' {
		t.Errorf("custom character shown as %q", got)
	}
}

func TestClear(t *testing.T) {
	lcd, sim := getLCD(t, 2, 16)
	if _, err := lcd.WriteString("gone"); err != nil {
		t.Fatal(err)
	}
	if err := lcd.Clear(); err != nil {
		t.Fatal(err)
	}
	if got := sim.Line(0); got != strings.Repeat(" ", 16) {
		t.Errorf("Line(0) = %q", got)
	}
	if got := sim.Ops(); len(got) != 5 || got[4] != (Op{false, hd44780.ClearDisplay}) {
		t.Errorf("ops %v", got)
	}
}

func TestDisplayControl(t *testing.T) {
	lcd, sim := getLCD(t, 2, 16)
	if err := lcd.SetBlinkOn(false); err != nil {
		t.Fatal(err)
	}
	if err := lcd.SetCursorOn(false); err != nil {
		t.Fatal(err)
	}
	if sim.Control() != hd44780.DisplayOn {
		t.Errorf("control %#x", sim.Control())
	}
	if err := lcd.Halt(); err != nil {
		t.Fatal(err)
	}
	if sim.Control() != 0 || sim.Backlight() != 0 {
		t.Errorf("control %#x backlight %d after Halt", sim.Control(), sim.Backlight())
	}
}

func TestNotOutput(t *testing.T) {
	sim := New(nil)
	if err := sim.Out(2, gpio.High); !errors.Is(err, ErrNotOutput) {
		t.Errorf("Out = %v", err)
	}
	if err := sim.Analog(3, 1); !errors.Is(err, ErrNotOutput) {
		t.Errorf("Analog = %v", err)
	}
	if err := sim.SetPinMode(2, true); err != nil {
		t.Fatal(err)
	}
	if err := sim.Out(2, gpio.High); !errors.Is(err, ErrNotOutput) {
		t.Errorf("Out on an input = %v", err)
	}
}

func TestLatchFallingEdge(t *testing.T) {
	sim := New(nil)
	for _, p := range []int{0, 1, 2, 4, 5, 6, 7} {
		if err := sim.SetPinMode(p, false); err != nil {
			t.Fatal(err)
		}
	}
	// D4 and D5 high, nibble 0x3.
	steps := []struct {
		levels map[int]gpio.Level
		want   int
	}{
		{map[int]gpio.Level{2: gpio.Low, 4: gpio.High, 5: gpio.High}, 0},
		{map[int]gpio.Level{2: gpio.Low}, 0},
		{map[int]gpio.Level{2: gpio.High}, 0},
		{map[int]gpio.Level{2: gpio.High}, 0},
		{map[int]gpio.Level{2: gpio.Low}, 1},
		{map[int]gpio.Level{2: gpio.Low}, 1},
		{map[int]gpio.Level{4: gpio.Low}, 1},
	}
	for i, s := range steps {
		if err := sim.OutBulk(s.levels); err != nil {
			t.Fatal(err)
		}
		if got := len(sim.Nibbles()); got != s.want {
			t.Fatalf("step %d: %d nibbles latched, want %d", i, got, s.want)
		}
	}
	if got := sim.Nibbles(); got[0] != 0x3 {
		t.Errorf("latched %#x, want 0x3", got[0])
	}
}

func TestOp(t *testing.T) {
	if s := (Op{Data: true, Value: 0x41}).String(); s != "D(0x41)" {
		t.Errorf("String() = %q", s)
	}
	if s := (Op{Value: 0x01}).String(); s != "C(0x01)" {
		t.Errorf("String() = %q", s)
	}
}

func equalColor(a, b interface{ RGBA() (r, g, b, a uint32) }) bool {
	near := func(x, y uint32) bool {
		return x-y < 0x200 || y-x < 0x200
	}
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return near(ar, br) && near(ag, bg) && near(ab, bb) && near(aa, ba)
}

func TestImage(t *testing.T) {
	lcd, sim := getLCD(t, 2, 16)
	if err := lcd.CreateChar(0, []byte{0x1f}); err != nil {
		t.Fatal(err)
	}
	if err := lcd.Home(); err != nil {
		t.Fatal(err)
	}
	if err := lcd.WriteByte(0); err != nil {
		t.Fatal(err)
	}
	const scale = 4
	img := sim.Image(scale)
	if b := img.Bounds(); b.Dx() != (16*6+4)*scale || b.Dy() != (2*9+4)*scale {
		t.Fatalf("bounds %v", b)
	}
	if c := img.At(0, 0); !equalColor(c, Panel) {
		t.Errorf("panel pixel %v", c)
	}
	dot := border*scale + scale/2
	if c := img.At(dot, dot); !equalColor(c, DotOn) {
		t.Errorf("dot pixel %v", c)
	}
	// Second row of the glyph is empty.
	if c := img.At(dot, dot+scale); !equalColor(c, Panel) {
		t.Errorf("empty dot pixel %v", c)
	}

	if err := lcd.SetDisplayOn(false); err != nil {
		t.Fatal(err)
	}
	if c := sim.Image(scale).At(dot, dot); !equalColor(c, Panel) {
		t.Errorf("display off, dot pixel %v", c)
	}
}

func TestRender(t *testing.T) {
	lcd, sim := getLCD(t, 2, 16)
	if _, err := lcd.WriteString("periph"); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := sim.Render(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "periph          ") {
		t.Errorf("rendered %q", out)
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("%d lines rendered", n)
	}
}
