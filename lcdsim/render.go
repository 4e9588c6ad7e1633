// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/liquidcrystal/hd44780"
	"github.com/fogleman/gg"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"golang.org/x/image/font/basicfont"
)

// Cell geometry, in dots. Characters are 5x8 with a one dot gap.
const (
	cellW  = 6
	cellH  = 9
	border = 2
)

var (
	// DotOn is the color of a dark dot.
	DotOn = color.NRGBA{R: 0x10, G: 0x30, B: 0x10, A: 0xff}
	// Panel is the color of the panel with the backlight at full intensity.
	Panel = color.NRGBA{R: 0x80, G: 0xd0, B: 0x20, A: 0xff}
)

// panel returns the panel color dimmed by the backlight level.
func panel(level uint8) color.NRGBA {
	scale := func(c uint8) uint8 {
		// Keep a quarter of the color with the backlight off.
		return uint8((int(c) + 3*int(c)*int(level)/0xff) / 4)
	}
	return color.NRGBA{R: scale(Panel.R), G: scale(Panel.G), B: scale(Panel.B), A: 0xff}
}

// Image draws the display, each dot being scale x scale pixels. Custom
// characters are drawn dot by dot, the other codes with a fixed font.
func (d *Dev) Image(scale int) image.Image {
	if scale < 1 {
		scale = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	s := float64(scale)
	dc := gg.NewContext((d.cols*cellW+border*2)*scale, (d.rows*cellH+border*2)*scale)
	dc.SetColor(panel(d.light))
	dc.Clear()
	if d.control&hd44780.DisplayOn == 0 {
		return dc.Image()
	}
	dc.SetFontFace(basicfont.Face7x13)
	cursor := -1
	if !d.cg {
		cursor = d.ac
	}
	for row := 0; row < d.rows; row++ {
		base := int(hd44780.RowOffset(row, d.rows, d.cols))
		for col := 0; col < d.cols; col++ {
			addr := d.visible(base + col)
			x := float64(border+col*cellW) * s
			y := float64(border+row*cellH) * s
			dc.SetColor(DotOn)
			if c := d.ddram[addr]; c < 0x10 {
				glyph := d.cgram[(c&7)*8:]
				for gy := 0; gy < 8; gy++ {
					for gx := 0; gx < 5; gx++ {
						if glyph[gy]&(0x10>>gx) != 0 {
							dc.DrawRectangle(x+float64(gx)*s, y+float64(gy)*s, s, s)
						}
					}
				}
				dc.Fill()
			} else if c != ' ' {
				dc.DrawStringAnchored(string(rune(c)), x+2.5*s, y+4*s, 0.5, 0.5)
			}
			if addr != cursor {
				continue
			}
			if d.control&hd44780.BlinkOn != 0 {
				dc.DrawRectangle(x, y, 5*s, 8*s)
				dc.Fill()
			} else if d.control&hd44780.CursorOn != 0 {
				dc.DrawRectangle(x, y+7*s, 5*s, s)
				dc.Fill()
			}
		}
	}
	return dc.Image()
}

// Render prints the visible text to w, framed in the panel color.
func (d *Dev) Render(w io.Writer) error {
	p := d.Palette
	if p == nil {
		p = ansi256.Default
	}
	frame := p.Block(panel(d.Backlight()))
	var buf bytes.Buffer
	for row := 0; row < d.rows; row++ {
		_, _ = buf.WriteString("\033[0m")
		_, _ = buf.WriteString(frame)
		_, _ = buf.WriteString("\033[0m ")
		_, _ = buf.WriteString(d.Line(row))
		_, _ = buf.WriteString(" ")
		_, _ = buf.WriteString(frame)
		_, _ = buf.WriteString("\033[0m\n")
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderStdout prints the display to the console, translating the ANSI codes
// where the terminal needs it.
func (d *Dev) RenderStdout() error {
	return d.Render(colorable.NewColorableStdout())
}
