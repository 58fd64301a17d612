// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/unixdj/qrbrand/render"
)

// A Grid is a packed module grid for bitmap and text output.
// It implements image.Image.
type Grid struct {
	Bitmap  []byte // 1 is dark, 0 is light
	Size    int    // number of modules on a side
	Stride  int    // number of bytes per row
	Scale   int    // number of image pixels per module
	Border  int    // quiet zone in modules
	Reverse bool   // swap dark and light
}

// NewGrid packs m at scale 1 with no quiet zone.
func NewGrid(m render.Modules) *Grid {
	siz := m.Size()
	stride := (siz + 7) >> 3
	b := make([]byte, stride*siz)
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			if m.Dark(y, x) {
				b[y*stride+x>>3] |= 0x80 >> (x & 7)
			}
		}
	}
	return &Grid{Bitmap: b, Size: siz, Stride: stride, Scale: 1}
}

func (g *Grid) isValid() bool {
	return g.Size > 0 && g.Stride >= (g.Size+7)>>3 &&
		len(g.Bitmap) >= g.Stride*g.Size && g.Scale > 0 && g.Border >= 0
}

// Black reports whether the module at (x,y) is dark.  Modules outside
// the grid are light.  Reverse is disregarded.
func (g *Grid) Black(x, y int) bool {
	return 0 <= x && x < g.Size && 0 <= y && y < g.Size &&
		g.Bitmap[y*g.Stride+x/8]&(1<<uint(7-x&7)) != 0
}

func (g *Grid) shown(x, y int) bool { return g.Black(x, y) != g.Reverse }

var (
	whiteColor color.Color = color.Gray{0xFF}
	blackColor color.Color = color.Gray{0x00}
)

func (g *Grid) Bounds() image.Rectangle {
	d := (g.Size + 2*g.Border) * g.Scale
	return image.Rect(0, 0, d, d)
}

func (g *Grid) At(x, y int) color.Color {
	if g.shown(x/g.Scale-g.Border, y/g.Scale-g.Border) {
		return blackColor
	}
	return whiteColor
}

func (g *Grid) ColorModel() color.Model {
	return color.GrayModel
}

// String returns the grid as UTF-8 text, two module rows per line
// drawn with half blocks.  Dark modules are printed as ink, so on a
// dark terminal Reverse should be set.
func (g *Grid) String() string {
	var b strings.Builder
	g.writeUTF8(&b)
	return b.String()
}

var halfBlocks = [4]string{" ", "▄", "▀", "█"}

func (g *Grid) writeUTF8(b *strings.Builder) {
	bord := g.Border
	b.Grow((g.Size + 2*bord + 1) * ((g.Size + 2*bord + 1) / 2) * 3)
	for y := -bord; y < g.Size+bord; y += 2 {
		for x := -bord; x < g.Size+bord; x++ {
			var i int
			if g.shown(x, y) {
				i |= 2
			}
			if y+1 < g.Size+bord && g.shown(x, y+1) {
				i |= 1
			}
			b.WriteString(halfBlocks[i])
		}
		b.WriteByte('\n')
	}
}

// ASCII returns the grid as ASCII art, two characters per module.
func (g *Grid) ASCII() string {
	bord := g.Border
	pix := g.Size + 2*bord
	b := make([]byte, (pix*2+1)*pix)
	i := 0
	for y := -bord; y < g.Size+bord; y++ {
		for x := -bord; x < g.Size+bord; x++ {
			var p byte = ' '
			if g.shown(x, y) {
				p = '#'
			}
			_ = b[i+1]
			b[i], b[i+1] = p, p
			i += 2
		}
		b[i] = '\n'
		i++
	}
	return string(b)
}

// EncodeUTF8 writes the grid to w as UTF-8 half block text.
func (g *Grid) EncodeUTF8(w io.Writer) error {
	if !g.isValid() {
		return ErrArgs
	}
	_, err := io.WriteString(w, g.String())
	return err
}

// EncodeASCII writes the grid to w as ASCII art.
func (g *Grid) EncodeASCII(w io.Writer) error {
	if !g.isValid() {
		return ErrArgs
	}
	_, err := io.WriteString(w, g.ASCII())
	return err
}
