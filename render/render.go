// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package render draws module grids onto raster surfaces.

Surfaces are *image.RGBA with the origin at (0, 0), owned by the
caller and written in place.  Each module is one Dot×Dot pixel cell.
Dark modules are drawn as filled squares or as rounded dots inset by
the padding.  Modules inside the three locators are always drawn as
black and white squares, whatever the style.

A logo is composited either as a centred badge on a plate, after the
modules, or as a washed out backdrop with the modules multiplied on
top of it.
*/
package render // import "github.com/unixdj/qrbrand/render"

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/unixdj/qrbrand/coding"
	"github.com/unixdj/qrbrand/internal/logging"
)

var ErrLayout = errors.New("qr: invalid layout")

// Modules is a square grid of dark and light modules.
type Modules interface {
	// Size returns the number of modules on a side.
	Size() int
	// Dark reports whether the module at (row, col) is dark.
	Dark(row, col int) bool
	// Locator reports whether (row, col) lies within a locator.
	Locator(row, col int) bool
}

// Predicate adapts a module predicate, such as the one exposed by a
// standards encoder, to Modules.  Locators are found geometrically.
type Predicate struct {
	N      int
	IsDark func(row, col int) bool
}

func (p Predicate) Size() int                 { return p.N }
func (p Predicate) Dark(row, col int) bool    { return p.IsDark(row, col) }
func (p Predicate) Locator(row, col int) bool { return coding.LocatorAt(p.N, row, col) }

// A Shape is a module shape.
type Shape int

const (
	Square Shape = iota // filled square
	Round               // rounded dot
)

func (s Shape) String() string {
	switch s {
	case Square:
		return "square"
	case Round:
		return "round"
	}
	return "Shape(" + strconv.Itoa(int(s)) + ")"
}

// ParseShape returns the Shape named s.
func ParseShape(s string) (Shape, error) {
	switch s {
	case "", "square":
		return Square, nil
	case "round", "dot", "dots":
		return Round, nil
	}
	return 0, fmt.Errorf("qr: unknown module shape %q", s)
}

// Default style values.
const (
	DefaultPadding = 0.12 // round module inset, fraction of Dot
	DefaultRadius  = 0.5  // round module corner radius, fraction of side
	MaxPadding     = 0.4
)

var (
	black = color.RGBA{0x00, 0x00, 0x00, 0xff}
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Style describes how modules and logos are drawn.  Zero fields take
// default values.
type Style struct {
	Foreground color.Color // dark modules outside locators; black
	Background color.Color // surface and badge plate; white
	Shape      Shape       // module shape
	Padding    float64     // round module inset, fraction of Dot
	Radius     float64     // round module corner radius, fraction of side
	QuietZone  int         // light margin in modules
	Logo       LogoStyle   // logo placement
}

func (st Style) withDefaults() Style {
	if st.Foreground == nil {
		st.Foreground = black
	}
	if st.Background == nil {
		st.Background = white
	}
	if st.Padding == 0 {
		st.Padding = DefaultPadding
	}
	if st.Radius == 0 {
		st.Radius = DefaultRadius
	}
	st.Logo = st.Logo.withDefaults()
	return st
}

func (st Style) validate() error {
	switch {
	case st.Shape != Square && st.Shape != Round:
		return fmt.Errorf("%w: shape %v", ErrLayout, st.Shape)
	case st.Padding < 0 || st.Padding > MaxPadding:
		return fmt.Errorf("%w: padding %g", ErrLayout, st.Padding)
	case st.Radius < 0 || st.Radius > 0.5:
		return fmt.Errorf("%w: radius %g", ErrLayout, st.Radius)
	case st.QuietZone < 0:
		return fmt.Errorf("%w: quiet zone %d", ErrLayout, st.QuietZone)
	}
	if err := st.Logo.validate(); err != nil {
		return err
	}
	// A black backdrop under the most opaque logo darkens the
	// background to this; dark modules must stay darker.
	if st.Logo.Mode == Blend {
		fg, limit := brightness(st.Foreground), brightness(st.Background)*(1-st.Logo.Opacity)
		if fg >= limit {
			return fmt.Errorf("%w: foreground luma %.0f not below %.0f at %v logo opacity %g",
				ErrLayout, fg, limit, st.Logo.Mode, st.Logo.Opacity)
		}
	}
	return nil
}

// brightness returns the luma of c over white, 0 to 255.
func brightness(c color.Color) float64 {
	r, g, b, a := c.RGBA()
	w := float64(0xffff - a)
	return (0.299*(float64(r)+w) + 0.587*(float64(g)+w) +
		0.114*(float64(b)+w)) / 0x101
}

// A Layout maps modules to pixels.
type Layout struct {
	Size   int         // modules on a side
	Dot    int         // pixels per module
	Pad    int         // inset of round modules in pixels
	Origin image.Point // top left corner of module (0, 0)
}

// NewLayout fits a size×size grid plus quiet zone into r, centred.
func NewLayout(r image.Rectangle, size int, st Style) (Layout, error) {
	st = st.withDefaults()
	if err := st.validate(); err != nil {
		return Layout{}, err
	}
	w := min(r.Dx(), r.Dy())
	if size <= 0 || w <= 0 {
		return Layout{}, fmt.Errorf("%w: %d modules on %v", ErrLayout, size, r)
	}
	dot := w / (size + 2*st.QuietZone)
	if dot == 0 {
		return Layout{}, fmt.Errorf("%w: %d modules with quiet zone %d do not fit %dpx",
			ErrLayout, size, st.QuietZone, w)
	}
	l := Layout{
		Size: size,
		Dot:  dot,
		Origin: image.Pt(r.Min.X+(r.Dx()-dot*size)/2,
			r.Min.Y+(r.Dy()-dot*size)/2),
	}
	if st.Shape == Round {
		l.Pad = int(math.Ceil(float64(dot) * st.Padding))
		if 2*l.Pad >= dot {
			l.Pad = (dot - 1) / 2
		}
	}
	return l, nil
}

// Cell returns the pixel bounds of the module at (row, col).
func (l Layout) Cell(row, col int) image.Rectangle {
	x := l.Origin.X + col*l.Dot
	y := l.Origin.Y + row*l.Dot
	return image.Rect(x, y, x+l.Dot, y+l.Dot)
}

// Bounds returns the pixel bounds of the grid without quiet zone.
func (l Layout) Bounds() image.Rectangle {
	n := l.Size * l.Dot
	return image.Rectangle{l.Origin, l.Origin.Add(image.Pt(n, n))}
}

func checkSurface(dst *image.RGBA) error {
	if dst == nil {
		return fmt.Errorf("%w: no surface", ErrLayout)
	}
	if dst.Rect.Min != (image.Point{}) {
		return fmt.Errorf("%w: surface origin %v", ErrLayout, dst.Rect.Min)
	}
	return nil
}

// Draw clears dst to the background and draws the dark modules of m.
func Draw(dst *image.RGBA, m Modules, st Style) error {
	st = st.withDefaults()
	l, err := prepare(dst, m, st)
	if err != nil {
		return err
	}
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(st.Background)
	dc.Clear()
	drawModules(dc, l, m, st)
	logging.Logger().Debug("modules drawn", "modules", l.Size, "dot", l.Dot,
		"shape", st.Shape.String())
	return nil
}

func prepare(dst *image.RGBA, m Modules, st Style) (Layout, error) {
	if err := checkSurface(dst); err != nil {
		return Layout{}, err
	}
	if m == nil {
		return Layout{}, fmt.Errorf("%w: no modules", ErrLayout)
	}
	return NewLayout(dst.Rect, m.Size(), st)
}

// drawModules draws the dark modules of m.  Locator cells are filled
// first, light ones white and dark ones black, then the remaining dark
// modules in the foreground colour.
func drawModules(dc *gg.Context, l Layout, m Modules, st Style) {
	dot := float64(l.Dot)
	for _, dark := range []bool{false, true} {
		l.each(func(row, col int) {
			if m.Locator(row, col) && m.Dark(row, col) == dark {
				r := l.Cell(row, col)
				dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), dot, dot)
			}
		})
		if dark {
			dc.SetColor(black)
		} else {
			dc.SetColor(white)
		}
		dc.Fill()
	}
	l.each(func(row, col int) {
		if !m.Dark(row, col) || m.Locator(row, col) {
			return
		}
		r := l.Cell(row, col)
		x, y := float64(r.Min.X), float64(r.Min.Y)
		if st.Shape == Square {
			dc.DrawRectangle(x, y, dot, dot)
			return
		}
		pad := float64(l.Pad)
		side := dot - 2*pad
		dc.DrawRoundedRectangle(x+pad, y+pad, side, side, side*st.Radius)
	})
	dc.SetColor(st.Foreground)
	dc.Fill()
}

// each calls fn for every module in row major order.
func (l Layout) each(fn func(row, col int)) {
	for row := 0; row < l.Size; row++ {
		for col := 0; col < l.Size; col++ {
			fn(row, col)
		}
	}
}
