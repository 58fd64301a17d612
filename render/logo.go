// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/unixdj/qrbrand/internal/logging"
)

// A LogoMode is a logo placement.
type LogoMode int

const (
	Badge LogoMode = iota // centred over the modules on a plate
	Blend                 // full bleed backdrop under the modules
)

func (m LogoMode) String() string {
	switch m {
	case Badge:
		return "foreground"
	case Blend:
		return "background"
	}
	return "LogoMode(" + strconv.Itoa(int(m)) + ")"
}

// ParseLogoMode returns the LogoMode named s.
func ParseLogoMode(s string) (LogoMode, error) {
	switch s {
	case "", "foreground", "badge":
		return Badge, nil
	case "background", "blend":
		return Blend, nil
	}
	return 0, fmt.Errorf("qr: unknown logo mode %q", s)
}

// Default logo values.
const (
	DefaultBadgeScale   = 0.22 // badge side, fraction of surface width
	DefaultBadgeOpacity = 1.0
	DefaultPlate        = 0.08 // plate margin, fraction of badge side
	DefaultBlendScale   = 1.0  // backdrop side, fraction of surface width
	DefaultBlendOpacity = 0.35

	// MaxBlendOpacity keeps some room between the washed backdrop
	// and the foreground.  The foreground luma must also be below
	// that of the background times 1-Opacity.
	MaxBlendOpacity = 0.6
	// MaxBadgeScale leaves the locators uncovered.
	MaxBadgeScale = 0.35
)

// LogoStyle describes logo placement.  Zero fields take default values
// for the mode.
type LogoStyle struct {
	Mode       LogoMode
	Scale      float64 // logo side, fraction of surface width
	Opacity    float64 // logo opacity, 0 to 1
	Saturation float64 // backdrop saturation change in percent, -100 to 100
	Plate      float64 // badge plate margin, fraction of logo side
}

func (ls LogoStyle) withDefaults() LogoStyle {
	switch ls.Mode {
	case Badge:
		if ls.Scale == 0 {
			ls.Scale = DefaultBadgeScale
		}
		if ls.Opacity == 0 {
			ls.Opacity = DefaultBadgeOpacity
		}
		if ls.Plate == 0 {
			ls.Plate = DefaultPlate
		}
	case Blend:
		if ls.Scale == 0 {
			ls.Scale = DefaultBlendScale
		}
		if ls.Opacity == 0 {
			ls.Opacity = DefaultBlendOpacity
		}
	}
	return ls
}

func (ls LogoStyle) validate() error {
	maxScale, maxOpacity := MaxBadgeScale, 1.0
	switch ls.Mode {
	case Badge:
	case Blend:
		maxScale, maxOpacity = 1, MaxBlendOpacity
	default:
		return fmt.Errorf("%w: logo mode %v", ErrLayout, ls.Mode)
	}
	switch {
	case ls.Scale < 0 || ls.Scale > maxScale:
		return fmt.Errorf("%w: %v logo scale %g", ErrLayout, ls.Mode, ls.Scale)
	case ls.Opacity < 0 || ls.Opacity > maxOpacity:
		return fmt.Errorf("%w: %v logo opacity %g", ErrLayout, ls.Mode, ls.Opacity)
	case ls.Saturation < -100 || ls.Saturation > 100:
		return fmt.Errorf("%w: logo saturation %g", ErrLayout, ls.Saturation)
	case ls.Plate < 0 || ls.Plate > 0.5:
		return fmt.Errorf("%w: logo plate %g", ErrLayout, ls.Plate)
	}
	return nil
}

// A BadgeBox holds the pixel bounds of a badge.
type BadgeBox struct {
	Logo  image.Rectangle // logo box
	Plate image.Rectangle // backing plate, larger than Logo on every side
}

// NewBadgeBox returns the badge bounds for surface bounds r.  The logo
// box side is ls.Scale of the surface width, its corner at
// ((width-side)/2, (height-side)/2).
func NewBadgeBox(r image.Rectangle, ls LogoStyle) BadgeBox {
	ls = ls.withDefaults()
	side := int(float64(r.Dx()) * ls.Scale)
	x0 := r.Min.X + (r.Dx()-side)/2
	y0 := r.Min.Y + (r.Dy()-side)/2
	margin := max(1, int(math.Round(float64(side)*ls.Plate)))
	box := image.Rect(x0, y0, x0+side, y0+side)
	return BadgeBox{Logo: box, Plate: box.Inset(-margin)}
}

// fitRect returns the largest w×h with the aspect ratio of r that
// fits in maxW×maxH.
func fitRect(r image.Rectangle, maxW, maxH int) (int, int) {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	s := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(1, int(float64(w)*s)), max(1, int(float64(h)*s))
}

// DrawBadge draws a plate in the background colour at the centre of
// dst and the logo scaled into the box on top of it.  The modules
// must already be drawn.
func DrawBadge(dst *image.RGBA, logo image.Image, st Style) (BadgeBox, error) {
	st.Logo.Mode = Badge
	st = st.withDefaults()
	if err := checkSurface(dst); err != nil {
		return BadgeBox{}, err
	}
	if err := st.validate(); err != nil {
		return BadgeBox{}, err
	}
	if logo == nil || logo.Bounds().Empty() {
		return BadgeBox{}, fmt.Errorf("%w: empty image", ErrLogo)
	}
	b := NewBadgeBox(dst.Rect, st.Logo)
	side := b.Logo.Dx()
	if side <= 0 {
		return b, fmt.Errorf("%w: logo box %v", ErrLayout, b.Logo)
	}

	dc := gg.NewContextForRGBA(dst)
	p := b.Plate
	margin := float64(b.Logo.Min.X - p.Min.X)
	dc.DrawRoundedRectangle(float64(p.Min.X), float64(p.Min.Y),
		float64(p.Dx()), float64(p.Dy()), margin)
	dc.SetColor(st.Background)
	dc.Fill()

	w, h := fitRect(logo.Bounds(), side, side)
	scaled := imaging.Resize(logo, w, h, imaging.Lanczos)
	pos := b.Logo.Min.Add(image.Pt((side-w)/2, (side-h)/2))
	out := imaging.Overlay(dst, scaled, pos, st.Logo.Opacity)
	draw.Draw(dst, dst.Rect, out, image.Point{}, draw.Src)
	logging.Logger().Debug("badge drawn", "box", b.Logo.String(),
		"plate", b.Plate.String(), "opacity", st.Logo.Opacity)
	return b, nil
}

// DrawBlend clears dst, draws the logo as a washed out backdrop and
// multiplies the modules of m on top of it.
func DrawBlend(dst *image.RGBA, m Modules, logo image.Image, st Style) error {
	st.Logo.Mode = Blend
	st = st.withDefaults()
	l, err := prepare(dst, m, st)
	if err != nil {
		return err
	}
	if logo == nil || logo.Bounds().Empty() {
		return fmt.Errorf("%w: empty image", ErrLogo)
	}

	// Backdrop.
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	side := max(1, int(float64(min(w, h))*st.Logo.Scale))
	back := imaging.Fill(logo, side, side, imaging.Center, imaging.Lanczos)
	if st.Logo.Saturation != 0 {
		back = imaging.AdjustSaturation(back, st.Logo.Saturation)
	}
	base := imaging.New(w, h, st.Background)
	pos := image.Pt((w-side)/2, (h-side)/2)
	washed := imaging.Overlay(base, back, pos, st.Logo.Opacity)
	draw.Draw(dst, dst.Rect, washed, image.Point{}, draw.Src)

	// Module layer.
	layer := image.NewRGBA(dst.Rect)
	drawModules(gg.NewContextForRGBA(layer), l, m, st)
	multiply(dst, layer)
	logging.Logger().Debug("backdrop blended", "side", side,
		"opacity", st.Logo.Opacity, "saturation", st.Logo.Saturation)
	return nil
}

// multiply composites the premultiplied src onto the opaque dst with
// the multiply blend mode: D' = S·D + D·(1-Sa).
func multiply(dst, src *image.RGBA) {
	for y := 0; y < dst.Rect.Dy(); y++ {
		d := dst.Pix[y*dst.Stride : y*dst.Stride+4*dst.Rect.Dx()]
		s := src.Pix[y*src.Stride : y*src.Stride+4*src.Rect.Dx()]
		for i := 0; i < len(d); i += 4 {
			sa := uint32(s[i+3])
			if sa == 0 {
				continue
			}
			for c := 0; c < 3; c++ {
				dc := uint32(d[i+c])
				d[i+c] = byte((uint32(s[i+c])*dc + dc*(255-sa) + 127) / 255)
			}
		}
	}
}
