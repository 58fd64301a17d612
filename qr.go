// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr draws branded matrix codes.

Generate encodes text into a module grid, lays the grid out on a
square raster surface and draws it, optionally with a logo: either a
centred badge on a plate, or a washed out backdrop with the modules
multiplied over it.  GenerateInto draws onto a surface owned by the
caller.

A surface is only written once the code is complete.  A layout error
leaves it untouched.  A logo that fails to load leaves the code
without the logo, and the error is returned alongside the Result.

The Builtin encoder stamps the structural patterns and streams the raw
payload bits in zigzag order.  The result has no error correction and
is not meant to be read by standard scanners; the Standard and Barcode
encoders produce conforming codes.
*/
package qr // import "github.com/unixdj/qrbrand"

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	"github.com/unixdj/qrbrand/coding"
	"github.com/unixdj/qrbrand/internal/logging"
	"github.com/unixdj/qrbrand/render"
)

// DefaultSize is the side in pixels of surfaces allocated by Generate.
const DefaultSize = 400

// Options control encoding and drawing.  The zero value draws a
// version 1 Builtin code with square black modules on 400×400 pixels.
type Options struct {
	Version coding.Version // 0 means MinVersion
	Level   Level          // error correction of standard encoders; 0 means M
	Encoder Encoder        // nil means Builtin
	Charset coding.Charset // payload representation of text
	Size    int            // surface side for Generate; 0 means DefaultSize
	Style   render.Style   // appearance
	Logo    *render.Pending
}

// A Result describes a generated code.
type Result struct {
	Version  coding.Version
	Modules  int            // modules on a side
	Bits     int            // payload length in bits
	Embedded int            // payload bits carried by the code
	Capacity int            // bits the code can carry
	Layout   render.Layout  // module geometry on the surface
	Code     render.Modules // the module grid
	Warnings []error        // non-fatal conditions such as truncation
}

// SetLogger sets the logger for the package and its subpackages.
// The default logger discards everything.  nil restores the default.
func SetLogger(l *slog.Logger) { logging.Set(l) }

// Logger returns the current logger.
func Logger() *slog.Logger { return logging.Logger() }

func (o Options) version() coding.Version {
	if o.Version == 0 {
		return coding.MinVersion
	}
	return o.Version
}

func (o Options) encoder() Encoder {
	if o.Encoder == nil {
		return Builtin{}
	}
	return o.Encoder
}

// Encode encodes text into a module grid without drawing it.  Errors
// caused by the version or size are *LayoutError.
func Encode(text string, opt Options) (render.Modules, Result, error) {
	v := opt.version()
	res := Result{Version: v}
	payload, err := opt.Charset.Encode(text)
	if err != nil {
		return nil, res, err
	}
	enc := opt.encoder()
	m, st, err := enc.Encode(payload, v, opt.Level)
	switch {
	case errors.Is(err, coding.ErrVersion), errors.Is(err, coding.ErrSize):
		return nil, res, &LayoutError{Version: v, Err: err}
	case err != nil:
		return nil, res, err
	}
	res = Result{
		Version:  st.Version,
		Modules:  m.Size(),
		Bits:     st.Bits,
		Embedded: st.Embedded,
		Capacity: st.Capacity,
		Code:     m,
	}
	if st.Embedded < st.Bits {
		w := &TruncationWarning{Bits: st.Bits, Capacity: st.Embedded}
		res.Warnings = append(res.Warnings, w)
		Logger().Warn("payload truncated", "bits", st.Bits,
			"embedded", st.Embedded, "version", st.Version)
	}
	Logger().Debug("text encoded", "encoder", fmt.Sprint(enc),
		"version", st.Version, "modules", m.Size(), "bits", st.Bits)
	return m, res, nil
}

// Generate allocates an opt.Size square surface and draws the code on
// it.  The surface is returned unless err is a layout or encoding
// error; on a logo error it holds the code without the logo.
func Generate(ctx context.Context, text string, opt Options) (*image.RGBA, Result, error) {
	size := opt.Size
	if size == 0 {
		size = DefaultSize
	}
	if size < 0 {
		return nil, Result{Version: opt.version()}, &LayoutError{
			Version: opt.version(), Width: size, Height: size,
			Err: fmt.Errorf("%w: surface size %d", render.ErrLayout, size),
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	res, err := GenerateInto(ctx, dst, text, opt)
	if err != nil && !errors.Is(err, ErrLogoLoad) {
		return nil, res, err
	}
	return dst, res, err
}

// GenerateInto draws the code for text onto dst, a surface with the
// origin at (0, 0).  opt.Size is ignored.
//
// The code is drawn into a scratch buffer and copied to dst once
// complete.  In blend mode the logo is awaited before drawing; in badge
// mode after the code is committed.  If ctx is done before the commit,
// dst is untouched.
func GenerateInto(ctx context.Context, dst *image.RGBA, text string, opt Options) (Result, error) {
	v := opt.version()
	if dst == nil {
		return Result{Version: v}, &LayoutError{Version: v,
			Err: fmt.Errorf("%w: no surface", render.ErrLayout)}
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	m, res, err := Encode(text, opt)
	if err != nil {
		var le *LayoutError
		if errors.As(err, &le) {
			le.Width, le.Height = w, h
		}
		return res, err
	}
	st := opt.Style
	layoutErr := func(err error) error {
		return &LayoutError{Version: res.Version, Modules: res.Modules,
			Width: w, Height: h, Err: err}
	}
	if dst.Rect.Min != (image.Point{}) {
		return res, layoutErr(fmt.Errorf("%w: surface origin %v",
			render.ErrLayout, dst.Rect.Min))
	}
	if res.Layout, err = render.NewLayout(dst.Rect, m.Size(), st); err != nil {
		return res, layoutErr(err)
	}
	Logger().Debug("layout", "modules", res.Layout.Size, "dot", res.Layout.Dot,
		"origin", res.Layout.Origin.String(), "surface", dst.Rect.String())

	var logoErr error
	mode := st.Logo.Mode
	var backdrop image.Image
	if opt.Logo != nil && mode == render.Blend {
		img, err := opt.Logo.Wait(ctx)
		switch {
		case ctx.Err() != nil && err == ctx.Err():
			return res, err
		case err != nil:
			logoErr = logoFailed(mode, err)
		default:
			backdrop = img
		}
	}

	scratch := image.NewRGBA(dst.Rect)
	if backdrop != nil {
		err = render.DrawBlend(scratch, m, backdrop, st)
	} else {
		err = render.Draw(scratch, m, st)
	}
	if err != nil {
		return res, layoutErr(err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	draw.Draw(dst, dst.Rect, scratch, image.Point{}, draw.Src)

	if opt.Logo != nil && mode == render.Badge {
		img, err := opt.Logo.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil && err == ctx.Err() {
				return res, err
			}
			return res, logoFailed(mode, err)
		}
		if _, err := render.DrawBadge(scratch, img, st); err != nil {
			return res, logoFailed(mode, err)
		}
		draw.Draw(dst, dst.Rect, scratch, image.Point{}, draw.Src)
	}
	return res, logoErr
}

func logoFailed(mode render.LogoMode, err error) error {
	Logger().Warn("logo not drawn", "mode", mode.String(), "err", err)
	return &LogoLoadError{Mode: mode, Err: err}
}
