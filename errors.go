// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"errors"
	"fmt"

	"github.com/unixdj/qrbrand/coding"
	"github.com/unixdj/qrbrand/render"
)

var (
	// ErrInvalidLayout reports that the matrix cannot be laid out on
	// the surface.  Nothing is drawn.
	ErrInvalidLayout = render.ErrLayout
	// ErrLogoLoad reports that the logo could not be loaded.  The
	// code without the logo is drawn.
	ErrLogoLoad = render.ErrLogo
	// ErrEncode reports that an encoder could not encode the text.
	ErrEncode = errors.New("qr: cannot encode text")
	ErrArgs   = errors.New("qr: invalid arguments")
)

// A LayoutError records the parameters of a failed layout.
type LayoutError struct {
	Version coding.Version // requested version
	Modules int            // modules on a side, 0 if unknown
	Width   int            // surface width in pixels
	Height  int            // surface height in pixels
	Err     error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("qr: invalid layout: version %v, %d modules on %dx%d: %v",
		e.Version, e.Modules, e.Width, e.Height, e.Err)
}

func (e *LayoutError) Unwrap() error        { return e.Err }
func (e *LayoutError) Is(target error) bool { return target == ErrInvalidLayout }

// A LogoLoadError records a logo that could not be loaded.
type LogoLoadError struct {
	Mode render.LogoMode
	Err  error
}

func (e *LogoLoadError) Error() string {
	return fmt.Sprintf("qr: %v logo not drawn: %v", e.Mode, e.Err)
}

func (e *LogoLoadError) Unwrap() error        { return e.Err }
func (e *LogoLoadError) Is(target error) bool { return target == ErrLogoLoad }

// A TruncationWarning reports a payload longer than the matrix
// capacity.  The code is drawn with the bits that fit.
type TruncationWarning struct {
	Bits     int // payload length in bits
	Capacity int // bits written
}

func (w *TruncationWarning) Error() string {
	return fmt.Sprintf("qr: payload truncated: %d of %d bits fit", w.Capacity, w.Bits)
}
