// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"fmt"
	"image/color"
	"strconv"

	bcqr "github.com/boombuler/barcode/qr"
	"github.com/skip2/go-qrcode"

	"github.com/unixdj/qrbrand/coding"
	"github.com/unixdj/qrbrand/render"
)

// A Level denotes a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
// The zero Level means M.
// The Builtin encoder has no error correction and ignores it.
type Level int

const (
	L Level = iota + 1 // 20% redundant
	M                  // 38% redundant
	Q                  // 55% redundant
	H                  // 65% redundant
)

func (l Level) String() string {
	if l = l.orDefault(); L <= l && l <= H {
		return "LMQH"[l-L : l-L+1]
	}
	return "Level(" + strconv.Itoa(int(l)) + ")"
}

func (l Level) orDefault() Level {
	if l == 0 {
		return M
	}
	return l
}

// ParseLevel returns the Level named s, in either case.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "l", "L":
		return L, nil
	case "", "m", "M":
		return M, nil
	case "q", "Q":
		return Q, nil
	case "h", "H":
		return H, nil
	}
	return 0, fmt.Errorf("qr: unknown error correction level %q", s)
}

// Stats describes an encoded payload.
type Stats struct {
	Version  coding.Version // version of the grid
	Bits     int            // payload length in bits
	Embedded int            // payload bits carried by the grid
	Capacity int            // bits the grid can carry
}

// An Encoder turns a payload into a module grid.
type Encoder interface {
	Encode(payload []byte, v coding.Version, l Level) (render.Modules, Stats, error)
}

// Builtin lays out the payload with coding.Build.  The grid has no
// error correction, format or length information, and a payload
// longer than the capacity is truncated.
type Builtin struct{}

func (Builtin) String() string { return "builtin" }

func (Builtin) Encode(payload []byte, v coding.Version, _ Level) (render.Modules, Stats, error) {
	if !v.IsValid() {
		return nil, Stats{}, coding.ErrVersion
	}
	m, err := coding.Build(payload, v.Size())
	if err != nil {
		return nil, Stats{}, err
	}
	return m, Stats{
		Version:  v,
		Bits:     m.Bits(),
		Embedded: m.Embedded(),
		Capacity: m.Capacity(),
	}, nil
}

// Standard encodes a standard QR code of the given version with
// github.com/skip2/go-qrcode.  Encoding fails if the payload does not
// fit the version.
type Standard struct{}

func (Standard) String() string { return "standard" }

var skipLevels = [...]qrcode.RecoveryLevel{
	L: qrcode.Low,
	M: qrcode.Medium,
	Q: qrcode.High,
	H: qrcode.Highest,
}

func (Standard) Encode(payload []byte, v coding.Version, l Level) (render.Modules, Stats, error) {
	if !v.IsValid() {
		return nil, Stats{}, coding.ErrVersion
	}
	if l = l.orDefault(); l < L || l > H {
		return nil, Stats{}, fmt.Errorf("%w: level %v", ErrArgs, l)
	}
	q, err := qrcode.NewWithForcedVersion(string(payload), int(v), skipLevels[l])
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	bm := q.Bitmap()
	size := v.Size()
	// The bitmap carries a quiet zone of its own.
	border := (len(bm) - size) / 2
	if border < 0 {
		return nil, Stats{}, fmt.Errorf("%w: %d modules for version %v",
			ErrEncode, len(bm), v)
	}
	bits := 8 * len(payload)
	return render.Predicate{
		N: size,
		IsDark: func(row, col int) bool {
			return bm[row+border][col+border]
		},
	}, Stats{Version: v, Bits: bits, Embedded: bits, Capacity: bits}, nil
}

// Barcode encodes a standard QR code with github.com/boombuler/barcode,
// choosing the smallest version the payload fits and ignoring the
// requested one.
type Barcode struct{}

func (Barcode) String() string { return "barcode" }

var barcodeLevels = [...]bcqr.ErrorCorrectionLevel{
	L: bcqr.L,
	M: bcqr.M,
	Q: bcqr.Q,
	H: bcqr.H,
}

func (Barcode) Encode(payload []byte, _ coding.Version, l Level) (render.Modules, Stats, error) {
	if l = l.orDefault(); l < L || l > H {
		return nil, Stats{}, fmt.Errorf("%w: level %v", ErrArgs, l)
	}
	code, err := bcqr.Encode(string(payload), barcodeLevels[l], bcqr.Auto)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	r := code.Bounds()
	size := r.Dx()
	v, ok := coding.SizeVersion(size)
	if !ok {
		return nil, Stats{}, fmt.Errorf("%w: %d modules", ErrEncode, size)
	}
	bits := 8 * len(payload)
	return render.Predicate{
		N: size,
		IsDark: func(row, col int) bool {
			g := color.GrayModel.Convert(code.At(r.Min.X+col, r.Min.Y+row)).(color.Gray)
			return g.Y < 0x80
		},
	}, Stats{Version: v, Bits: bits, Embedded: bits, Capacity: bits}, nil
}

// ParseEncoder returns the Encoder named s.
func ParseEncoder(s string) (Encoder, error) {
	switch s {
	case "", "builtin":
		return Builtin{}, nil
	case "standard", "skip2":
		return Standard{}, nil
	case "barcode", "auto":
		return Barcode{}, nil
	}
	return nil, fmt.Errorf("qr: unknown encoder %q", s)
}
