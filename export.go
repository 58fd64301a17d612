// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bufio"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"

	"golang.org/x/image/bmp"
)

var pngEncoder = png.Encoder{CompressionLevel: png.BestCompression}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if img == nil {
		return ErrArgs
	}
	return pngEncoder.Encode(w, img)
}

// EncodeBMP writes img to w as BMP.
func EncodeBMP(w io.Writer, img image.Image) error {
	if img == nil {
		return ErrArgs
	}
	return bmp.Encode(w, img)
}

// EncodePBM writes img to w as a binary Portable Bit Map, for use with
// netpbm.  Pixels darker than mid grey are black.
func EncodePBM(w io.Writer, img image.Image) error {
	if img == nil {
		return ErrArgs
	}
	r := img.Bounds()
	b := bufio.NewWriter(w)
	if _, err := b.WriteString("P4\n" + strconv.Itoa(r.Dx()) + " " +
		strconv.Itoa(r.Dy()) + "\n"); err != nil {
		return err
	}
	row := make([]byte, (r.Dx()+7)>>3)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		clear(row)
		for x := r.Min.X; x < r.Max.X; x++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y < 0x80 {
				i := x - r.Min.X
				row[i>>3] |= 0x80 >> (i & 7)
			}
		}
		if _, err := b.Write(row); err != nil {
			return err
		}
	}
	return b.Flush()
}

// EncodePBM writes the grid to w as PBM, each module Scale×Scale
// pixels with a quiet zone of Border modules.
func (g *Grid) EncodePBM(w io.Writer) error {
	if !g.isValid() {
		return ErrArgs
	}
	return EncodePBM(w, g)
}
