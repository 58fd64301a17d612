// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package coding lays out matrix codes.

A Matrix is built in two passes.  First the structural patterns are
stamped: three 7x7 locators in the top left, top right and bottom left
corners, one 5x5 alignment box near the bottom right corner and two
timing strips along row and column 6.  Every cell a pattern covers,
dark or light, is reserved.  Then the payload is streamed, most
significant bit first, into the free cells in zigzag order: column
pairs from right to left, alternating upwards and downwards, the right
column of a pair before the left one.  Column 6 never carries data.

There is no error correction, no mode indicator and no length field.
A payload longer than the free cells is truncated.
*/
package coding // import "github.com/unixdj/qrbrand/coding"

import (
	"errors"
	"strconv"
)

var (
	ErrSize    = errors.New("qr: invalid matrix size")
	ErrVersion = errors.New("qr: invalid version")
)

// A Version represents a nominal code version.
// A code with version v has 4v+17 modules on a side.
type Version int

const (
	MinVersion Version = 1  // Minimum version
	MaxVersion Version = 40 // Maximum version
)

// Matrix size limits.
const (
	MinSize = 21  // version 1
	MaxSize = 177 // version 40
)

func (v Version) String() string {
	return strconv.Itoa(int(v))
}

// IsValid reports whether v is within [MinVersion, MaxVersion].
func (v Version) IsValid() bool {
	return MinVersion <= v && v <= MaxVersion
}

// Size returns the number of modules on a side.
func (v Version) Size() int {
	return int(v)*4 + 17
}

// SizeVersion returns the version with the given side length and
// whether such a version exists.
func SizeVersion(size int) (Version, bool) {
	v := Version((size - 17) / 4)
	return v, v.IsValid() && v.Size() == size
}

// A Cell is the state of a matrix cell.
type Cell byte

const (
	Empty      Cell = iota // light cell
	Dark                   // dark payload cell
	Structural             // dark cell of a structural pattern
)

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Dark:
		return "dark"
	case Structural:
		return "structural"
	}
	return "Cell(" + strconv.Itoa(int(c)) + ")"
}

const (
	locatorSize = 7 // locator side
	timingLine  = 6 // row and column of timing strips
)

// A Matrix is a square grid of cells.
type Matrix struct {
	bitmap []byte // 1 is dark, 0 is empty
	pmap   []byte // 1 is reserved by a structural pattern
	size   int    // number of modules on a side
	stride int    // number of bytes per row

	bits     int // payload length in bits
	embedded int // payload bits written to the matrix
	free     int // cells available for payload
}

func newMatrix(size int) *Matrix {
	stride := (size + 7) >> 3
	b := make([]byte, 2*stride*size)
	return &Matrix{
		bitmap: b[:stride*size],
		pmap:   b[stride*size:],
		size:   size,
		stride: stride,
	}
}

// Build returns a size×size matrix carrying payload.
// Build fails only if size is out of [MinSize, MaxSize].
func Build(payload []byte, size int) (*Matrix, error) {
	if size < MinSize || size > MaxSize {
		return nil, ErrSize
	}
	m := newMatrix(size)
	m.locator(0, 0)
	m.locator(size-locatorSize, 0)
	m.locator(0, size-locatorSize)
	m.alignment(size-9, size-9)
	m.timing()
	s := NewBitStream(payload)
	m.embed(&s)
	return m, nil
}

// BuildText converts text with cs and builds a matrix for version v.
func BuildText(text string, v Version, cs Charset) (*Matrix, error) {
	if !v.IsValid() {
		return nil, ErrVersion
	}
	b, err := cs.Encode(text)
	if err != nil {
		return nil, err
	}
	return Build(b, v.Size())
}

func (m *Matrix) off(row, col int) (int, byte) {
	return row*m.stride + col>>3, byte(0x80) >> (col & 7)
}

// set reserves the cell at (row, col) and sets its colour.
func (m *Matrix) set(row, col int, dark bool) {
	off, b := m.off(row, col)
	m.pmap[off] |= b
	if dark {
		m.bitmap[off] |= b
	} else {
		m.bitmap[off] &^= b
	}
}

// locator stamps a locator with its top left corner at column x, row y.
func (m *Matrix) locator(x, y int) {
	for i := 0; i < locatorSize; i++ {
		for j := 0; j < locatorSize; j++ {
			ring := i == 0 || i == 6 || j == 0 || j == 6
			core := 2 <= i && i <= 4 && 2 <= j && j <= 4
			m.set(y+i, x+j, ring || core)
		}
	}
}

// alignment stamps an alignment box centred at column x, row y.
func (m *Matrix) alignment(x, y int) {
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			ring := i == -2 || i == 2 || j == -2 || j == 2
			m.set(y+i, x+j, ring || i == 0 && j == 0)
		}
	}
}

// timing stamps the horizontal and vertical timing strips.
func (m *Matrix) timing() {
	for i := locatorSize + 1; i < m.size-locatorSize-1; i++ {
		m.set(timingLine, i, i&1 == 0)
		m.set(i, timingLine, i&1 == 0)
	}
}

// walk calls fn for each free cell in zigzag order until fn returns
// false.
func (m *Matrix) walk(fn func(row, col int) bool) {
	siz := m.size
	up := true
	for x := siz - 1; x > 0; x -= 2 {
		if x == timingLine {
			x--
		}
		for i := 0; i < siz; i++ {
			row := i
			if up {
				row = siz - 1 - i
			}
			for col := x; col >= x-1; col-- {
				if col == timingLine || m.Reserved(row, col) {
					continue
				}
				if !fn(row, col) {
					return
				}
			}
		}
		up = !up
	}
}

// embed writes bits from s to the free cells.
func (m *Matrix) embed(s *BitStream) {
	m.bits = s.Len()
	m.walk(func(row, col int) bool {
		m.free++
		if m.embedded < m.bits {
			if s.Next() != 0 {
				off, b := m.off(row, col)
				m.bitmap[off] |= b
			}
			m.embedded++
		}
		return true
	})
}

// Size returns the number of modules on a side.
func (m *Matrix) Size() int { return m.size }

// Version returns the version matching the matrix size, if any.
func (m *Matrix) Version() (Version, bool) { return SizeVersion(m.size) }

// Dark reports whether the cell at (row, col) is dark.
// Cells outside the matrix are light.
func (m *Matrix) Dark(row, col int) bool {
	if row < 0 || row >= m.size || col < 0 || col >= m.size {
		return false
	}
	off, b := m.off(row, col)
	return m.bitmap[off]&b != 0
}

// Reserved reports whether the cell at (row, col) belongs to a
// structural pattern.
func (m *Matrix) Reserved(row, col int) bool {
	if row < 0 || row >= m.size || col < 0 || col >= m.size {
		return false
	}
	off, b := m.off(row, col)
	return m.pmap[off]&b != 0
}

// Locator reports whether (row, col) lies within a locator.
func (m *Matrix) Locator(row, col int) bool {
	return LocatorAt(m.size, row, col)
}

// Cell returns the state of the cell at (row, col).
func (m *Matrix) Cell(row, col int) Cell {
	switch {
	case !m.Dark(row, col):
		return Empty
	case m.Reserved(row, col):
		return Structural
	}
	return Dark
}

// Capacity returns the number of cells available for payload.
func (m *Matrix) Capacity() int { return m.free }

// Bits returns the payload length in bits.
func (m *Matrix) Bits() int { return m.bits }

// Embedded returns the number of payload bits written to the matrix.
func (m *Matrix) Embedded() int { return m.embedded }

// Truncated reports whether part of the payload did not fit.
func (m *Matrix) Truncated() bool { return m.embedded < m.bits }

// Payload reads the embedded bits back in zigzag order.  A trailing
// fractional byte is padded with zero bits.
func (m *Matrix) Payload() []byte {
	b := NewBits(m.embedded)
	m.walk(func(row, col int) bool {
		if b.Bits() == m.embedded {
			return false
		}
		var v uint32
		if m.Dark(row, col) {
			v = 1
		}
		b.Write(v, 1)
		return true
	})
	return b.Bytes()
}

// LocatorAt reports whether (row, col) lies within one of the three
// locators of a size×size code.
func LocatorAt(size, row, col int) bool {
	if row < 0 || col < 0 || row >= size || col >= size {
		return false
	}
	far := size - locatorSize
	return col < locatorSize && row < locatorSize ||
		col >= far && row < locatorSize ||
		col < locatorSize && row >= far
}
