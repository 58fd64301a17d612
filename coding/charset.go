// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

var ErrCharset = errors.New("qr: text not representable in charset")

// A Charset selects the byte representation of payload text.
type Charset int

const (
	UTF8     Charset = iota // bytes as given
	Latin1                  // UTF-8 text encoded as ISO 8859-1
	ShiftJIS                // UTF-8 text encoded as Shift JIS
)

var charsetNames = [...]string{"utf-8", "latin-1", "shift-jis"}

func (cs Charset) String() string {
	if UTF8 <= cs && cs <= ShiftJIS {
		return charsetNames[cs]
	}
	return "Charset(" + strconv.Itoa(int(cs)) + ")"
}

// ParseCharset returns the Charset named s.
func ParseCharset(s string) (Charset, error) {
	switch s {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "latin-1", "latin1", "iso-8859-1":
		return Latin1, nil
	case "shift-jis", "sjis":
		return ShiftJIS, nil
	}
	return 0, fmt.Errorf("qr: unknown charset %q", s)
}

func (cs Charset) encoding() encoding.Encoding {
	switch cs {
	case Latin1:
		return charmap.ISO8859_1
	case ShiftJIS:
		return japanese.ShiftJIS
	}
	return nil
}

// Encode returns text in the byte representation of cs.
func (cs Charset) Encode(text string) ([]byte, error) {
	if cs == UTF8 {
		return []byte(text), nil
	}
	enc := cs.encoding()
	if enc == nil {
		return nil, fmt.Errorf("%w: %v", ErrCharset, cs)
	}
	b, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w %v: %v", ErrCharset, cs, err)
	}
	return b, nil
}
