// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/unixdj/qrbrand/internal/logging"
)

var ErrLogo = errors.New("qr: cannot load logo")

// A Pending is a logo being decoded.
type Pending struct {
	done   chan struct{}
	img    image.Image
	format string
	err    error
}

// Load starts decoding an image from r and returns at once.  r must
// not be used until Wait returns a result.  Decoding does not start if
// ctx is already done.
func Load(ctx context.Context, r io.Reader) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		if err := ctx.Err(); err != nil {
			p.err = err
			return
		}
		img, format, err := image.Decode(r)
		switch {
		case err != nil:
			p.err = fmt.Errorf("%w: %v", ErrLogo, err)
		case img.Bounds().Empty():
			p.err = fmt.Errorf("%w: empty %s image", ErrLogo, format)
		default:
			p.img, p.format = img, format
			logging.Logger().Debug("logo decoded", "format", format,
				"size", img.Bounds().Size().String())
		}
	}()
	return p
}

// LoadBytes is Load reading from b.
func LoadBytes(ctx context.Context, b []byte) *Pending {
	return Load(ctx, bytes.NewReader(b))
}

// Ready returns a Pending holding an already decoded image.
func Ready(img image.Image) *Pending {
	p := &Pending{done: make(chan struct{}), img: img}
	if img == nil || img.Bounds().Empty() {
		p.img = nil
		p.err = fmt.Errorf("%w: empty image", ErrLogo)
	}
	close(p.done)
	return p
}

// Wait blocks until decoding finishes or ctx is done.  Decoding
// errors wrap ErrLogo; if ctx is done first, Wait returns ctx.Err()
// and the decode result may be collected by a later call.
func (p *Pending) Wait(ctx context.Context) (image.Image, error) {
	select {
	case <-p.done:
		return p.img, p.err
	default:
	}
	select {
	case <-p.done:
		return p.img, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when decoding finishes.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Format returns the name of the decoded format, or "" before
// decoding finishes successfully.
func (p *Pending) Format() string {
	select {
	case <-p.done:
		return p.format
	default:
		return ""
	}
}
