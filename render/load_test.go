// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func encoded(t *testing.T, enc func(io.Writer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, solid(12, 8, red)))
	return buf.Bytes()
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		format string
		enc    func(io.Writer, image.Image) error
	}{
		{"png", png.Encode},
		{"bmp", bmp.Encode},
	} {
		p := LoadBytes(ctx, encoded(t, tc.enc))
		img, err := p.Wait(ctx)
		require.NoError(t, err, tc.format)
		assert.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
		assert.Equal(t, tc.format, p.Format())
		<-p.Done()
	}
}

func TestLoadGarbage(t *testing.T) {
	ctx := context.Background()
	p := LoadBytes(ctx, []byte("definitely not an image"))
	img, err := p.Wait(ctx)
	assert.ErrorIs(t, err, ErrLogo)
	assert.Nil(t, img)
	assert.Equal(t, "", p.Format())

	_, err = LoadBytes(ctx, nil).Wait(ctx)
	assert.ErrorIs(t, err, ErrLogo)
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadBytes(ctx, encoded(t, png.Encode)).Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitTimeout(t *testing.T) {
	r, w := io.Pipe()
	p := Load(context.Background(), r)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "", p.Format())

	// The decode finishes once the reader fails, and a later Wait
	// sees the result.
	w.CloseWithError(io.ErrUnexpectedEOF)
	_, err = p.Wait(context.Background())
	assert.ErrorIs(t, err, ErrLogo)
}

func TestReady(t *testing.T) {
	img := solid(3, 3, red)
	got, err := Ready(img).Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, img, got)

	_, err = Ready(nil).Wait(context.Background())
	assert.ErrorIs(t, err, ErrLogo)
	_, err = Ready(image.NewRGBA(image.Rectangle{})).Wait(context.Background())
	assert.ErrorIs(t, err, ErrLogo)
}
