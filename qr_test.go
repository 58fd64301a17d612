// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrbrand/coding"
	"github.com/unixdj/qrbrand/render"
)

var (
	red   = color.RGBA{0xd0, 0x10, 0x10, 0xff}
	black = color.RGBA{0x00, 0x00, 0x00, 0xff}
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := c.RGBA()
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] =
			byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8)
	}
	return img
}

// locatorPattern reports whether (i, j) of a locator is dark.
func locatorPattern(i, j int) bool {
	return i == 0 || i == 6 || j == 0 || j == 6 ||
		2 <= i && i <= 4 && 2 <= j && j <= 4
}

func checkLocators(t *testing.T, m render.Modules) {
	t.Helper()
	n := m.Size()
	for _, c := range []image.Point{{0, 0}, {n - 7, 0}, {0, n - 7}} {
		for i := 0; i < 7; i++ {
			for j := 0; j < 7; j++ {
				require.Equal(t, locatorPattern(i, j), m.Dark(c.Y+i, c.X+j),
					"locator at %v, (%d,%d)", c, i, j)
				require.True(t, m.Locator(c.Y+i, c.X+j))
			}
		}
	}
}

func TestGenerateHello(t *testing.T) {
	img, res, err := Generate(context.Background(), "HELLO", Options{Version: 1})
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, DefaultSize, DefaultSize), img.Rect)
	assert.Equal(t, coding.Version(1), res.Version)
	assert.Equal(t, 21, res.Modules)
	assert.Equal(t, 40, res.Bits)
	assert.Equal(t, 40, res.Embedded)
	assert.Equal(t, 257, res.Capacity)
	assert.Empty(t, res.Warnings)
	checkLocators(t, res.Code)

	// The surface shows the locators.
	l := res.Layout
	for i := 0; i < 7; i++ {
		for j := 0; j < 7; j++ {
			want := white
			if locatorPattern(i, j) {
				want = black
			}
			r := l.Cell(i, j)
			assert.Equal(t, want, img.RGBAAt(r.Min.X+l.Dot/2, r.Min.Y+l.Dot/2))
		}
	}
}

func TestGenerateEmpty(t *testing.T) {
	_, res, err := Generate(context.Background(), "", Options{})
	require.NoError(t, err)
	m, ok := res.Code.(*coding.Matrix)
	require.True(t, ok)
	assert.Equal(t, 0, res.Bits)
	for row := 0; row < m.Size(); row++ {
		for col := 0; col < m.Size(); col++ {
			if m.Dark(row, col) {
				assert.True(t, m.Reserved(row, col), "(%d,%d)", row, col)
			}
		}
	}
}

func TestGenerateBadge(t *testing.T) {
	opt := Options{
		Style: render.Style{Logo: render.LogoStyle{Mode: render.Badge}},
		Logo:  render.Ready(solid(40, 40, red)),
	}
	img, _, err := Generate(context.Background(), "HELLO", opt)
	require.NoError(t, err)
	b := render.NewBadgeBox(img.Rect, opt.Style.Logo)
	side := b.Logo.Dx()
	assert.Equal(t, (DefaultSize-side)/2, b.Logo.Min.X)
	assert.Equal(t, (DefaultSize-side)/2, b.Logo.Min.Y)
	assert.True(t, b.Plate.Dx() > side && b.Plate.Dy() > side)
	assert.True(t, b.Logo.In(b.Plate))

	c := img.RGBAAt(b.Logo.Min.X+side/2, b.Logo.Min.Y+side/2)
	assert.InDelta(t, red.R, c.R, 2)
	assert.InDelta(t, red.G, c.G, 2)
	// Plate margin left of the logo.
	assert.Equal(t, white, img.RGBAAt(b.Logo.Min.X-2, b.Logo.Min.Y+side/2))
}

func TestGenerateBlend(t *testing.T) {
	ctx := context.Background()
	opt := Options{
		Style: render.Style{Logo: render.LogoStyle{Mode: render.Blend}},
		Logo:  render.Ready(solid(40, 40, red)),
	}
	img, res, err := Generate(ctx, "HELLO", opt)
	require.NoError(t, err)
	plain, _, err := Generate(ctx, "HELLO", Options{})
	require.NoError(t, err)
	assert.NotEqual(t, plain.Pix, img.Pix)
	// Dark modules stay black.
	l := res.Layout
	r := l.Cell(0, 0)
	assert.Equal(t, black, img.RGBAAt(r.Min.X+l.Dot/2, r.Min.Y+l.Dot/2))
}

func TestGenerateLogoFailure(t *testing.T) {
	ctx := context.Background()
	plain, _, err := Generate(ctx, "HELLO", Options{})
	require.NoError(t, err)
	for _, mode := range []render.LogoMode{render.Badge, render.Blend} {
		opt := Options{
			Style: render.Style{Logo: render.LogoStyle{Mode: mode}},
			Logo:  render.LoadBytes(ctx, []byte("GIF89a but not really")),
		}
		img, res, err := Generate(ctx, "HELLO", opt)
		require.Error(t, err, "%v", mode)
		assert.ErrorIs(t, err, ErrLogoLoad)
		var le *LogoLoadError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, mode, le.Mode)
		// The code is drawn without the logo.
		require.NotNil(t, img)
		assert.Equal(t, plain.Pix, img.Pix, "%v", mode)
		assert.Equal(t, 21, res.Modules)
	}
}

func TestGenerateLayoutError(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		size int
		opt  Options
	}{
		{20, Options{}},
		{-5, Options{}},
		{400, Options{Version: 41}},
		{400, Options{Version: -1}},
		{28, Options{Style: render.Style{QuietZone: 4}}},
		{400, Options{Style: render.Style{Padding: 0.5}}},
	} {
		tc.opt.Size = tc.size
		img, _, err := Generate(ctx, "HELLO", tc.opt)
		assert.Nil(t, img)
		assert.ErrorIs(t, err, ErrInvalidLayout, "%d %+v", tc.size, tc.opt)
		var le *LayoutError
		require.True(t, errors.As(err, &le))
		if tc.size > 0 {
			assert.Equal(t, tc.size, le.Width)
			assert.Equal(t, tc.size, le.Height)
		}
	}

	// The surface is untouched.
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	_, err := GenerateInto(ctx, dst, "HELLO", Options{})
	require.ErrorIs(t, err, ErrInvalidLayout)
	assert.Equal(t, make([]byte, len(dst.Pix)), dst.Pix)

	off := image.NewRGBA(image.Rect(5, 5, 405, 405))
	_, err = GenerateInto(ctx, off, "HELLO", Options{})
	assert.ErrorIs(t, err, ErrInvalidLayout)
	_, err = GenerateInto(ctx, nil, "HELLO", Options{})
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestGenerateTruncated(t *testing.T) {
	text := strings.Repeat("x", 40)
	_, res, err := Generate(context.Background(), text, Options{})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	var w *TruncationWarning
	require.True(t, errors.As(res.Warnings[0], &w))
	assert.Equal(t, 320, w.Bits)
	assert.Equal(t, 257, w.Capacity)
	assert.Equal(t, 257, res.Embedded)
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dst := image.NewRGBA(image.Rect(0, 0, 210, 210))
	_, err := GenerateInto(ctx, dst, "HELLO", Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, make([]byte, len(dst.Pix)), dst.Pix)
}

func TestGenerateBadgeTimeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	opt := Options{
		Style: render.Style{Logo: render.LogoStyle{Mode: render.Badge}},
		Logo:  render.Load(context.Background(), r),
	}
	dst := image.NewRGBA(image.Rect(0, 0, 210, 210))
	_, err := GenerateInto(ctx, dst, "HELLO", opt)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The code was committed before the logo was awaited.
	plain, _, err := Generate(context.Background(), "HELLO", Options{Size: 210})
	require.NoError(t, err)
	assert.Equal(t, plain.Pix, dst.Pix)
}

func TestGenerateCharset(t *testing.T) {
	ctx := context.Background()
	_, res, err := Generate(ctx, "café", Options{Charset: coding.Latin1})
	require.NoError(t, err)
	assert.Equal(t, 32, res.Bits)
	_, res, err = Generate(ctx, "café", Options{})
	require.NoError(t, err)
	assert.Equal(t, 40, res.Bits)
	_, _, err = Generate(ctx, "日本", Options{Charset: coding.Latin1})
	assert.ErrorIs(t, err, coding.ErrCharset)
}

func TestGenerateEncoders(t *testing.T) {
	ctx := context.Background()
	for _, enc := range []Encoder{Standard{}, Barcode{}} {
		img, res, err := Generate(ctx, "HELLO", Options{Encoder: enc, Level: M})
		require.NoError(t, err, "%v", enc)
		require.NotNil(t, img)
		assert.Equal(t, coding.Version(1), res.Version, "%v", enc)
		assert.Equal(t, 21, res.Modules)
		checkLocators(t, res.Code)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)
	_, _, err := Generate(context.Background(), strings.Repeat("x", 40), Options{})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "payload truncated")
	assert.Contains(t, out, "modules drawn")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}

func TestGenerateConcurrent(t *testing.T) {
	ctx := context.Background()
	logo := render.Ready(solid(40, 40, red))
	opts := []Options{
		{},
		{Version: 3, Style: render.Style{Shape: render.Round, Foreground: red}},
		{Style: render.Style{QuietZone: 2}, Logo: logo},
		{Style: render.Style{Logo: render.LogoStyle{Mode: render.Blend}}, Logo: logo},
		{Encoder: Standard{}, Version: 4, Level: Q},
		{Encoder: Barcode{}},
	}
	texts := []string{"HELLO", "https://example.com/", strings.Repeat("x", 40)}
	want := make([][]byte, len(opts)*len(texts))
	for i, opt := range opts {
		for j, s := range texts {
			img, _, err := Generate(ctx, s, opt)
			require.NoError(t, err, "%d %q", i, s)
			want[i*len(texts)+j] = img.Pix
		}
	}

	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		for i, opt := range opts {
			for j, s := range texts {
				i, opt, j, s := i, opt, j, s
				wg.Add(1)
				go func() {
					defer wg.Done()
					img, _, err := Generate(ctx, s, opt)
					if assert.NoError(t, err, "%d %q", i, s) {
						assert.Equal(t, want[i*len(texts)+j], img.Pix, "%d %q", i, s)
					}
				}()
			}
		}
	}
	wg.Wait()
}
