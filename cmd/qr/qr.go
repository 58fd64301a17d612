// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command qr draws branded matrix codes.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"

	"github.com/unixdj/qrbrand"
	"github.com/unixdj/qrbrand/coding"
	"github.com/unixdj/qrbrand/render"
)

var g = struct {
	opt     qr.Options // pipeline options
	scale   int        // PBM pixels per module
	border  int        // quiet zone in modules
	fn      string     // output filename
	logo    string     // logo filename
	format  int        // output file format
	rev     bool       // reverse colours
	round   bool       // round modules
	latin1  bool       // Latin-1 payload
	sjis    bool       // Shift JIS payload
	debug   bool       // debug logging
	bg, fg  rgba       // colours
	padding float64    // round module padding
	lscale  float64    // logo scale
	opacity float64    // logo opacity
	sat     float64    // backdrop saturation
}{
	bg: rgba{0xff, 0xff, 0xff, 0xff},
	fg: rgba{0x00, 0x00, 0x00, 0xff},
}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	prog := cl.Program()
	ul := make([]string, 1, 4)
	ul[0] = cl.UsageLine() + " [string ...]"
	ml := max(70-len("Usage: ")-1-len(prog), 0)
	for i := 0; len(ul[i]) > ml; i++ {
		s := ul[i]
		n := ml - 1
		for n > 0 && (s[n] != ' ' || s[n+1] != '[') {
			n--
		}
		ul = append(ul, s[n+1:])
		ul[i] = s[:max(n, 0)]
		ml = 60
	}
	fmt.Fprint(w, "Branded matrix code generator\nUsage: ", prog, " ",
		strings.Join(ul, "\n          "), `
If no string is given, data is read from standard input and the final
newline is stripped.  Defaults are taken from QR_* environment
variables and from a .env file in the current directory.

`)
	var b bytes.Buffer
	cl.PrintOptions(&b)
	w.Write(b.Bytes())
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qr version 0.9.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2025 Vadim Vygonets`)
	os.Exit(0)
}

const (
	fmtPNG = iota
	fmtBMP
	fmtPBM
	fmtUTF8
	fmtASCII
)

var formats = []string{
	"png", "pngi", "bmp", "bmpi", "pbm", "pbmi",
	"utf8", "utf8i", "ascii", "asciii",
}

func parseFlags(cfg config) {
	g.scale, g.border = cfg.Scale, cfg.QuietZone
	g.logo, g.debug = cfg.Logo, cfg.Debug
	shape, err := render.ParseShape(cfg.Shape)
	if err != nil {
		log.Fatalln("QR_SHAPE:", err)
	}
	g.round = shape == render.Round
	cs, err := coding.ParseCharset(cfg.Charset)
	if err != nil {
		log.Fatalln("QR_CHARSET:", err)
	}
	g.latin1, g.sjis = cs == coding.Latin1, cs == coding.ShiftJIS
	g.padding, g.lscale = cfg.Padding, cfg.LogoScale
	g.opacity, g.sat = cfg.LogoOpacity, cfg.Saturation
	if err := g.fg.parse(cfg.Foreground); err != nil {
		log.Fatalln("QR_FOREGROUND:", err)
	}
	if err := g.bg.parse(cfg.Background); err != nil {
		log.Fatalln("QR_BACKGROUND:", err)
	}

	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.FlagLong(&g.bg, "background", 'B', `background colour; see -F`,
		"RGB[A]|name")
	getopt.FlagLong(&g.fg, "foreground", 'F', `foreground colour `+
		`as 3, 4, 6 or 8 hex digits or SVG colour name; `+
		`locators are always black on white; only for types png and bmp`,
		"RGB[A]|name")
	getopt.Flag(&g.latin1, '1', "convert payload to Latin-1")
	getopt.Flag(&g.sjis, 'k', "convert payload to Shift JIS")
	getopt.Flag(&g.round, 'R', "draw round modules")
	getopt.Flag(&g.padding, 'P', "round module inset, fraction of "+
		"module side [0.12]", "padding")
	getopt.Flag(&g.border, 'm', "quiet zone modules", "margin")
	getopt.Flag(&g.scale, 'x', "image pixels per module for type pbm",
		"scale")
	getopt.Flag(&g.fn, 'o', `output file, or "-" for standard output`,
		"file")
	getopt.Flag(&g.logo, 'L', "logo image: PNG, JPEG, GIF, BMP, TIFF "+
		"or WebP", "file")
	getopt.Flag(&g.lscale, 'z', "logo side, fraction of image width "+
		"[0.22 foreground, 1 background]", "scale")
	getopt.Flag(&g.opacity, 'O', "logo opacity, 0 to 1 "+
		"[1 foreground, 0.35 background]", "opacity")
	getopt.Flag(&g.sat, 'Z', "backdrop saturation change, "+
		"-100 to 100", "percent")
	getopt.Flag(&g.debug, 'D', "log debugging information to "+
		"standard error")
	mode := getopt.Enum('T', []string{"foreground", "background"},
		cfg.LogoMode, "logo placement: a badge over the code, or a "+
		"backdrop under it", "mode")
	enc := getopt.Enum('e', []string{"builtin", "standard", "barcode"},
		cfg.Encoder, "encoder: raw zigzag layout, standard QR code of "+
		"version -v, or standard QR code of the smallest version", "encoder")
	ver := getopt.Unsigned('v', cfg.Version, &getopt.UnsignedLimit{Base: 0, Bits: 8, Min: 1, Max: 40},
		"code version", "ver")
	lev := getopt.Enum('l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, cfg.Level,
		"error correction level of standard encoders, lowest to highest",
		"l|m|q|h")
	size := getopt.Unsigned('s', uint64(cfg.Size),
		&getopt.UnsignedLimit{Base: 0, Bits: 16, Min: 21, Max: 1 << 14},
		"image side in pixels for types png and bmp", "size")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+
		`; types with "i" appended have colours inverted; `+
		`if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise png`, "type")

	getopt.Parse()
	if g.latin1 && g.sjis {
		fmt.Fprintln(os.Stderr, "-1 and -k are incompatible")
		usage()
	}
	if *ff == "" {
		if g.fn == "" && isatty.IsTerminal(uintptr(syscall.Stdout)) {
			*ff = "utf8"
		} else {
			*ff = "png"
		}
	}
	for i, v := range formats {
		if *ff == v {
			g.format = i >> 1
			g.rev = i&1 != 0
			break
		}
	}
	if g.fn == "-" {
		g.fn = ""
	}

	o := &g.opt
	o.Version = coding.Version(*ver)
	o.Size = int(*size)
	if o.Level, err = qr.ParseLevel(*lev); err != nil {
		log.Fatalln(err)
	}
	if o.Encoder, err = qr.ParseEncoder(*enc); err != nil {
		log.Fatalln(err)
	}
	switch {
	case g.latin1:
		o.Charset = coding.Latin1
	case g.sjis:
		o.Charset = coding.ShiftJIS
	}
	st := &o.Style
	st.Foreground, st.Background = g.fg.color(), g.bg.color()
	if g.rev {
		st.Foreground, st.Background = st.Background, st.Foreground
	}
	if g.round {
		st.Shape = render.Round
	}
	st.Padding = g.padding
	st.QuietZone = g.border
	if st.Logo.Mode, err = render.ParseLogoMode(*mode); err != nil {
		log.Fatalln(err)
	}
	st.Logo.Scale, st.Logo.Opacity = g.lscale, g.opacity
	st.Logo.Saturation = g.sat
}

func main() {
	log.SetFlags(0)
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalln(err)
	}
	parseFlags(cfg)
	if g.debug {
		qr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Decode the logo while the input is read and encoded.
	if g.logo != "" && g.format <= fmtBMP {
		f, err := os.Open(g.logo)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		g.opt.Logo = render.Load(ctx, f)
	}

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatalln(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}

	var w io.WriteCloser = os.Stdout
	if g.fn != "" {
		if w, err = os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			log.Fatalln(err)
		}
	}
	err = write(ctx, w, s)
	if g.fn != "" && err == nil {
		err = w.Close()
	}
	if err != nil {
		log.Fatalln(err)
	}
}

func write(ctx context.Context, w io.Writer, s string) error {
	if g.format > fmtBMP {
		m, res, err := qr.Encode(s, g.opt)
		if err != nil {
			return err
		}
		warn(res.Warnings...)
		c := qr.NewGrid(m)
		c.Scale, c.Border, c.Reverse = g.scale, g.border, g.rev
		switch g.format {
		case fmtPBM:
			return c.EncodePBM(w)
		case fmtUTF8:
			return c.EncodeUTF8(w)
		}
		return c.EncodeASCII(w)
	}

	img, res, err := qr.Generate(ctx, s, g.opt)
	switch {
	case errors.Is(err, qr.ErrLogoLoad):
		warn(err)
	case err != nil:
		return err
	}
	warn(res.Warnings...)
	if g.format == fmtBMP {
		return qr.EncodeBMP(w, img)
	}
	return qr.EncodePNG(w, img)
}

func warn(errs ...error) {
	for _, err := range errs {
		log.Println("warning:", err)
	}
}
