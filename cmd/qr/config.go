// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// config holds defaults taken from the environment and an optional
// .env file in the working directory.  Flags override them.
type config struct {
	Version     uint64  `env:"QR_VERSION" envDefault:"1"`
	Level       string  `env:"QR_LEVEL" envDefault:"m"`
	Encoder     string  `env:"QR_ENCODER" envDefault:"builtin"`
	Charset     string  `env:"QR_CHARSET" envDefault:"utf-8"`
	Size        int     `env:"QR_SIZE" envDefault:"400"`
	Scale       int     `env:"QR_SCALE" envDefault:"4"`
	QuietZone   int     `env:"QR_QUIET_ZONE" envDefault:"4"`
	Foreground  string  `env:"QR_FOREGROUND" envDefault:"black"`
	Background  string  `env:"QR_BACKGROUND" envDefault:"white"`
	Shape       string  `env:"QR_SHAPE" envDefault:"square"`
	Padding     float64 `env:"QR_PADDING"`
	Logo        string  `env:"QR_LOGO"`
	LogoMode    string  `env:"QR_LOGO_MODE" envDefault:"foreground"`
	LogoScale   float64 `env:"QR_LOGO_SCALE"`
	LogoOpacity float64 `env:"QR_LOGO_OPACITY"`
	Saturation  float64 `env:"QR_LOGO_SATURATION"`
	Debug       bool    `env:"QR_DEBUG"`
}

// loadConfig reads .env, if present, and parses the environment.
// Variables already set take precedence over .env.
func loadConfig(files ...string) (config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, err
	}
	var c config
	if err := env.Parse(&c); err != nil {
		return config{}, err
	}
	return c, nil
}
