// config.go - Cryptobase tool configuration.
// Copyright (C) 2025  David Stainton.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config provides the blockcrypt tool configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/katzenpost/cryptobase/blockcipher"
	"github.com/katzenpost/cryptobase/blockmode"
)

const (
	defaultLogLevel    = "NOTICE"
	defaultScheme      = "aes256"
	defaultMode        = "ctr"
	defaultSegmentSize = 8
)

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level.
	Level string
}

func (lCfg *Logging) validate() error {
	lvl := strings.ToUpper(lCfg.Level)
	switch lvl {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	case "":
		lvl = defaultLogLevel
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}
	lCfg.Level = lvl // Force uppercase.
	return nil
}

// Crypt selects the block cipher scheme and mode of operation.
type Crypt struct {
	// Scheme is the block cipher scheme name.
	Scheme string

	// Mode is the mode of operation name.
	Mode string

	// SegmentSize is the CFB feedback granularity in bits.  Ignored by
	// every other mode.
	SegmentSize int
}

func (cCfg *Crypt) validate() error {
	if cCfg.Scheme == "" {
		cCfg.Scheme = defaultScheme
	}
	s, err := blockcipher.ByName(cCfg.Scheme)
	if err != nil {
		return fmt.Errorf("config: Crypt: %v", err)
	}

	if cCfg.Mode == "" {
		cCfg.Mode = defaultMode
	}
	m, err := blockmode.FromString(cCfg.Mode)
	if err != nil {
		return fmt.Errorf("config: Crypt: %v", err)
	}

	if m == blockmode.CFB {
		if cCfg.SegmentSize == 0 {
			cCfg.SegmentSize = defaultSegmentSize
		}
		if cCfg.SegmentSize%8 != 0 || cCfg.SegmentSize < 8 || cCfg.SegmentSize > s.BlockSize()*8 {
			return fmt.Errorf("config: Crypt: SegmentSize %d is invalid for %s", cCfg.SegmentSize, s.Name())
		}
	}
	return nil
}

// Config is the top level blockcrypt configuration.
type Config struct {
	Logging *Logging
	Crypt   *Crypt
}

// FixupAndValidate applies defaults to config entries and validates the
// supplied configuration.
func (cfg *Config) FixupAndValidate() error {
	if cfg.Logging == nil {
		cfg.Logging = &Logging{}
	}
	if cfg.Crypt == nil {
		cfg.Crypt = &Crypt{}
	}
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	return cfg.Crypt.validate()
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	if b == nil {
		return nil, errors.New("No nil buffer as config file")
	}

	cfg := new(Config)
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
