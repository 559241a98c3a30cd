// SPDX-FileCopyrightText: Copyright (C) 2025  David Stainton
// SPDX-License-Identifier: AGPL-3.0-only

// Package blockcipher provides the block cipher capability consumed by the
// blockmode package: a registry of named schemes, each with a fixed block
// size, a fixed or variable key size, and a constructor returning a
// cipher.Block.
package blockcipher

import (
	"crypto/cipher"
	"crypto/des"
	"fmt"
	"strings"

	"gitlab.com/yawning/bsaes.git"
	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/twofish"
	"golang.org/x/crypto/xtea"
)

// Scheme describes a block cipher primitive.
type Scheme interface {
	// Name returns the registry name of the scheme.
	Name() string

	// BlockSize returns the cipher's block size in bytes.
	BlockSize() int

	// KeySize returns the cipher's key size in bytes, or 0 if the
	// scheme accepts keys of any nonzero length.
	KeySize() int

	// New performs the key schedule and returns the keyed primitive.
	New(key []byte) (cipher.Block, error)
}

type scheme struct {
	name      string
	blockSize int
	keySize   int
	ctor      func(key []byte) (cipher.Block, error)
}

func (s *scheme) Name() string   { return s.name }
func (s *scheme) BlockSize() int { return s.blockSize }
func (s *scheme) KeySize() int   { return s.keySize }

func (s *scheme) New(key []byte) (cipher.Block, error) {
	if s.keySize != 0 {
		if len(key) != s.keySize {
			return nil, fmt.Errorf("blockcipher/%s: key must be %d bytes, not %d", s.name, s.keySize, len(key))
		}
	} else if len(key) == 0 {
		return nil, fmt.Errorf("blockcipher/%s: key cannot be empty", s.name)
	}
	return s.ctor(key)
}

var schemes = []*scheme{
	{"aes128", 16, 16, bsaes.NewCipher},
	{"aes192", 16, 24, bsaes.NewCipher},
	{"aes256", 16, 32, bsaes.NewCipher},
	{"blowfish", 8, 0, func(key []byte) (cipher.Block, error) {
		return blowfish.NewCipher(key)
	}},
	{"cast5", 8, 16, func(key []byte) (cipher.Block, error) {
		return cast5.NewCipher(key)
	}},
	{"twofish256", 16, 32, func(key []byte) (cipher.Block, error) {
		return twofish.NewCipher(key)
	}},
	{"xtea", 8, 16, func(key []byte) (cipher.Block, error) {
		return xtea.NewCipher(key)
	}},
	{"des", 8, 8, des.NewCipher},
	{"des3", 8, 24, des.NewTripleDESCipher},
}

var schemesByName = func() map[string]Scheme {
	m := make(map[string]Scheme)
	for _, s := range schemes {
		m[s.name] = s
	}
	return m
}()

// ByName returns the named Scheme.  Names are matched case insensitively.
func ByName(name string) (Scheme, error) {
	s, ok := schemesByName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("blockcipher: unknown scheme '%s'", name)
	}
	return s, nil
}

// Schemes returns all registered schemes.
func Schemes() []Scheme {
	out := make([]Scheme, 0, len(schemes))
	for _, s := range schemes {
		out = append(out, s)
	}
	return out
}
