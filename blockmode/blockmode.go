// blockmode.go - Block cipher modes of operation.
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

// Package blockmode turns a fixed size block cipher primitive into a byte
// stream cipher via one of six modes of operation: ECB, CBC, CFB with a
// variable segment size, OFB, a legacy 8 byte granularity CFB variant
// ("PGP mode"), and CTR driven by an external counter source.
//
// A Context is a mutable, unsynchronized state machine; callers must
// serialize all operations on a given instance.
package blockmode

import (
	"crypto/cipher"

	"github.com/katzenpost/hpqc/util"

	"github.com/katzenpost/cryptobase/blockcipher"
)

// pgpSyncOffset is the number of bytes of a fresh PGP mode feedback register
// that are considered already consumed, a convention inherited from the wire
// protocol this mode interoperates with.
const pgpSyncOffset = 8

// Options holds the optional parameters of New.
type Options struct {
	// IV is the initialization vector, exactly one block in length.  If
	// absent it defaults to the all zero block.
	IV []byte

	// SegmentSize is the CFB feedback granularity in bits, a multiple of
	// 8 no larger than the block size.  If absent it defaults to 8.
	// Meaningless outside of CFB mode.
	SegmentSize int

	// Counter is the CTR mode counter source.  Required for CTR,
	// forbidden otherwise.
	Counter CounterSource
}

// Context is a block cipher keyed and configured for one mode of operation.
// Every Encrypt and Decrypt call advances the feedback state in place.
type Context struct {
	scheme blockcipher.Scheme
	blk    cipher.Block
	mode   Mode

	iv        []byte
	oldCipher []byte
	count     int
	segment   int // CFB segment size in bytes

	counter CounterSource
	direct  DirectCounterSource // non-nil when the shortcut protocol applies

	prfMode   bool
	destroyed bool
}

// New constructs a Context for the given scheme, key and mode.  opts may be
// nil, in which case all optional parameters take their defaults.
func New(s blockcipher.Scheme, key []byte, mode Mode, opts *Options) (*Context, error) {
	if s == nil {
		return nil, &ConfigurationError{Msg: "no block cipher scheme provided"}
	}
	if !mode.valid() {
		return nil, configurationErrorf("unknown cipher feedback mode %d", int(mode))
	}

	var o Options
	if opts != nil {
		o = *opts
	}

	bs := s.BlockSize()
	if len(o.IV) != 0 && len(o.IV) != bs {
		return nil, configurationErrorf("IV must be %d bytes long, not %d", bs, len(o.IV))
	}

	segment := 0
	if mode == CFB {
		if o.SegmentSize == 0 {
			o.SegmentSize = 8
		}
		if o.SegmentSize < 1 || o.SegmentSize > bs*8 || o.SegmentSize%8 != 0 {
			return nil, configurationErrorf("segment_size must be a multiple of 8 (bits) between 1 and %d", bs*8)
		}
		segment = o.SegmentSize / 8
	}

	if mode == CTR {
		if o.Counter == nil {
			return nil, &ConfigurationError{Msg: "'counter' parameter is required with CTR mode"}
		}
	} else if o.Counter != nil {
		return nil, &ConfigurationError{Msg: "'counter' parameter only useful with CTR mode"}
	}

	blk, err := s.New(key)
	if err != nil {
		return nil, &ConfigurationError{Msg: err.Error()}
	}

	c := &Context{
		scheme:    s,
		blk:       blk,
		mode:      mode,
		iv:        make([]byte, bs),
		oldCipher: make([]byte, bs),
		segment:   segment,
		counter:   o.Counter,
	}
	copy(c.iv, o.IV)

	switch mode {
	case PGP:
		c.count = pgpSyncOffset
	default:
		c.count = bs
	}

	// The shortcut capability is probed once, here, mirroring the
	// construction-time decision of prior deployments.
	if dc, ok := o.Counter.(DirectCounterSource); ok && dc.ShortcutEnabled() {
		c.direct = dc
	}
	return c, nil
}

// Mode returns the context's mode of operation.
func (c *Context) Mode() Mode {
	return c.mode
}

// BlockSize returns the underlying cipher's block size in bytes.
func (c *Context) BlockSize() int {
	return c.scheme.BlockSize()
}

// KeySize returns the underlying cipher's key size in bytes, 0 if variable.
func (c *Context) KeySize() int {
	return c.scheme.KeySize()
}

// IV returns a copy of the current feedback register.
func (c *Context) IV() []byte {
	iv := make([]byte, len(c.iv))
	copy(iv, c.iv)
	return iv
}

// SetPRFMode marks the context as one way: while set, Decrypt fails
// immediately with a ConfigurationError.
func (c *Context) SetPRFMode(enable bool) {
	c.prfMode = enable
}

// Destroy zeroizes all feedback state.  If the context owns a counter source
// supporting destruction, it is destroyed as well.  The Context is unusable
// afterwards.
func (c *Context) Destroy() {
	util.ExplicitBzero(c.iv)
	util.ExplicitBzero(c.oldCipher)
	c.count = 0
	if d, ok := c.counter.(interface{ Destroy() }); ok {
		d.Destroy()
	}
	c.destroyed = true
}

func (c *Context) checkUsable() error {
	if c.destroyed {
		return &ConfigurationError{Msg: "use after Destroy()"}
	}
	return nil
}
