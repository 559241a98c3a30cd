// pgp.go - Legacy byte granular CFB variant.
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

package blockmode

import (
	"github.com/katzenpost/hpqc/util"
)

// pgpRefill replaces the exhausted feedback register with a fresh keystream
// block.  The register pair is double buffered: the fresh block is derived
// from the previous generation, and the exhausted register (which holds the
// most recent ciphertext) becomes the new previous generation, where Sync
// expects to find it.
func (c *Context) pgpRefill(tmp []byte) {
	c.blk.Encrypt(tmp, c.oldCipher)
	copy(c.oldCipher, c.iv)
	copy(c.iv, tmp)
}

func (c *Context) pgpEncrypt(dst, src []byte) {
	bs := len(c.iv)

	if len(src) <= bs-c.count {
		// Fits in what remains of the current register.
		for i, b := range src {
			c.iv[c.count+i] ^= b
			dst[i] = c.iv[c.count+i]
		}
		c.count += len(src)
		return
	}

	i := 0
	for ; i < bs-c.count; i++ {
		c.iv[c.count+i] ^= src[i]
		dst[i] = c.iv[c.count+i]
	}
	c.count = 0

	tmp := make([]byte, bs)
	defer util.ExplicitBzero(tmp)
	for ; i < len(src)-bs; i += bs {
		c.pgpRefill(tmp)
		for j := 0; j < bs; j++ {
			c.iv[j] ^= src[i+j]
			dst[i+j] = c.iv[j]
		}
	}

	// The remaining 1 to bs bytes.
	c.pgpRefill(tmp)
	c.count = len(src) - i
	for j := 0; j < c.count; j++ {
		c.iv[j] ^= src[i+j]
		dst[i+j] = c.iv[j]
	}
}

func (c *Context) pgpDecrypt(dst, src []byte) {
	bs := len(c.iv)

	if len(src) <= bs-c.count {
		for i, b := range src {
			t := c.iv[c.count+i]
			c.iv[c.count+i] = b
			dst[i] = t ^ b
		}
		c.count += len(src)
		return
	}

	i := 0
	for ; i < bs-c.count; i++ {
		t := c.iv[c.count+i]
		c.iv[c.count+i] = src[i]
		dst[i] = t ^ src[i]
	}
	c.count = 0

	tmp := make([]byte, bs)
	defer util.ExplicitBzero(tmp)
	for ; i < len(src)-bs; i += bs {
		c.pgpRefill(tmp)
		for j := 0; j < bs; j++ {
			t := c.iv[j]
			c.iv[j] = src[i+j]
			dst[i+j] = t ^ src[i+j]
		}
	}

	c.pgpRefill(tmp)
	c.count = len(src) - i
	for j := 0; j < c.count; j++ {
		t := c.iv[j]
		c.iv[j] = src[i+j]
		dst[i+j] = t ^ src[i+j]
	}
}

// Sync re-aligns the feedback register with the preceding ciphertext after
// out of band manipulation of the ciphertext history, per the PGP mode
// resynchronization convention.  It fails in every other mode.
func (c *Context) Sync() error {
	if err := c.checkUsable(); err != nil {
		return err
	}
	if c.mode != PGP {
		return &ConfigurationError{Msg: "sync() operation not defined for this feedback mode"}
	}

	if c.count != pgpSyncOffset {
		bs := len(c.iv)
		copy(c.iv[bs-c.count:], c.iv[:c.count])
		copy(c.iv[:bs-c.count], c.oldCipher[c.count:])
		c.count = pgpSyncOffset
	}
	return nil
}
