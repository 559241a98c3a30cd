// crypt.go - Per-mode encrypt and decrypt transforms.
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
	"github.com/go-faster/xor"
	"github.com/katzenpost/hpqc/util"
)

// Encrypt encrypts src and returns the ciphertext, advancing the feedback
// state.  src is not modified.  A zero length src yields a zero length
// result and no state change.
func (c *Context) Encrypt(src []byte) ([]byte, error) {
	if err := c.checkUsable(); err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return []byte{}, nil
	}
	if err := c.checkAlignment(len(src)); err != nil {
		return nil, err
	}

	dst := make([]byte, len(src))
	switch c.mode {
	case ECB:
		c.ecb(dst, src, true)
	case CBC:
		c.cbcEncrypt(dst, src)
	case CFB:
		c.cfb(dst, src, false)
	case OFB:
		c.ofb(dst, src)
	case PGP:
		c.pgpEncrypt(dst, src)
	case CTR:
		if err := c.ctr(dst, src); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// Decrypt decrypts src and returns the plaintext, advancing the feedback
// state.  It fails unconditionally while PRF mode is set.
func (c *Context) Decrypt(src []byte) ([]byte, error) {
	if c.prfMode {
		return nil, &ConfigurationError{Msg: "decrypt function not enabled"}
	}
	if err := c.checkUsable(); err != nil {
		return nil, err
	}

	// CTR decryption is identical to encryption, the keystream XOR is its
	// own inverse.
	if c.mode == CTR {
		return c.Encrypt(src)
	}

	if len(src) == 0 {
		return []byte{}, nil
	}
	if err := c.checkAlignment(len(src)); err != nil {
		return nil, err
	}

	dst := make([]byte, len(src))
	switch c.mode {
	case ECB:
		c.ecb(dst, src, false)
	case CBC:
		c.cbcDecrypt(dst, src)
	case CFB:
		c.cfb(dst, src, true)
	case OFB:
		c.ofb(dst, src)
	case PGP:
		c.pgpDecrypt(dst, src)
	}
	return dst, nil
}

func (c *Context) checkAlignment(n int) error {
	switch c.mode {
	case ECB, CBC, OFB:
		if bs := len(c.iv); n%bs != 0 {
			return &AlignmentError{Multiple: bs}
		}
	case CFB:
		if n%c.segment != 0 {
			return &AlignmentError{Multiple: c.segment}
		}
	}
	return nil
}

func (c *Context) ecb(dst, src []byte, encrypt bool) {
	bs := len(c.iv)
	for i := 0; i < len(src); i += bs {
		if encrypt {
			c.blk.Encrypt(dst[i:i+bs], src[i:i+bs])
		} else {
			c.blk.Decrypt(dst[i:i+bs], src[i:i+bs])
		}
	}
}

func (c *Context) cbcEncrypt(dst, src []byte) {
	bs := len(c.iv)
	tmp := make([]byte, bs)
	defer util.ExplicitBzero(tmp)
	for i := 0; i < len(src); i += bs {
		xor.Bytes(tmp, src[i:i+bs], c.iv)
		c.blk.Encrypt(dst[i:i+bs], tmp)
		copy(c.iv, dst[i:i+bs])
	}
}

func (c *Context) cbcDecrypt(dst, src []byte) {
	bs := len(c.iv)
	tmp := make([]byte, bs)
	defer util.ExplicitBzero(tmp)
	for i := 0; i < len(src); i += bs {
		// The register must be staged before it is overwritten with the
		// incoming ciphertext.
		copy(c.oldCipher, c.iv)
		c.blk.Decrypt(tmp, src[i:i+bs])
		xor.Bytes(dst[i:i+bs], tmp, c.oldCipher)
		copy(c.iv, src[i:i+bs])
	}
}

func (c *Context) cfb(dst, src []byte, decrypt bool) {
	bs := len(c.iv)
	s := c.segment
	ks := make([]byte, bs)
	defer util.ExplicitBzero(ks)
	for i := 0; i < len(src); i += s {
		c.blk.Encrypt(ks, c.iv)
		xor.Bytes(dst[i:i+s], src[i:i+s], ks[:s])

		// Both directions feed true ciphertext back into the register:
		// the produced segment when encrypting, the consumed segment
		// when decrypting.
		ct := dst[i : i+s]
		if decrypt {
			ct = src[i : i+s]
		}
		if s == bs {
			copy(c.iv, ct)
		} else {
			copy(c.iv, c.iv[s:])
			copy(c.iv[bs-s:], ct)
		}
	}
}

func (c *Context) ofb(dst, src []byte) {
	bs := len(c.iv)
	for i := 0; i < len(src); i += bs {
		c.blk.Encrypt(c.iv, c.iv)
		xor.Bytes(dst[i:i+bs], src[i:i+bs], c.iv)
	}
}
