// ctr.go - Counter mode and the counter source protocols.
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
	"github.com/katzenpost/cryptobase/counter"
)

// CounterSource produces successive counter blocks for CTR mode.  Every
// Invoke returns the next block; the returned slice must be exactly one
// cipher block in length and is not retained by the caller.
type CounterSource interface {
	Invoke() ([]byte, error)
}

// CounterFunc adapts a plain function to the CounterSource interface.
type CounterFunc func() ([]byte, error)

// Invoke calls f.
func (f CounterFunc) Invoke() ([]byte, error) {
	return f()
}

// DirectCounterSource is the optional fast path protocol a counter source
// may implement.  When ShortcutEnabled reports true at Context construction
// time, CTR mode reads the counter block straight out of Buffer and steps it
// with Increment, skipping the Invoke allocation per block.
type DirectCounterSource interface {
	CounterSource

	// ShortcutEnabled reports whether the fast path may be used.
	ShortcutEnabled() bool

	// Buffer exposes the source's live counter block.
	Buffer() []byte

	// Increment advances the counter by one.
	Increment()

	// Carry reports whether the last increment overflowed the value field.
	Carry() bool

	// AllowsWraparound reports whether overflow is permitted to wrap
	// silently.
	AllowsWraparound() bool
}

func (c *Context) ctr(dst, src []byte) error {
	bs := len(c.iv)
	for i := range src {
		if c.count == bs {
			if err := c.refillCTR(); err != nil {
				return err
			}
		}
		// The keystream is consumed destructively out of the feedback
		// register.
		c.iv[c.count] ^= src[i]
		dst[i] = c.iv[c.count]
		c.count++
	}
	return nil
}

func (c *Context) refillCTR() error {
	bs := len(c.iv)

	if c.direct != nil {
		if c.direct.Carry() && !c.direct.AllowsWraparound() {
			return counter.ErrWraparound
		}
		buf := c.direct.Buffer()
		if len(buf) != bs {
			return configurationErrorf("CTR counter function returned string not of length %d", bs)
		}
		c.blk.Encrypt(c.iv, buf)
		c.direct.Increment()
		c.count = 0
		return nil
	}

	v, err := c.counter.Invoke()
	if err != nil {
		return err
	}
	if len(v) != bs {
		return configurationErrorf("CTR counter function returned string not of length %d", bs)
	}
	c.blk.Encrypt(c.iv, v)
	c.count = 0
	return nil
}
