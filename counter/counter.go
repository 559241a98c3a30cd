// counter.go - Deterministic counter generator for CTR mode keystreams.
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

// Package counter implements a deterministic, strictly incrementing generator
// of fixed width byte strings laid out as prefix ‖ value ‖ suffix, suitable
// for driving a CTR mode keystream.
package counter

import (
	"errors"
	"math/big"

	"github.com/katzenpost/hpqc/util"
)

const (
	// MaxFieldLength is the maximum length in bytes of the prefix, the
	// suffix, and the counter value.
	MaxFieldLength = 0xffff

	// MinValueLength is the minimum length in bytes of the counter value.
	MinValueLength = 1
)

var (
	// ErrWraparound is the error returned when the counter value has
	// wrapped around and wraparound is disallowed by policy.
	ErrWraparound = errors.New("counter: wrapped without allow_wraparound")

	// ErrDestroyed is the error returned when the generator has been
	// destroyed.
	ErrDestroyed = errors.New("counter: use after Destroy()")
)

// Counter is a counter generator.  It produces successive snapshots of its
// internal prefix ‖ value ‖ suffix buffer, incrementing the value portion
// after each snapshot.  A Counter is not safe for concurrent use.
type Counter struct {
	buf []byte // prefix ‖ value ‖ suffix, one contiguous allocation
	off int    // offset of the value portion within buf
	n   int    // length of the value portion

	littleEndian     bool
	carry            bool
	allowWraparound  bool
	shortcutDisabled bool
	destroyed        bool
}

func newCounter(prefix, suffix, initial []byte, littleEndian, allowWraparound, disableShortcut bool) (*Counter, error) {
	if len(initial) < MinValueLength {
		return nil, errors.New("counter: initial value length too small (must be >= 1 byte)")
	}
	if len(initial) > MaxFieldLength {
		return nil, errors.New("counter: initial value length too large (must be <= 65535 bytes)")
	}
	if len(prefix) > MaxFieldLength {
		return nil, errors.New("counter: prefix length too large (must be <= 65535 bytes)")
	}
	if len(suffix) > MaxFieldLength {
		return nil, errors.New("counter: suffix length too large (must be <= 65535 bytes)")
	}

	c := &Counter{
		buf:              make([]byte, 0, len(prefix)+len(initial)+len(suffix)),
		off:              len(prefix),
		n:                len(initial),
		littleEndian:     littleEndian,
		allowWraparound:  allowWraparound,
		shortcutDisabled: disableShortcut,
	}
	c.buf = append(c.buf, prefix...)
	c.buf = append(c.buf, initial...)
	c.buf = append(c.buf, suffix...)
	return c, nil
}

// NewBigEndian constructs a big endian Counter, where the least significant
// byte of the value is the rightmost one.  The prefix and suffix are copied
// and immutable for the life of the Counter.
func NewBigEndian(prefix, suffix, initial []byte, allowWraparound, disableShortcut bool) (*Counter, error) {
	return newCounter(prefix, suffix, initial, false, allowWraparound, disableShortcut)
}

// NewLittleEndian constructs a little endian Counter, where the least
// significant byte of the value is the leftmost one.
func NewLittleEndian(prefix, suffix, initial []byte, allowWraparound, disableShortcut bool) (*Counter, error) {
	return newCounter(prefix, suffix, initial, true, allowWraparound, disableShortcut)
}

// Size returns the fixed output width, len(prefix) + len(value) + len(suffix).
func (c *Counter) Size() int {
	return len(c.buf)
}

// Carry returns true if the last increment overflowed the value.
func (c *Counter) Carry() bool {
	return c.carry
}

// AllowsWraparound returns the wraparound policy set at construction.
func (c *Counter) AllowsWraparound() bool {
	return c.allowWraparound
}

// ShortcutEnabled returns true if a consuming mode engine may bypass Invoke
// and drive the counter via Buffer and Increment directly.
func (c *Counter) ShortcutEnabled() bool {
	return !c.shortcutDisabled && !c.destroyed
}

// Buffer returns the raw internal buffer.  The contents are only valid until
// the next call to Invoke or Increment.  Callers other than a CTR mode engine
// implementing the shortcut protocol should use Invoke instead.
func (c *Counter) Buffer() []byte {
	return c.buf
}

// Increment advances the value portion in place, setting the carry flag if
// this increment overflowed the value.  It never fails; enforcement of the
// wraparound policy is the caller's responsibility, matching the shortcut
// protocol.
func (c *Counter) Increment() {
	carry := 1
	if c.littleEndian {
		for i := c.off; i < c.off+c.n; i++ {
			tmp := int(c.buf[i]) + carry
			carry = tmp >> 8
			c.buf[i] = byte(tmp)
		}
	} else {
		for i := c.off + c.n - 1; i >= c.off; i-- {
			tmp := int(c.buf[i]) + carry
			carry = tmp >> 8
			c.buf[i] = byte(tmp)
		}
	}
	c.carry = carry != 0
}

// Invoke returns a snapshot of the current prefix ‖ value ‖ suffix buffer and
// then increments the value.  Once the value has wrapped around, Invoke fails
// with ErrWraparound unless wraparound was allowed at construction, and no
// further state mutation occurs.
func (c *Counter) Invoke() ([]byte, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	if c.carry && !c.allowWraparound {
		return nil, ErrWraparound
	}

	snapshot := make([]byte, len(c.buf))
	copy(snapshot, c.buf)
	c.Increment()
	return snapshot, nil
}

// NextValue returns the current value interpreted as an unsigned integer per
// the Counter's endianness, without advancing state.
func (c *Counter) NextValue() *big.Int {
	v := c.buf[c.off : c.off+c.n]
	x := new(big.Int)
	if c.littleEndian {
		tmp := make([]byte, c.n)
		for i, b := range v {
			tmp[c.n-1-i] = b
		}
		x.SetBytes(tmp)
	} else {
		x.SetBytes(v)
	}
	return x
}

// Destroy zeroizes the internal buffer.  The Counter is unusable afterwards.
func (c *Counter) Destroy() {
	util.ExplicitBzero(c.buf)
	c.destroyed = true
}
