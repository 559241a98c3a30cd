// counter_test.go - Counter generator tests.
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

package counter

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigEndianSequence(t *testing.T) {
	require := require.New(t)

	c, err := NewBigEndian(nil, nil, []byte{0x00, 0x00}, false, false)
	require.NoError(err, "NewBigEndian()")

	first, err := c.Invoke()
	require.NoError(err, "first Invoke()")
	require.Equal([]byte{0x00, 0x00}, first, "first snapshot")

	second, err := c.Invoke()
	require.NoError(err, "second Invoke()")
	require.Equal([]byte{0x00, 0x01}, second, "second snapshot")

	// Run the value across the low byte boundary.
	for i := 2; i < 0x0100; i++ {
		_, err = c.Invoke()
		require.NoError(err, "Invoke()")
	}
	v, err := c.Invoke()
	require.NoError(err, "Invoke() at 0x0100")
	require.Equal([]byte{0x01, 0x00}, v, "carry into the high byte")
}

func TestLittleEndianSequence(t *testing.T) {
	require := require.New(t)

	c, err := NewLittleEndian(nil, nil, []byte{0x00, 0x00}, false, false)
	require.NoError(err, "NewLittleEndian()")

	for i := 0; i < 0x0100; i++ {
		_, err = c.Invoke()
		require.NoError(err, "Invoke()")
	}
	v, err := c.Invoke()
	require.NoError(err, "Invoke() at 0x0100")
	require.Equal([]byte{0x00, 0x01}, v, "carry into the second byte")
}

func TestPrefixSuffixLayout(t *testing.T) {
	require := require.New(t)

	prefix := []byte("nonce")
	suffix := []byte{0xde, 0xad}
	c, err := NewBigEndian(prefix, suffix, []byte{0x00, 0xff}, false, false)
	require.NoError(err, "NewBigEndian()")
	require.Equal(len(prefix)+2+len(suffix), c.Size(), "Size()")

	v, err := c.Invoke()
	require.NoError(err, "Invoke()")
	require.Equal([]byte("nonce\x00\xff\xde\xad"), v, "snapshot layout")

	v, err = c.Invoke()
	require.NoError(err, "Invoke()")
	require.Equal([]byte("nonce\x01\x00\xde\xad"), v, "prefix and suffix immutable across increments")
}

func TestWraparoundDisallowed(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// Start one increment away from the top of a 4 byte value; looping
	// 2^32 times is equivalent but pointless.
	c, err := NewBigEndian(nil, nil, []byte{0xff, 0xff, 0xff, 0xff}, false, false)
	require.NoError(err, "NewBigEndian()")

	v, err := c.Invoke()
	require.NoError(err, "Invoke() at the maximum value")
	assert.Equal([]byte{0xff, 0xff, 0xff, 0xff}, v, "final pre-wrap snapshot")
	assert.True(c.Carry(), "Carry() after the wrapping increment")

	_, err = c.Invoke()
	assert.Equal(ErrWraparound, err, "Invoke() after wraparound")
	_, err = c.Invoke()
	assert.Equal(ErrWraparound, err, "Invoke() stays blocked")
}

func TestWraparoundAllowed(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	c, err := NewBigEndian(nil, nil, []byte{0xff, 0xff, 0xff, 0xff}, true, false)
	require.NoError(err, "NewBigEndian()")

	_, err = c.Invoke()
	require.NoError(err, "Invoke() at the maximum value")
	assert.True(c.Carry(), "Carry() after the wrapping increment")

	v, err := c.Invoke()
	require.NoError(err, "Invoke() after wraparound")
	assert.Equal([]byte{0x00, 0x00, 0x00, 0x00}, v, "wrapped back to zero")
}

func TestFullCycleCarry(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	c, err := NewBigEndian(nil, nil, []byte{0x00, 0x00}, true, false)
	require.NoError(err, "NewBigEndian()")

	seen := make(map[uint16]bool)
	for i := 0; i < 0x10000; i++ {
		v, err := c.Invoke()
		require.NoError(err, "Invoke()")
		seen[uint16(v[0])<<8|uint16(v[1])] = true
	}
	assert.Len(seen, 0x10000, "one full period, no repeats")
	assert.True(c.Carry(), "Carry() after exactly one wrap")

	v, err := c.Invoke()
	require.NoError(err, "Invoke() after the wrap")
	assert.Equal([]byte{0x00, 0x00}, v, "sequence restarted at zero")
}

func TestNextValue(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	be, err := NewBigEndian(nil, nil, []byte{0x01, 0x02, 0x03}, false, false)
	require.NoError(err, "NewBigEndian()")
	assert.Zero(be.NextValue().Cmp(big.NewInt(0x010203)), "big endian NextValue()")

	le, err := NewLittleEndian(nil, nil, []byte{0x01, 0x02, 0x03}, false, false)
	require.NoError(err, "NewLittleEndian()")
	assert.Zero(le.NextValue().Cmp(big.NewInt(0x030201)), "little endian NextValue()")

	// NextValue must not advance state.
	assert.Zero(le.NextValue().Cmp(big.NewInt(0x030201)), "NextValue() is non-mutating")
}

func TestConstructionValidation(t *testing.T) {
	assert := assert.New(t)

	_, err := NewBigEndian(nil, nil, nil, false, false)
	assert.Error(err, "empty initial value")

	_, err = NewBigEndian(nil, nil, make([]byte, MaxFieldLength+1), false, false)
	assert.Error(err, "oversized initial value")

	_, err = NewBigEndian(make([]byte, MaxFieldLength+1), nil, []byte{0x00}, false, false)
	assert.Error(err, "oversized prefix")

	_, err = NewBigEndian(nil, make([]byte, MaxFieldLength+1), []byte{0x00}, false, false)
	assert.Error(err, "oversized suffix")
}

func TestShortcutProtocol(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	c, err := NewBigEndian([]byte{0xaa}, []byte{0xbb}, []byte{0x00}, false, false)
	require.NoError(err, "NewBigEndian()")
	assert.True(c.ShortcutEnabled(), "ShortcutEnabled() default")

	assert.Equal([]byte{0xaa, 0x00, 0xbb}, c.Buffer(), "Buffer() raw view")
	c.Increment()
	assert.Equal([]byte{0xaa, 0x01, 0xbb}, c.Buffer(), "Buffer() after Increment()")
	assert.False(c.Carry(), "Carry()")

	noShortcut, err := NewBigEndian(nil, nil, []byte{0x00}, false, true)
	require.NoError(err, "NewBigEndian() with shortcut disabled")
	assert.False(noShortcut.ShortcutEnabled(), "ShortcutEnabled() disabled")
}

func TestDestroy(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	c, err := NewBigEndian(nil, nil, []byte{0x12, 0x34}, false, false)
	require.NoError(err, "NewBigEndian()")
	c.Destroy()
	assert.Equal([]byte{0x00, 0x00}, c.buf, "buffer zeroized")
	_, err = c.Invoke()
	assert.Equal(ErrDestroyed, err, "Invoke() after Destroy()")
}
