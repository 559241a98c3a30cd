// SPDX-FileCopyrightText: Copyright (C) 2025  David Stainton
// SPDX-License-Identifier: AGPL-3.0-only

package blockmode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newPGPContext(t *testing.T, key, iv []byte) *Context {
	c, err := New(mustScheme(t, "aes128"), key, PGP, &Options{IV: iv})
	require.NoError(t, err)
	return c
}

func TestPGPSplitInput(t *testing.T) {
	// Byte granular feedback: any partitioning of the input produces the
	// same stream.
	require := require.New(t)

	key := randBytes(t, 16)
	iv := randBytes(t, 16)
	pt := randBytes(t, 61)

	one := newPGPContext(t, key, iv)
	whole, err := one.Encrypt(pt)
	require.NoError(err)

	two := newPGPContext(t, key, iv)
	var split []byte
	for _, n := range []int{1, 7, 8, 16, 29} {
		part, err := two.Encrypt(pt[len(split) : len(split)+n])
		require.NoError(err)
		split = append(split, part...)
	}
	require.Equal(whole, split, "split encryption diverged")

	dec := newPGPContext(t, key, iv)
	got, err := dec.Decrypt(whole)
	require.NoError(err)
	require.Equal(pt, got, "roundtrip mismatch")
}

func TestPGPResync(t *testing.T) {
	// Both ends resynchronize at the same stream position and stay in step
	// afterwards.
	require := require.New(t)

	key := randBytes(t, 16)
	iv := randBytes(t, 16)
	head := randBytes(t, 10)
	tail := randBytes(t, 30)

	enc := newPGPContext(t, key, iv)
	ctHead, err := enc.Encrypt(head)
	require.NoError(err)
	require.NoError(enc.Sync())
	ctTail, err := enc.Encrypt(tail)
	require.NoError(err)

	dec := newPGPContext(t, key, iv)
	ptHead, err := dec.Decrypt(ctHead)
	require.NoError(err)
	require.NoError(dec.Sync())
	ptTail, err := dec.Decrypt(ctTail)
	require.NoError(err)

	require.Equal(head, ptHead)
	require.Equal(tail, ptTail, "streams out of step after resync")
}

func TestPGPSyncMechanics(t *testing.T) {
	require := require.New(t)

	key := randBytes(t, 16)
	iv := randBytes(t, 16)

	c := newPGPContext(t, key, iv)
	require.Equal(pgpSyncOffset, c.count, "fresh register consumption offset")

	// Sync with a register at the resynchronization offset is a no-op.
	before := c.IV()
	require.NoError(c.Sync())
	require.Equal(before, c.IV())
	require.Equal(pgpSyncOffset, c.count)

	// Push the offset past the convention, then verify the shuffle.
	_, err := c.Encrypt(make([]byte, 3))
	require.NoError(err)
	require.Equal(pgpSyncOffset+3, c.count)

	wantTail := append([]byte{}, c.iv[:c.count]...)
	wantHead := append([]byte{}, c.oldCipher[c.count:]...)
	require.NoError(c.Sync())
	require.Equal(pgpSyncOffset, c.count)
	require.Equal(wantHead, c.IV()[:16-len(wantTail)])
	require.Equal(wantTail, c.IV()[16-len(wantTail):])
}

func TestPGPSyncWrongMode(t *testing.T) {
	require := require.New(t)

	for _, mode := range []Mode{ECB, CBC, CFB, OFB} {
		c, err := New(mustScheme(t, "aes128"), make([]byte, 16), mode, nil)
		require.NoError(err)
		err = c.Sync()
		var cfgErr *ConfigurationError
		require.ErrorAs(err, &cfgErr, "%v: Sync did not fail", mode)
	}
}

func TestPGPLongStream(t *testing.T) {
	// Exercise several register refills in one call.
	require := require.New(t)

	key := randBytes(t, 16)
	iv := randBytes(t, 16)
	pt := randBytes(t, 1000)

	enc := newPGPContext(t, key, iv)
	ct, err := enc.Encrypt(pt)
	require.NoError(err)

	dec := newPGPContext(t, key, iv)
	got, err := dec.Decrypt(ct)
	require.NoError(err)
	require.Equal(pt, got)
}
