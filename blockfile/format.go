// format.go - Encrypted container framing.
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

// Package blockfile frames an encrypted payload with a self describing
// header.  The layout is a 4 byte magic, a format version byte, a big endian
// uint32 header length, the CBOR serialized Header, and the raw ciphertext.
package blockfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/katzenpost/cryptobase/blockcipher"
	"github.com/katzenpost/cryptobase/blockmode"
)

const (
	magic   = "KPBC"
	version = 0

	// maxHeaderLength bounds the serialized header so a corrupt length
	// field cannot drive an absurd allocation.
	maxHeaderLength = 1 << 16
)

// ErrBadMagic is the error returned when the input does not start with the
// container magic.
var ErrBadMagic = errors.New("blockfile: invalid magic")

// Header describes how the payload that follows it was encrypted.  The key
// is never part of the container.
type Header struct {
	// Scheme is the block cipher scheme name.
	Scheme string

	// Mode is the mode of operation name.
	Mode string

	// SegmentSize is the CFB feedback granularity in bits, 0 outside of
	// CFB mode.
	SegmentSize int `cbor:",omitempty"`

	// IV is the initialization vector.  Empty in CTR mode.
	IV []byte `cbor:",omitempty"`

	// Nonce is the CTR mode counter prefix.  Empty in every other mode.
	Nonce []byte `cbor:",omitempty"`

	// PayloadLen is the plaintext length in bytes, used to strip the
	// padding that block aligned modes require.
	PayloadLen uint64
}

func (h *Header) validate() error {
	s, err := blockcipher.ByName(h.Scheme)
	if err != nil {
		return fmt.Errorf("blockfile: %v", err)
	}
	m, err := blockmode.FromString(h.Mode)
	if err != nil {
		return fmt.Errorf("blockfile: %v", err)
	}
	if len(h.IV) != 0 && len(h.IV) != s.BlockSize() {
		return fmt.Errorf("blockfile: IV must be %d bytes long, not %d", s.BlockSize(), len(h.IV))
	}
	if m == blockmode.CTR {
		if len(h.Nonce) >= s.BlockSize() {
			return fmt.Errorf("blockfile: nonce must be shorter than the %d byte block", s.BlockSize())
		}
	} else if len(h.Nonce) != 0 {
		return errors.New("blockfile: nonce only useful with CTR mode")
	}
	return nil
}

// WriteHeader serializes h to w.  The caller writes the ciphertext
// immediately after.
func WriteHeader(w io.Writer, h *Header) error {
	if err := h.validate(); err != nil {
		return err
	}

	blob, err := cbor.Marshal(h)
	if err != nil {
		return err
	}
	if len(blob) > maxHeaderLength {
		return errors.New("blockfile: header too large")
	}

	hdr := make([]byte, 0, len(magic)+1+4+len(blob))
	hdr = append(hdr, magic...)
	hdr = append(hdr, version)
	hdr = binary.BigEndian.AppendUint32(hdr, uint32(len(blob)))
	hdr = append(hdr, blob...)
	_, err = w.Write(hdr)
	return err
}

// ReadHeader deserializes a Header from r, leaving r positioned at the first
// ciphertext byte.
func ReadHeader(r io.Reader) (*Header, error) {
	fixed := make([]byte, len(magic)+1+4)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, err
	}
	if string(fixed[:len(magic)]) != magic {
		return nil, ErrBadMagic
	}
	if fixed[len(magic)] != version {
		return nil, fmt.Errorf("blockfile: unsupported version %d", fixed[len(magic)])
	}

	n := binary.BigEndian.Uint32(fixed[len(magic)+1:])
	if n > maxHeaderLength {
		return nil, errors.New("blockfile: header too large")
	}
	blob := make([]byte, n)
	if _, err := io.ReadFull(r, blob); err != nil {
		return nil, err
	}

	h := new(Header)
	if err := cbor.Unmarshal(blob, h); err != nil {
		return nil, fmt.Errorf("blockfile: malformed header: %v", err)
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	return h, nil
}
