// SPDX-FileCopyrightText: Copyright (C) 2025  David Stainton
// SPDX-License-Identifier: AGPL-3.0-only

package blockmode

import (
	"fmt"
	"strings"
)

// Mode selects the mode of operation of a Context.  The numeric values are
// fixed and appear in configuration and container headers of existing
// deployments; the gap at 4 is deliberate.
type Mode int

const (
	// ECB is electronic codebook mode.
	ECB Mode = 1

	// CBC is ciphertext block chaining mode.
	CBC Mode = 2

	// CFB is cipher feedback mode with a configurable segment size.
	CFB Mode = 3

	// PGP is a legacy byte granular variant of CFB with an 8 byte
	// resynchronization convention.
	PGP Mode = 5

	// OFB is output feedback mode.
	OFB Mode = 6

	// CTR is counter mode, driven by an external counter source.
	CTR Mode = 7
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ECB:
		return "ECB"
	case CBC:
		return "CBC"
	case CFB:
		return "CFB"
	case PGP:
		return "PGP"
	case OFB:
		return "OFB"
	case CTR:
		return "CTR"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// FromString returns the Mode named by s, matched case insensitively.
func FromString(s string) (Mode, error) {
	switch strings.ToUpper(s) {
	case "ECB":
		return ECB, nil
	case "CBC":
		return CBC, nil
	case "CFB":
		return CFB, nil
	case "PGP":
		return PGP, nil
	case "OFB":
		return OFB, nil
	case "CTR":
		return CTR, nil
	default:
		return 0, fmt.Errorf("blockmode: unknown cipher feedback mode '%s'", s)
	}
}

func (m Mode) valid() bool {
	switch m {
	case ECB, CBC, CFB, PGP, OFB, CTR:
		return true
	default:
		return false
	}
}
