// SPDX-FileCopyrightText: Copyright (C) 2025  David Stainton
// SPDX-License-Identifier: AGPL-3.0-only

package blockmode

import "fmt"

// ConfigurationError is the error returned when a Context is constructed
// with inconsistent parameters, or an operation is invoked that the
// context's configuration forbids.
type ConfigurationError struct {
	// Msg describes the violated constraint.
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "blockmode: " + e.Msg
}

func configurationErrorf(format string, a ...interface{}) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, a...)}
}

// AlignmentError is the error returned when an input buffer's length is not
// a multiple of the granularity the configured mode requires.
type AlignmentError struct {
	// Multiple is the required granularity in bytes.
	Multiple int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("blockmode: input length must be a multiple of %d bytes", e.Multiple)
}
