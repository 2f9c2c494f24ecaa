// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package scale

import (
	"errors"
)

var (
	// ErrEndOfData is returned when a read goes past the end of the input.
	ErrEndOfData = errors.New("unexpected end of data")
	// ErrInvalidBool is returned when a bool byte is neither 0x00 nor 0x01.
	ErrInvalidBool = errors.New("invalid bool byte")
	// ErrCompactOverflow is returned when a compact integer does not fit
	// the requested width.
	ErrCompactOverflow = errors.New("compact integer overflows target type")
	// ErrNegativeLength is returned when encoding a negative length prefix.
	ErrNegativeLength = errors.New("length prefix cannot be negative")
	// ErrBitVecTooLong is returned when a bit vector exceeds the maximum
	// number of bits.
	ErrBitVecTooLong = errors.New("bit vector exceeds maximum length")
)
