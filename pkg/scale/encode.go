// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package scale

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// EncodeCompact encodes an unsigned integer in compact form,
// picking the smallest of the four modes that fits the value.
func EncodeCompact(value uint64) (b []byte) {
	switch {
	case value < 1<<6:
		return []byte{byte(value) << 2}
	case value < 1<<14:
		out := make([]byte, 2)
		binary.LittleEndian.PutUint16(out, uint16(value<<2)|0x01)
		return out
	case value < 1<<30:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, uint32(value<<2)|0x02)
		return out
	default:
		return EncodeCompactBig(new(big.Int).SetUint64(value))
	}
}

// EncodeCompactBig encodes an arbitrary size unsigned integer in
// compact form. Values below 2^30 use the small modes.
func EncodeCompactBig(value *big.Int) (b []byte) {
	if value.Sign() < 0 {
		panic(fmt.Sprintf("cannot compact encode negative integer %s", value))
	}
	if value.IsUint64() && value.Uint64() < 1<<30 {
		return EncodeCompact(value.Uint64())
	}

	numBytes := len(value.Bytes())
	b = make([]byte, 0, numBytes+1)
	b = append(b, byte(numBytes-4)<<2|0x03)
	b = append(b, reverseBytes(value.Bytes())...)
	return b
}

// EncodeBytes encodes a run of bytes with its compact length prefix.
func EncodeBytes(data []byte) (b []byte) {
	b = EncodeCompact(uint64(len(data)))
	return append(b, data...)
}

// EncodeString encodes a string with its compact length prefix.
func EncodeString(s string) (b []byte) {
	return EncodeBytes([]byte(s))
}

// EncodeUint32 encodes a fixed width little endian uint32.
func EncodeUint32(value uint32) (b []byte) {
	b = make([]byte, 4)
	binary.LittleEndian.PutUint32(b, value)
	return b
}

// EncodeUint64 encodes a fixed width little endian uint64.
func EncodeUint64(value uint64) (b []byte) {
	b = make([]byte, 8)
	binary.LittleEndian.PutUint64(b, value)
	return b
}

// EncodeBool encodes a bool as a single 0x00 or 0x01 byte.
func EncodeBool(value bool) (b []byte) {
	if value {
		return []byte{0x01}
	}
	return []byte{0x00}
}
