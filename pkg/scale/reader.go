// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package scale implements the SCALE (Simple Concatenated Aggregate
// Little-Endian) wire format primitives used by Substrate chains.
package scale

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// Reader decodes SCALE primitives from a byte slice, tracking the
// current offset. All integers are little endian. Reads never go
// past the end of the input and fail with ErrEndOfData instead.
type Reader struct {
	data   []byte
	offset int
}

// NewReader returns a reader over data starting at offset zero.
// The reader does not copy data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.offset }

// SetOffset rewinds or forwards the reader to the given offset.
func (r *Reader) SetOffset(offset int) { r.offset = offset }

// Remaining returns the number of bytes left to read.
func (r *Reader) Remaining() int { return len(r.data) - r.offset }

// Len returns the total length of the underlying data.
func (r *Reader) Len() int { return len(r.data) }

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (b byte, err error) {
	if r.Remaining() < 1 {
		return 0, fmt.Errorf("%w: at offset %d", ErrEndOfData, r.offset)
	}
	b = r.data[r.offset]
	r.offset++
	return b, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the
// underlying data.
func (r *Reader) ReadBytes(n int) (b []byte, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeLength, n)
	}
	if r.Remaining() < n {
		return nil, fmt.Errorf("%w: at offset %d, need %d bytes but have %d",
			ErrEndOfData, r.offset, n, r.Remaining())
	}
	b = r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// DecodeBool reads a strict SCALE bool, one byte equal to
// 0x00 or 0x01.
func (r *Reader) DecodeBool() (value bool, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%x at offset %d", ErrInvalidBool, b, r.offset-1)
	}
}

// DecodeUint8 reads one unsigned byte.
func (r *Reader) DecodeUint8() (value uint8, err error) {
	return r.ReadByte()
}

// DecodeUint16 reads a little endian uint16.
func (r *Reader) DecodeUint16() (value uint16, err error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// DecodeUint32 reads a little endian uint32.
func (r *Reader) DecodeUint32() (value uint32, err error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DecodeUint64 reads a little endian uint64.
func (r *Reader) DecodeUint64() (value uint64, err error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// DecodeUint128 reads a 16 byte little endian unsigned integer.
func (r *Reader) DecodeUint128() (value *Uint128, err error) {
	b, err := r.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	return NewUint128(b), nil
}

// DecodeInt8 reads one signed byte.
func (r *Reader) DecodeInt8() (value int8, err error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// DecodeInt16 reads a little endian int16.
func (r *Reader) DecodeInt16() (value int16, err error) {
	u, err := r.DecodeUint16()
	return int16(u), err
}

// DecodeInt32 reads a little endian int32.
func (r *Reader) DecodeInt32() (value int32, err error) {
	u, err := r.DecodeUint32()
	return int32(u), err
}

// DecodeInt64 reads a little endian int64.
func (r *Reader) DecodeInt64() (value int64, err error) {
	u, err := r.DecodeUint64()
	return int64(u), err
}

// DecodeBigFixed reads a fixed width little endian unsigned integer
// of n bytes into a big integer, for widths above 16 bytes such as
// U256 values.
func (r *Reader) DecodeBigFixed(n int) (value *big.Int, err error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(reverseBytes(b)), nil
}

// DecodeCompact reads a compact encoded unsigned integer of
// arbitrary size. The mode is in the two lowest bits of the first
// byte: 0 for single byte, 1 for two bytes, 2 for four bytes and 3
// for a big integer whose byte count follows in the upper six bits.
func (r *Reader) DecodeCompact() (value *big.Int, err error) {
	first, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch first & 0x03 {
	case 0:
		return big.NewInt(int64(first >> 2)), nil
	case 1:
		second, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		v := (uint64(first) | uint64(second)<<8) >> 2
		return new(big.Int).SetUint64(v), nil
	case 2:
		rest, err := r.ReadBytes(3)
		if err != nil {
			return nil, err
		}
		v := uint64(first) | uint64(rest[0])<<8 | uint64(rest[1])<<16 | uint64(rest[2])<<24
		return new(big.Int).SetUint64(v >> 2), nil
	default:
		byteCount := int(first>>2) + 4
		b, err := r.ReadBytes(byteCount)
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetBytes(reverseBytes(b)), nil
	}
}

// DecodeCompactUint64 reads a compact integer that must fit a uint64.
func (r *Reader) DecodeCompactUint64() (value uint64, err error) {
	v, err := r.DecodeCompact()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrCompactOverflow, v)
	}
	return v.Uint64(), nil
}

// DecodeLength reads a compact integer used as a collection length
// prefix. Lengths above 2^32-1 are rejected.
func (r *Reader) DecodeLength() (length int, err error) {
	v, err := r.DecodeCompactUint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: length %d", ErrCompactOverflow, v)
	}
	return int(v), nil
}

// DecodeByteSlice reads a length prefixed run of bytes.
func (r *Reader) DecodeByteSlice() (b []byte, err error) {
	length, err := r.DecodeLength()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(length)
}

// DecodeString reads a length prefixed UTF-8 string.
func (r *Reader) DecodeString() (s string, err error) {
	b, err := r.DecodeByteSlice()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
