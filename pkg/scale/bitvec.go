// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package scale

import (
	"fmt"
)

// maxBitVecLen is the maximum number of bits a BitVec can hold,
// matching the limit enforced by bitvec on Substrate chains.
const maxBitVecLen = 268435455

// BitVec is a SCALE bit vector in Lsb0 order: bit i of the vector
// lives at bit i%8 of byte i/8.
type BitVec struct {
	bits []bool
}

// NewBitVec returns a BitVec over the given bits.
func NewBitVec(bits []bool) BitVec {
	return BitVec{bits: bits}
}

// Bits returns the underlying bits.
func (bv BitVec) Bits() []bool { return bv.bits }

// Size returns the number of bits.
func (bv BitVec) Size() int { return len(bv.bits) }

// Bytes packs the bits into bytes in Lsb0 order.
func (bv BitVec) Bytes() (b []byte) {
	b = make([]byte, (len(bv.bits)+7)/8)
	for i, bit := range bv.bits {
		if bit {
			b[i/8] |= 1 << (i % 8)
		}
	}
	return b
}

// String returns the bit vector as a binary string, lowest bit first.
func (bv BitVec) String() string {
	out := make([]byte, len(bv.bits))
	for i, bit := range bv.bits {
		if bit {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return "0b" + string(out)
}

// DecodeBitVec reads a compact bit count followed by the packed
// bytes holding the bits in Lsb0 order.
func (r *Reader) DecodeBitVec() (bv BitVec, err error) {
	bitCount, err := r.DecodeLength()
	if err != nil {
		return BitVec{}, err
	}
	if bitCount > maxBitVecLen {
		return BitVec{}, fmt.Errorf("%w: %d bits", ErrBitVecTooLong, bitCount)
	}

	packed, err := r.ReadBytes((bitCount + 7) / 8)
	if err != nil {
		return BitVec{}, err
	}

	bits := make([]bool, bitCount)
	for i := range bits {
		bits[i] = packed[i/8]&(1<<(i%8)) != 0
	}
	return BitVec{bits: bits}, nil
}
