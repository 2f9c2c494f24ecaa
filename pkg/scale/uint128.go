// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package scale

import (
	"encoding/binary"
	"math/big"
)

// Uint128 represents an unsigned 128 bit integer as two uint64 limbs.
type Uint128 struct {
	Upper uint64
	Lower uint64
}

// MaxUint128 is the maximum uint128 value.
var MaxUint128 = &Uint128{
	Upper: ^uint64(0),
	Lower: ^uint64(0),
}

// NewUint128 builds a Uint128 from up to 16 little endian bytes.
func NewUint128(le []byte) (u *Uint128) {
	padded := make([]byte, 16)
	copy(padded, le)
	return &Uint128{
		Lower: binary.LittleEndian.Uint64(padded[:8]),
		Upper: binary.LittleEndian.Uint64(padded[8:]),
	}
}

// NewUint128FromBig builds a Uint128 from a big integer, truncating
// to the lowest 128 bits.
func NewUint128FromBig(value *big.Int) (u *Uint128) {
	be := value.Bytes()
	if len(be) > 16 {
		be = be[len(be)-16:]
	}
	return NewUint128(reverseBytes(be))
}

// Bytes returns the 16 byte little endian representation.
func (u *Uint128) Bytes() (b []byte) {
	b = make([]byte, 16)
	binary.LittleEndian.PutUint64(b[:8], u.Lower)
	binary.LittleEndian.PutUint64(b[8:], u.Upper)
	return b
}

// Big returns the value as a big integer.
func (u *Uint128) Big() (value *big.Int) {
	value = new(big.Int).SetUint64(u.Upper)
	value.Lsh(value, 64)
	return value.Or(value, new(big.Int).SetUint64(u.Lower))
}

// String returns the decimal representation of the value.
func (u *Uint128) String() string {
	return u.Big().String()
}

// Compare returns 1 if the receiver is greater than other,
// 0 if they are equal, and -1 otherwise.
func (u *Uint128) Compare(other *Uint128) int {
	switch {
	case u.Upper > other.Upper:
		return 1
	case u.Upper < other.Upper:
		return -1
	case u.Lower > other.Lower:
		return 1
	case u.Lower < other.Lower:
		return -1
	default:
		return 0
	}
}
