// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
	"golang.org/x/crypto/blake2b"
)

// Blake2b128 returns the 128-bit blake2b hash of the input data.
func Blake2b128(in []byte) ([]byte, error) {
	h, err := blake2b.New(16, nil)
	if err != nil {
		return nil, err
	}

	_, err = h.Write(in)
	if err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// Blake2b256 returns the 256-bit blake2b hash of the input data.
func Blake2b256(in []byte) (Hash, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Hash{}, err
	}

	_, err = h.Write(in)
	if err != nil {
		return Hash{}, err
	}

	var buf Hash
	copy(buf[:], h.Sum(nil))
	return buf, nil
}

// xxhash64 computes the xxHash64 of the input with the given seed,
// returned as little endian bytes.
func xxhash64(in []byte, seed uint64) ([]byte, error) {
	h := xxhash.NewS64(seed)
	_, err := h.Write(in)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, h.Sum64())
	return out, nil
}

// Twox64 returns the 8 byte xx64 hash of the input data.
func Twox64(in []byte) ([]byte, error) {
	return xxhash64(in, 0)
}

// Twox128 computes xxHash64 twice with seeds 0 and 1 applied on the
// input data, concatenating the two results.
func Twox128(in []byte) ([]byte, error) {
	out := make([]byte, 0, 16)
	for seed := uint64(0); seed < 2; seed++ {
		part, err := xxhash64(in, seed)
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}

// Twox256 computes xxHash64 four times with seeds 0 through 3
// applied on the input data, concatenating the four results.
func Twox256(in []byte) (Hash, error) {
	var out Hash
	for seed := uint64(0); seed < 4; seed++ {
		part, err := xxhash64(in, seed)
		if err != nil {
			return Hash{}, err
		}
		copy(out[seed*8:], part)
	}
	return out, nil
}
