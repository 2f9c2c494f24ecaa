// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package common holds the hashing primitives and address display
// helpers shared across the decoder packages.
package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Hash is a 32 byte hash value.
type Hash [32]byte

// ErrHashLength is returned when building a Hash from a byte slice
// of the wrong length.
var ErrHashLength = errors.New("hash must be 32 bytes")

// NewHash builds a Hash from a 32 byte slice.
func NewHash(in []byte) (h Hash, err error) {
	if len(in) != len(h) {
		return Hash{}, fmt.Errorf("%w: got %d", ErrHashLength, len(in))
	}
	copy(h[:], in)
	return h, nil
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// String returns the 0x prefixed hex representation of the hash.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// HexToHash parses a 0x prefixed hex string into a Hash.
func HexToHash(in string) (h Hash, err error) {
	trimmed := strings.TrimPrefix(in, "0x")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return Hash{}, err
	}
	return NewHash(b)
}

// MustHexToHash parses a 0x prefixed hex string into a Hash and
// panics on malformed input. For use with hardcoded strings only.
func MustHexToHash(in string) Hash {
	h, err := HexToHash(in)
	if err != nil {
		panic(err)
	}
	return h
}
