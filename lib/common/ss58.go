// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

// SS58Prefix is the context prefix hashed into every ss58 checksum.
const ss58Prefix = "SS58PRE"

// SubstrateAddressType is the generic Substrate ss58 address type.
const SubstrateAddressType byte = 42

// ErrPublicKeyLength is returned when encoding a public key that is
// not 32 bytes.
var ErrPublicKeyLength = errors.New("public key must be 32 bytes")

// SS58Encode returns the ss58 address for a 32 byte public key with
// the given network address type byte.
func SS58Encode(pubKey []byte, addressType byte) (string, error) {
	if len(pubKey) != 32 {
		return "", fmt.Errorf("%w: got %d", ErrPublicKeyLength, len(pubKey))
	}

	payload := make([]byte, 0, 1+len(pubKey)+2)
	payload = append(payload, addressType)
	payload = append(payload, pubKey...)

	checksum := blake2b.Sum512(append([]byte(ss58Prefix), payload...))
	payload = append(payload, checksum[:2]...)

	return base58.Encode(payload), nil
}
