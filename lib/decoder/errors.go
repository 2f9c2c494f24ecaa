// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package decoder

import "errors"

var (
	ErrUnknownSpecVersion = errors.New("no metadata registered for spec version")
	ErrTypeUnresolved     = errors.New("type name cannot be resolved")
	ErrDepthLimit         = errors.New("type nesting too deep")
	ErrInvalidVariant     = errors.New("invalid enum discriminant")
	ErrInvalidOptionTag   = errors.New("invalid Option tag")
	ErrInvalidCompact     = errors.New("compact encoding cannot wrap type")
	ErrInvalidResultTag   = errors.New("invalid Result tag")
	ErrInvalidEra         = errors.New("invalid era")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrInvalidData        = errors.New("invalid identity data")
	ErrInvalidVote        = errors.New("invalid vote")
	ErrExtrinsicVersion   = errors.New("unsupported extrinsic version")
	ErrTrailingBytes      = errors.New("extrinsic decoded with bytes left over")
	ErrItemLengthOverrun  = errors.New("declared item length exceeds input")
	ErrNoRegistry         = errors.New("registry type in metadata without registry")
	ErrStorageKeyUnknown  = errors.New("storage key matches no metadata entry")
)
