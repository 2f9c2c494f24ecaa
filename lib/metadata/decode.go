// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metadata

import (
	"bytes"
	"fmt"

	"github.com/ChainSafe/desub/pkg/scale"
)

// magicNumber is the little endian "meta" prefix of every runtime
// metadata blob.
var magicNumber = []byte{0x6d, 0x65, 0x74, 0x61}

// Decode decodes a runtime metadata blob of any supported version
// into the normalized model.
func Decode(data []byte) (meta *Metadata, err error) {
	if len(data) < 5 || !bytes.Equal(data[:4], magicNumber) {
		return nil, ErrInvalidPrefix
	}

	version := data[4]
	r := scale.NewReader(data[5:])

	switch {
	case version >= 8 && version <= 13:
		meta, err = decodeLegacy(r, version)
	case version == 14:
		meta, err = decodeV14(r)
	default:
		return nil, fmt.Errorf("%w: version %d", ErrVersionNotSupported, version)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding v%d metadata: %w", version, err)
	}
	return meta, nil
}
