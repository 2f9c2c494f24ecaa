// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metadata

import (
	"github.com/ChainSafe/desub/pkg/scale"
)

// Wire fixture builders for the metadata decoding tests. They
// produce the same layout the runtime emits, using the package's
// own primitive encoders.

type moduleFixture struct {
	name    string
	storage *storageFixture
	calls   []callFixture
	events  []eventFixture
	index   uint8 // v12+
}

type storageFixture struct {
	prefix  string
	entries []storageEntryFixture
}

type storageEntryFixture struct {
	name     string
	modifier uint8
	encode   func() []byte // storage type bytes
}

type callFixture struct {
	name string
	args [][2]string // name, type
}

type eventFixture struct {
	name string
	args []string
}

func plainEntry(name, valueType string) storageEntryFixture {
	return storageEntryFixture{
		name:     name,
		modifier: 1, // default
		encode: func() []byte {
			var b []byte
			b = append(b, 0x00) // plain
			b = append(b, scale.EncodeString(valueType)...)
			return b
		},
	}
}

func mapEntry(name string, hasher uint8, keyType, valueType string) storageEntryFixture {
	return storageEntryFixture{
		name:     name,
		modifier: 1,
		encode: func() []byte {
			var b []byte
			b = append(b, 0x01, hasher)
			b = append(b, scale.EncodeString(keyType)...)
			b = append(b, scale.EncodeString(valueType)...)
			b = append(b, scale.EncodeBool(false)...)
			return b
		},
	}
}

func doubleMapEntry(name string, hasher uint8, key1, key2, valueType string,
	key2Hasher uint8) storageEntryFixture {
	return storageEntryFixture{
		name:     name,
		modifier: 1,
		encode: func() []byte {
			var b []byte
			b = append(b, 0x02, hasher)
			b = append(b, scale.EncodeString(key1)...)
			b = append(b, scale.EncodeString(key2)...)
			b = append(b, scale.EncodeString(valueType)...)
			b = append(b, key2Hasher)
			return b
		},
	}
}

func encodeStringVec(strings ...string) []byte {
	b := scale.EncodeCompact(uint64(len(strings)))
	for _, s := range strings {
		b = append(b, scale.EncodeString(s)...)
	}
	return b
}

func encodeModuleFixture(version uint8, module moduleFixture) []byte {
	b := scale.EncodeString(module.name)

	if module.storage != nil {
		b = append(b, 0x01)
		b = append(b, scale.EncodeString(module.storage.prefix)...)
		b = append(b, scale.EncodeCompact(uint64(len(module.storage.entries)))...)
		for _, entry := range module.storage.entries {
			b = append(b, scale.EncodeString(entry.name)...)
			b = append(b, entry.modifier)
			b = append(b, entry.encode()...)
			b = append(b, scale.EncodeBytes(nil)...) // default
			b = append(b, encodeStringVec()...)      // docs
		}
	} else {
		b = append(b, 0x00)
	}

	if module.calls != nil {
		b = append(b, 0x01)
		b = append(b, scale.EncodeCompact(uint64(len(module.calls)))...)
		for _, call := range module.calls {
			b = append(b, scale.EncodeString(call.name)...)
			b = append(b, scale.EncodeCompact(uint64(len(call.args)))...)
			for _, arg := range call.args {
				b = append(b, scale.EncodeString(arg[0])...)
				b = append(b, scale.EncodeString(arg[1])...)
			}
			b = append(b, encodeStringVec()...) // docs
		}
	} else {
		b = append(b, 0x00)
	}

	if module.events != nil {
		b = append(b, 0x01)
		b = append(b, scale.EncodeCompact(uint64(len(module.events)))...)
		for _, event := range module.events {
			b = append(b, scale.EncodeString(event.name)...)
			b = append(b, encodeStringVec(event.args...)...)
			b = append(b, encodeStringVec()...) // docs
		}
	} else {
		b = append(b, 0x00)
	}

	b = append(b, scale.EncodeCompact(0)...) // constants
	b = append(b, scale.EncodeCompact(0)...) // errors

	if version >= 12 {
		b = append(b, module.index)
	}
	return b
}

func encodeMetadataFixture(version uint8, modules []moduleFixture,
	signedExtensions ...string) []byte {
	b := append([]byte{}, magicNumber...)
	b = append(b, version)
	b = append(b, scale.EncodeCompact(uint64(len(modules)))...)
	for _, module := range modules {
		b = append(b, encodeModuleFixture(version, module)...)
	}
	if version >= 11 {
		b = append(b, 4) // extrinsic version
		b = append(b, encodeStringVec(signedExtensions...)...)
	}
	return b
}
