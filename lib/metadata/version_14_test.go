// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metadata

import (
	"testing"

	"github.com/ChainSafe/desub/lib/typedesc"
	"github.com/ChainSafe/desub/pkg/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeV14Fixture builds a minimal v14 blob: a u32, an i8, one
// pallet call enum and one event enum in the registry, and a single
// pallet using them.
func encodeV14Fixture() []byte {
	var b []byte
	b = append(b, magicNumber...)
	b = append(b, 14)

	// registry with 4 types
	b = append(b, scale.EncodeCompact(4)...)

	// id 0: u32
	b = append(b, scale.EncodeCompact(0)...)
	b = append(b, encodeStringVec()...)         // path
	b = append(b, scale.EncodeCompact(0)...)    // params
	b = append(b, 5, 5)                         // primitive u32
	b = append(b, encodeStringVec()...)         // docs

	// id 1: i8
	b = append(b, scale.EncodeCompact(1)...)
	b = append(b, encodeStringVec()...)
	b = append(b, scale.EncodeCompact(0)...)
	b = append(b, 5, 9) // primitive i8
	b = append(b, encodeStringVec()...)

	// id 2: call enum with one variant at index 0
	b = append(b, scale.EncodeCompact(2)...)
	b = append(b, encodeStringVec("pallet_test", "pallet", "Call")...)
	b = append(b, scale.EncodeCompact(0)...)
	b = append(b, 1)                         // variant def
	b = append(b, scale.EncodeCompact(1)...) // one variant
	b = append(b, scale.EncodeString("foo_function0")...)
	b = append(b, scale.EncodeCompact(1)...) // one field
	b = append(b, 0x01)                      // named
	b = append(b, scale.EncodeString("foo_arg")...)
	b = append(b, scale.EncodeCompact(1)...) // field type id 1 (i8)
	b = append(b, 0x00)                      // no type name
	b = append(b, encodeStringVec()...)      // field docs
	b = append(b, 0)                         // variant index
	b = append(b, encodeStringVec()...)      // variant docs
	b = append(b, encodeStringVec()...)      // type docs

	// id 3: event enum with one variant
	b = append(b, scale.EncodeCompact(3)...)
	b = append(b, encodeStringVec("pallet_test", "pallet", "Event")...)
	b = append(b, scale.EncodeCompact(0)...)
	b = append(b, 1)
	b = append(b, scale.EncodeCompact(1)...)
	b = append(b, scale.EncodeString("SomethingStored")...)
	b = append(b, scale.EncodeCompact(1)...)
	b = append(b, 0x00)                      // unnamed field
	b = append(b, scale.EncodeCompact(0)...) // field type id 0 (u32)
	b = append(b, 0x00)
	b = append(b, encodeStringVec()...)
	b = append(b, 0)
	b = append(b, encodeStringVec()...)
	b = append(b, encodeStringVec()...)

	// one pallet
	b = append(b, scale.EncodeCompact(1)...)
	b = append(b, scale.EncodeString("TestModule0")...)
	b = append(b, 0x01) // has storage
	b = append(b, scale.EncodeString("TestModule0")...)
	b = append(b, scale.EncodeCompact(1)...) // one entry
	b = append(b, scale.EncodeString("Number")...)
	b = append(b, 1)                         // modifier default
	b = append(b, 0x00)                      // plain
	b = append(b, scale.EncodeCompact(0)...) // value type u32
	b = append(b, scale.EncodeBytes(nil)...) // default
	b = append(b, encodeStringVec()...)      // docs
	b = append(b, 0x01)                      // has calls
	b = append(b, scale.EncodeCompact(2)...)
	b = append(b, 0x01) // has events
	b = append(b, scale.EncodeCompact(3)...)
	b = append(b, scale.EncodeCompact(0)...) // constants
	b = append(b, 0x00)                      // no errors
	b = append(b, 0)                         // pallet index

	// extrinsic metadata
	b = append(b, scale.EncodeCompact(0)...) // extrinsic type id
	b = append(b, 4)                         // version
	b = append(b, scale.EncodeCompact(1)...) // one extension
	b = append(b, scale.EncodeString("CheckNonce")...)
	b = append(b, scale.EncodeCompact(0)...) // extension type
	b = append(b, scale.EncodeCompact(0)...) // additional signed type

	// runtime type id
	b = append(b, scale.EncodeCompact(0)...)
	return b
}

func Test_Decode_v14(t *testing.T) {
	t.Parallel()

	meta, err := Decode(encodeV14Fixture())
	require.NoError(t, err)

	assert.Equal(t, uint8(14), meta.Version)
	require.NotNil(t, meta.Registry)

	u32Type, err := meta.Registry.Type(0)
	require.NoError(t, err)
	assert.Equal(t, typedesc.NewPrimitive(typedesc.U32), u32Type)

	module, err := meta.Module("TestModule0")
	require.NoError(t, err)
	assert.Equal(t, uint8(0), module.Index)
	assert.Equal(t, map[uint8]string{0: "TestModule0"}, meta.ModulesByCallIndex)
	assert.Equal(t, map[uint8]string{0: "TestModule0"}, meta.ModulesByEventIndex)

	call, err := module.CallByIndex(0)
	require.NoError(t, err)
	assert.Equal(t, "foo_function0", call.Name)
	require.Len(t, call.Args, 1)
	assert.Equal(t, "foo_arg", call.Args[0].Name)
	assert.Equal(t, typedesc.NewRef(1), call.Args[0].Ty)

	event := module.Events[0]
	require.NotNil(t, event)
	assert.Equal(t, "SomethingStored", event.Name)

	entry := module.Storage["Number"]
	require.NotNil(t, entry)
	assert.Equal(t, StoragePlain, entry.Type.Kind)
	assert.Equal(t, typedesc.NewRef(0), entry.Type.Value)

	require.NotNil(t, meta.Extrinsics)
	assert.Equal(t, []string{"CheckNonce"}, meta.Extrinsics.SignedExtensions)
	require.Len(t, meta.Extrinsics.SignedExtensionTypes, 1)

	_, err = meta.Registry.Type(99)
	assert.ErrorIs(t, err, ErrTypeNotFound)
}

func Test_Decode_v14_variantIndicesAreDeclared(t *testing.T) {
	t.Parallel()

	meta, err := Decode(encodeV14Fixture())
	require.NoError(t, err)

	callType, err := meta.Registry.Type(2)
	require.NoError(t, err)
	require.Equal(t, typedesc.KindVariant, callType.Kind)
	require.Len(t, callType.Variants, 1)
	require.NotNil(t, callType.Variants[0].Index)
	assert.Equal(t, uint8(0), *callType.Variants[0].Index)
	assert.Equal(t, "Call", callType.Name)
}
