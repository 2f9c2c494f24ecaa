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

func Test_Decode_invalidPrefix(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte{0x00, 0x01, 0x02, 0x03, 0x08})
	assert.ErrorIs(t, err, ErrInvalidPrefix)

	_, err = Decode([]byte{0x6d, 0x65})
	assert.ErrorIs(t, err, ErrInvalidPrefix)
}

func Test_Decode_unsupportedVersion(t *testing.T) {
	t.Parallel()

	for _, version := range []byte{0, 7, 15, 42} {
		blob := append(append([]byte{}, magicNumber...), version)
		_, err := Decode(blob)
		assert.ErrorIs(t, err, ErrVersionNotSupported, "version %d", version)
	}
}

func Test_Decode_legacy_skipRule(t *testing.T) {
	t.Parallel()

	// module A has no calls and no events, B and C have both;
	// index slots are consumed only by modules with the capability
	modules := []moduleFixture{
		{name: "ModuleA"},
		{
			name:   "ModuleB",
			calls:  []callFixture{{name: "transfer", args: [][2]string{{"dest", "T::AccountId"}}}},
			events: []eventFixture{{name: "Transfer", args: []string{"AccountId", "Balance"}}},
		},
		{
			name:   "ModuleC",
			calls:  []callFixture{{name: "remark", args: [][2]string{{"remark", "Vec<u8>"}}}},
			events: []eventFixture{{name: "Remarked", args: []string{"Hash"}}},
		},
	}

	for _, version := range []uint8{8, 9, 10, 11} {
		meta, err := Decode(encodeMetadataFixture(version, modules))
		require.NoError(t, err, "version %d", version)

		assert.Equal(t, map[uint8]string{0: "ModuleB", 1: "ModuleC"},
			meta.ModulesByCallIndex, "version %d", version)
		assert.Equal(t, map[uint8]string{0: "ModuleB", 1: "ModuleC"},
			meta.ModulesByEventIndex, "version %d", version)

		// positional module indices
		assert.Equal(t, uint8(0), meta.Modules["ModuleA"].Index)
		assert.Equal(t, uint8(1), meta.Modules["ModuleB"].Index)
		assert.Equal(t, uint8(2), meta.Modules["ModuleC"].Index)
	}
}

func Test_Decode_legacy_explicitIndices(t *testing.T) {
	t.Parallel()

	modules := []moduleFixture{
		{name: "System", index: 0,
			calls: []callFixture{{name: "remark", args: [][2]string{{"remark", "Vec<u8>"}}}}},
		{name: "Balances", index: 5,
			calls:  []callFixture{{name: "transfer"}},
			events: []eventFixture{{name: "Transfer"}}},
	}

	for _, version := range []uint8{12, 13} {
		meta, err := Decode(encodeMetadataFixture(version, modules))
		require.NoError(t, err, "version %d", version)

		assert.Equal(t, map[uint8]string{0: "System", 5: "Balances"},
			meta.ModulesByCallIndex)
		assert.Equal(t, map[uint8]string{5: "Balances"}, meta.ModulesByEventIndex)
		assert.Equal(t, uint8(5), meta.Modules["Balances"].Index)
	}
}

func Test_Decode_legacy_callsAndTypes(t *testing.T) {
	t.Parallel()

	modules := []moduleFixture{{
		name: "Balances",
		calls: []callFixture{
			{name: "transfer", args: [][2]string{
				{"dest", "T::AccountId"},
				{"value", "Compact<T::Balance>"},
			}},
			{name: "set_balance"},
		},
	}}

	meta, err := Decode(encodeMetadataFixture(9, modules))
	require.NoError(t, err)

	module, err := meta.Module("Balances")
	require.NoError(t, err)

	transfer, err := module.CallByIndex(0)
	require.NoError(t, err)
	assert.Equal(t, "transfer", transfer.Name)
	require.Len(t, transfer.Args, 2)
	assert.Equal(t, "dest", transfer.Args[0].Name)
	assert.Equal(t, typedesc.NewPointer("T::AccountId"), transfer.Args[0].Ty)
	assert.Equal(t, typedesc.NewCompact(typedesc.NewPointer("T::Balance")),
		transfer.Args[1].Ty)

	setBalance, err := module.CallByIndex(1)
	require.NoError(t, err)
	assert.Equal(t, "set_balance", setBalance.Name)

	_, err = module.CallByIndex(2)
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func Test_Decode_legacy_invalidTypeString(t *testing.T) {
	t.Parallel()

	modules := []moduleFixture{{
		name:  "Broken",
		calls: []callFixture{{name: "bad", args: [][2]string{{"arg", "[f32; 4]"}}}},
	}}

	_, err := Decode(encodeMetadataFixture(9, modules))
	assert.ErrorIs(t, err, ErrInvalidType)
}

func Test_Decode_legacy_storage(t *testing.T) {
	t.Parallel()

	modules := []moduleFixture{{
		name: "System",
		storage: &storageFixture{
			prefix: "System",
			entries: []storageEntryFixture{
				plainEntry("Number", "T::BlockNumber"),
				// v11 hasher 2 is Blake2_128Concat
				mapEntry("Account", 2, "T::AccountId", "AccountInfo<T::Index, T::AccountData>"),
				// hasher 5 is Twox64Concat in v11
				doubleMapEntry("AuthoredBlocks", 5, "SessionIndex", "T::ValidatorId", "u32", 5),
			},
		},
	}}

	meta, err := Decode(encodeMetadataFixture(11, modules))
	require.NoError(t, err)

	storage := meta.Modules["System"].Storage

	number := storage["Number"]
	require.NotNil(t, number)
	assert.Equal(t, StoragePlain, number.Type.Kind)
	assert.Equal(t, "System Number", number.Prefix)
	assert.Equal(t, ModifierDefault, number.Modifier)

	account := storage["Account"]
	require.NotNil(t, account)
	assert.Equal(t, StorageMap, account.Type.Kind)
	assert.Equal(t, HasherBlake2_128Concat, account.Type.Hasher)
	assert.Equal(t, typedesc.NewPointer("T::AccountId"), account.Type.Key)

	authored := storage["AuthoredBlocks"]
	require.NotNil(t, authored)
	assert.Equal(t, StorageDoubleMap, authored.Type.Kind)
	assert.Equal(t, HasherTwox64Concat, authored.Type.Hasher)
	assert.Equal(t, HasherTwox64Concat, authored.Type.Key2Hasher)
	assert.Equal(t, typedesc.NewPrimitive(typedesc.U32), authored.Type.Value)
}

func Test_decodeHasher_versioned(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		version uint8
		b       byte
		hasher  StorageHasher
		err     error
	}{
		"v9 twox64concat":        {version: 9, b: 4, hasher: HasherTwox64Concat},
		"v9 out of range":        {version: 9, b: 5, err: ErrInvalidHasher},
		"v10 blake2_128concat":   {version: 10, b: 2, hasher: HasherBlake2_128Concat},
		"v10 twox64concat":       {version: 10, b: 5, hasher: HasherTwox64Concat},
		"v10 identity not yet":   {version: 10, b: 6, err: ErrInvalidHasher},
		"v11 identity":           {version: 11, b: 6, hasher: HasherIdentity},
		"v13 blake2_256":         {version: 13, b: 1, hasher: HasherBlake2_256},
		"v8 twox128 second slot": {version: 8, b: 2, hasher: HasherTwox128},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := scale.NewReader([]byte{testCase.b})
			hasher, err := decodeHasher(r, testCase.version)
			if testCase.err != nil {
				assert.ErrorIs(t, err, testCase.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.hasher, hasher)
		})
	}
}

func Test_Decode_legacy_signedExtensions(t *testing.T) {
	t.Parallel()

	modules := []moduleFixture{{name: "System"}}
	meta, err := Decode(encodeMetadataFixture(11, modules,
		"CheckEra", "CheckNonce", "ChargeTransactionPayment"))
	require.NoError(t, err)

	require.NotNil(t, meta.Extrinsics)
	assert.Equal(t, uint8(4), meta.Extrinsics.Version)
	assert.Equal(t, []string{"CheckEra", "CheckNonce", "ChargeTransactionPayment"},
		meta.Extrinsics.SignedExtensions)

	// below v11 there is no extrinsic metadata
	meta, err = Decode(encodeMetadataFixture(10, modules))
	require.NoError(t, err)
	assert.Nil(t, meta.Extrinsics)
}

func Test_Metadata_StorageLookupTable(t *testing.T) {
	t.Parallel()

	modules := []moduleFixture{{
		name: "System",
		storage: &storageFixture{
			prefix:  "System",
			entries: []storageEntryFixture{plainEntry("Number", "u32")},
		},
	}}

	meta, err := Decode(encodeMetadataFixture(11, modules))
	require.NoError(t, err)

	table, err := meta.StorageLookupTable()
	require.NoError(t, err)

	prefix, err := GenerateStoragePrefix("System Number")
	require.NoError(t, err)
	require.Len(t, prefix, 32)

	key := append(append([]byte{}, prefix...), 0xaa, 0xbb)
	info, extra := table.MetaForKey(key)
	require.NotNil(t, info)
	assert.Equal(t, "System", info.Module.Name)
	assert.Equal(t, "Number", info.EntryName)
	assert.Equal(t, []byte{0xaa, 0xbb}, extra)

	info, _ = table.MetaForKey([]byte{0x01, 0x02, 0x03})
	assert.Nil(t, info)
}
