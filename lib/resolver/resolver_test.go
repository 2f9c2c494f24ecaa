// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package resolver

import (
	"testing"

	"github.com/ChainSafe/desub/lib/typedesc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Default(t *testing.T) {
	t.Parallel()

	r, err := Default()
	require.NoError(t, err)

	assert.Equal(t, typedesc.NewPrimitive(typedesc.U128),
		r.Get("kusama", 1050, "balances", "Balance"))
	assert.Equal(t, typedesc.NewPointer("GenericAddress"),
		r.Get("kusama", 1050, "balances", "Address"))
}

func Test_TypeResolver_Get(t *testing.T) {
	t.Parallel()

	definitions := []byte(`{
		"runtime": {
			"types": {
				"Balance": "u128",
				"Shared": "u32"
			}
		},
		"balances": {
			"types": {
				"Shared": "u64",
				"Pair": "(u8, Balance)",
				"Reasons": {"_enum": ["Fee", "Misc", "All"]},
				"Lock": {"id": "[u8; 8]", "amount": "Balance"}
			}
		},
		"staking": {
			"types": {"EraIndex": "u32"}
		}
	}`)
	overrides := []byte(`{
		"kusama": [
			{"minmax": [100, 200], "types": {"Balance": "u64"}}
		]
	}`)

	r, err := New(definitions, overrides, nil)
	require.NoError(t, err)

	testCases := map[string]struct {
		chain  string
		spec   uint32
		module string
		name   string
		ty     *typedesc.Type
	}{
		"runtime type": {
			chain: "kusama", spec: 1050, module: "balances", name: "Balance",
			ty: typedesc.NewPrimitive(typedesc.U128),
		},
		"module wins over runtime": {
			chain: "kusama", spec: 1050, module: "balances", name: "Shared",
			ty: typedesc.NewPrimitive(typedesc.U64),
		},
		"override wins in range": {
			chain: "kusama", spec: 150, module: "balances", name: "Balance",
			ty: typedesc.NewPrimitive(typedesc.U64),
		},
		"override ignored out of range": {
			chain: "kusama", spec: 201, module: "balances", name: "Balance",
			ty: typedesc.NewPrimitive(typedesc.U128),
		},
		"override ignored for other chain": {
			chain: "polkadot", spec: 150, module: "balances", name: "Balance",
			ty: typedesc.NewPrimitive(typedesc.U128),
		},
		"other module scanned": {
			chain: "kusama", spec: 1050, module: "balances", name: "EraIndex",
			ty: typedesc.NewPrimitive(typedesc.U32),
		},
		"name sanitized": {
			chain: "kusama", spec: 1050, module: "balances", name: "T::Balance",
			ty: typedesc.NewPrimitive(typedesc.U128),
		},
		"module name case insensitive": {
			chain: "kusama", spec: 1050, module: "Balances", name: "Shared",
			ty: typedesc.NewPrimitive(typedesc.U64),
		},
		"unknown": {
			chain: "kusama", spec: 1050, module: "balances", name: "NoSuchType",
		},
		"tuple definition": {
			chain: "kusama", spec: 1050, module: "balances", name: "Pair",
			ty: typedesc.NewTuple(
				typedesc.NewPrimitive(typedesc.U8),
				typedesc.NewPointer("Balance")),
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ty := r.Get(testCase.chain, testCase.spec, testCase.module, testCase.name)
			assert.Equal(t, testCase.ty, ty)
			// cached lookups answer the same
			assert.Equal(t, testCase.ty,
				r.Get(testCase.chain, testCase.spec, testCase.module, testCase.name))
		})
	}
}

func Test_TypeResolver_Get_shapes(t *testing.T) {
	t.Parallel()

	r, err := Default()
	require.NoError(t, err)

	reasons := r.Get("kusama", 2000, "balances", "Reasons")
	require.NotNil(t, reasons)
	assert.Equal(t, typedesc.KindVariant, reasons.Kind)
	require.Len(t, reasons.Variants, 3)
	assert.Equal(t, "Fee", reasons.Variants[0].Name)
	assert.Empty(t, reasons.Variants[0].Fields)

	dispatchError := r.Get("kusama", 2000, "system", "DispatchError")
	require.NotNil(t, dispatchError)
	require.Equal(t, typedesc.KindVariant, dispatchError.Kind)
	assert.Equal(t, "Module", dispatchError.Variants[3].Name)
	require.Len(t, dispatchError.Variants[3].Fields, 1)
	assert.Equal(t, typedesc.NewPointer("DispatchErrorModule"),
		dispatchError.Variants[3].Fields[0].Ty)

	withdrawReasons := r.Get("kusama", 2000, "balances", "WithdrawReasons")
	require.NotNil(t, withdrawReasons)
	require.Equal(t, typedesc.KindSet, withdrawReasons.Kind)
	assert.Equal(t, 1, withdrawReasons.SetWidth)
	assert.Equal(t, typedesc.SetField{Name: "Transfer", Bit: 2}, withdrawReasons.Sets[1])

	lock := r.Get("kusama", 2100, "balances", "BalanceLock")
	require.NotNil(t, lock)
	require.Equal(t, typedesc.KindComposite, lock.Kind)
	require.Len(t, lock.Fields, 3)
	assert.Equal(t, "id", lock.Fields[0].Name)
	assert.Equal(t, "amount", lock.Fields[1].Name)
	assert.Equal(t, "reasons", lock.Fields[2].Name)
}

func Test_TypeResolver_TryFallback(t *testing.T) {
	t.Parallel()

	r, err := Default()
	require.NoError(t, err)

	fallback := r.TryFallback("balances", "BalanceLock")
	require.NotNil(t, fallback)
	require.Equal(t, typedesc.KindComposite, fallback.Kind)
	require.Len(t, fallback.Fields, 4)
	assert.Equal(t, "until", fallback.Fields[2].Name)

	assert.Nil(t, r.TryFallback("balances", "NoSuchType"))
}

func Test_TypeResolver_GetExtrinsicType(t *testing.T) {
	t.Parallel()

	r, err := Default()
	require.NoError(t, err)

	signature := r.GetExtrinsicType("kusama", 1050, "signature")
	require.NotNil(t, signature)
	require.Equal(t, typedesc.KindComposite, signature.Kind)
	require.Len(t, signature.Fields, 3)
	assert.Equal(t, "address", signature.Fields[0].Name)
	assert.Equal(t, "signature", signature.Fields[1].Name)
	assert.Equal(t, "extra", signature.Fields[2].Name)

	era := r.GetExtrinsicType("kusama", 1050, "CheckMortality")
	assert.Equal(t, typedesc.NewPointer("Era"), era)

	weight := r.GetExtrinsicType("kusama", 1050, "CheckWeight")
	assert.Equal(t, typedesc.NewNull(), weight)

	assert.Nil(t, r.GetExtrinsicType("kusama", 1050, "NoSuchExtension"))
}

func Test_New_malformed(t *testing.T) {
	t.Parallel()

	_, err := New([]byte(`not json`), nil, nil)
	assert.ErrorIs(t, err, ErrBadDictionary)

	_, err = New([]byte(`{}`), []byte(`{"kusama": "wrong"}`), nil)
	assert.ErrorIs(t, err, ErrBadDictionary)
}

func Test_parseDef(t *testing.T) {
	t.Parallel()

	ty, err := parseDef([]byte(`"Vec<u8>"`))
	require.NoError(t, err)
	assert.Equal(t, typedesc.NewSequence(typedesc.NewPrimitive(typedesc.U8)), ty)

	_, err = parseDef([]byte(`"[f32; 4]"`))
	assert.ErrorIs(t, err, ErrBadDefinition)

	ty, err = parseDef([]byte(`null`))
	require.NoError(t, err)
	assert.Equal(t, typedesc.NewNull(), ty)

	ty, err = parseDef([]byte(`{"_enum": {"A": null, "B": "u8"}}`))
	require.NoError(t, err)
	require.Equal(t, typedesc.KindVariant, ty.Kind)
	assert.Empty(t, ty.Variants[0].Fields)
	require.Len(t, ty.Variants[1].Fields, 1)
}
