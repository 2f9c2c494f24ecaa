// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package decoder

import (
	"testing"

	"github.com/ChainSafe/desub/pkg/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(data []byte) *decodeState {
	return &decodeState{reader: scale.NewReader(data)}
}

func Test_decodeEra(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		input []byte
		era   Era
		err   error
	}{
		"immortal": {
			input: []byte{0x00},
			era:   Era{Immortal: true},
		},
		"period 64 phase 5": {
			input: []byte{0x55, 0x00},
			era:   Era{Period: 64, Phase: 5},
		},
		"period 32768 phase 20000": {
			// exponent 14, quantized phase 2500
			input: []byte{0x4e, 0x9c},
			era:   Era{Period: 32768, Phase: 20000},
		},
		"phase out of period": {
			input: []byte{0xf3, 0xff},
			err:   ErrInvalidEra,
		},
		"truncated": {
			input: []byte{0x55},
			err:   scale.ErrEndOfData,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			value, err := newTestState(testCase.input).decodeEra()
			if testCase.err != nil {
				assert.ErrorIs(t, err, testCase.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.era, value)
		})
	}
}

func Test_decodeLegacyAddress(t *testing.T) {
	t.Parallel()

	account := make([]byte, 32)
	for i := range account {
		account[i] = byte(i)
	}

	testCases := map[string]struct {
		input   []byte
		address Address
		err     error
	}{
		"inline index": {
			input:   []byte{0x2a},
			address: Address{Kind: "index", Index: 42},
		},
		"u16 index": {
			input:   []byte{0xfc, 0x2c, 0x01},
			address: Address{Kind: "index", Index: 300},
		},
		"non-canonical u16 index": {
			input: []byte{0xfc, 0x0a, 0x00},
			err:   ErrInvalidAddress,
		},
		"u32 index": {
			input:   []byte{0xfd, 0x00, 0x00, 0x01, 0x00},
			address: Address{Kind: "index", Index: 0x10000},
		},
		"account id": {
			input: append([]byte{0xff}, account...),
		},
		"reserved byte": {
			input: []byte{0xf0},
			err:   ErrInvalidAddress,
		},
		"truncated account": {
			input: []byte{0xff, 0x01, 0x02},
			err:   scale.ErrEndOfData,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			value, err := newTestState(testCase.input).decodeLegacyAddress()
			if testCase.err != nil {
				assert.ErrorIs(t, err, testCase.err)
				return
			}
			require.NoError(t, err)
			address, ok := value.(Address)
			require.True(t, ok)
			if address.Kind == "id" {
				assert.Equal(t, account, address.AccountID[:])
				return
			}
			assert.Equal(t, testCase.address, address)
		})
	}
}

func Test_decodeMultiAddress(t *testing.T) {
	t.Parallel()

	account := make([]byte, 32)
	account[0] = 0xab

	value, err := newTestState(append([]byte{0x00}, account...)).decodeMultiAddress()
	require.NoError(t, err)
	address := value.(Address)
	assert.Equal(t, "id", address.Kind)
	assert.Equal(t, account, address.AccountID[:])

	value, err = newTestState([]byte{0x01, 0x04}).decodeMultiAddress()
	require.NoError(t, err)
	assert.Equal(t, Address{Kind: "index", Index: 1}, value)

	value, err = newTestState([]byte{0x02, 0x08, 0xde, 0xad}).decodeMultiAddress()
	require.NoError(t, err)
	assert.Equal(t, Address{Kind: "raw", Raw: []byte{0xde, 0xad}}, value)

	twenty := make([]byte, 20)
	value, err = newTestState(append([]byte{0x04}, twenty...)).decodeMultiAddress()
	require.NoError(t, err)
	assert.Equal(t, "address20", value.(Address).Kind)

	_, err = newTestState([]byte{0x05}).decodeMultiAddress()
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func Test_decodeData(t *testing.T) {
	t.Parallel()

	value, err := newTestState([]byte{0x00}).decodeData()
	require.NoError(t, err)
	assert.Equal(t, Data{Kind: "none"}, value)

	value, err = newTestState([]byte{0x05, 'a', 'l', 'i', 'c'}).decodeData()
	require.NoError(t, err)
	assert.Equal(t, Data{Kind: "raw", Bytes: []byte("alic")}, value)

	hash := make([]byte, 32)
	value, err = newTestState(append([]byte{34}, hash...)).decodeData()
	require.NoError(t, err)
	assert.Equal(t, "blake2b256", value.(Data).Kind)

	value, err = newTestState(append([]byte{37}, hash...)).decodeData()
	require.NoError(t, err)
	assert.Equal(t, "sha3_256", value.(Data).Kind)

	_, err = newTestState([]byte{38}).decodeData()
	assert.ErrorIs(t, err, ErrInvalidData)
}

func Test_decodeVote(t *testing.T) {
	t.Parallel()

	value, err := newTestState([]byte{0x86}).decodeVote()
	require.NoError(t, err)
	assert.Equal(t, Vote{Aye: true, Conviction: 6}, value)

	value, err = newTestState([]byte{0x01}).decodeVote()
	require.NoError(t, err)
	assert.Equal(t, Vote{Aye: false, Conviction: 1}, value)

	_, err = newTestState([]byte{0x87}).decodeVote()
	assert.ErrorIs(t, err, ErrInvalidVote)
}
