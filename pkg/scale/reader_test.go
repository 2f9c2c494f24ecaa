// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package scale

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Reader_DecodeCompact_boundaries(t *testing.T) {
	t.Parallel()

	// one value either side of each compact mode switch
	values := []uint64{
		0, 1, 63,
		64, 16383,
		16384, 1<<30 - 1,
		1 << 30, 1<<32 - 1, 1<<32 + 5, 1<<63 + 7,
	}

	for _, value := range values {
		encoded := EncodeCompact(value)
		r := NewReader(encoded)

		decoded, err := r.DecodeCompactUint64()
		require.NoError(t, err, "value %d", value)
		assert.Equal(t, value, decoded)
		assert.Zero(t, r.Remaining(), "value %d leaves %d bytes", value, r.Remaining())
	}
}

func Test_Reader_DecodeCompact_modes(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		encoded []byte
		value   uint64
	}{
		"single byte zero":   {encoded: []byte{0x00}, value: 0},
		"single byte max":    {encoded: []byte{0xfc}, value: 63},
		"two byte min":       {encoded: []byte{0x01, 0x01}, value: 64},
		"two byte max":       {encoded: []byte{0xfd, 0xff}, value: 16383},
		"four byte min":      {encoded: []byte{0x02, 0x00, 0x01, 0x00}, value: 16384},
		"four byte max":      {encoded: []byte{0xfe, 0xff, 0xff, 0xff}, value: 1<<30 - 1},
		"big integer mode":   {encoded: []byte{0x03, 0x00, 0x00, 0x00, 0x40}, value: 1 << 30},
		"big integer 5 byte": {encoded: []byte{0x07, 0xff, 0xff, 0xff, 0xff, 0xff}, value: 1<<40 - 1},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			value, err := NewReader(testCase.encoded).DecodeCompactUint64()
			require.NoError(t, err)
			assert.Equal(t, testCase.value, value)
		})
	}
}

func Test_Reader_DecodeCompact_big(t *testing.T) {
	t.Parallel()

	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10) // 2^128-1
	require.True(t, ok)

	encoded := EncodeCompactBig(huge)
	decoded, err := NewReader(encoded).DecodeCompact()
	require.NoError(t, err)
	assert.Zero(t, huge.Cmp(decoded))

	_, err = NewReader(encoded).DecodeCompactUint64()
	assert.ErrorIs(t, err, ErrCompactOverflow)
}

func Test_Reader_DecodeBool(t *testing.T) {
	t.Parallel()

	value, err := NewReader([]byte{0x00}).DecodeBool()
	require.NoError(t, err)
	assert.False(t, value)

	value, err = NewReader([]byte{0x01}).DecodeBool()
	require.NoError(t, err)
	assert.True(t, value)

	_, err = NewReader([]byte{0x02}).DecodeBool()
	assert.ErrorIs(t, err, ErrInvalidBool)
}

func Test_Reader_fixedWidth(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{
		0x2a,
		0x34, 0x12,
		0x78, 0x56, 0x34, 0x12,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f,
	})

	u8, err := r.DecodeUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(42), u8)

	u16, err := r.DecodeUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.DecodeUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	i64, err := r.DecodeInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(0x7fffffffffffffff), i64)

	assert.Zero(t, r.Remaining())
}

func Test_Reader_endOfData(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{0x01, 0x02})

	_, err := r.DecodeUint32()
	assert.ErrorIs(t, err, ErrEndOfData)
	assert.ErrorContains(t, err, "at offset 0")

	// a failed read consumes nothing
	u16, err := r.DecodeUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), u16)
}

func Test_Reader_DecodeByteSlice(t *testing.T) {
	t.Parallel()

	encoded := EncodeBytes([]byte{0xaa, 0xbb, 0xcc})
	b, err := NewReader(encoded).DecodeByteSlice()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, b)

	// declared length longer than the remaining data
	_, err = NewReader([]byte{0x10, 0xaa}).DecodeByteSlice()
	assert.ErrorIs(t, err, ErrEndOfData)
}

func Test_Reader_DecodeString(t *testing.T) {
	t.Parallel()

	s, err := NewReader(EncodeString("Balances")).DecodeString()
	require.NoError(t, err)
	assert.Equal(t, "Balances", s)
}

func Test_Reader_DecodeUint128(t *testing.T) {
	t.Parallel()

	le := []byte{
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	u, err := NewReader(le).DecodeUint128()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u.Lower)
	assert.Equal(t, uint64(2), u.Upper)

	expected, ok := new(big.Int).SetString("36893488147419103233", 10) // 2*2^64 + 1
	require.True(t, ok)
	assert.Zero(t, expected.Cmp(u.Big()))
}
