// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package decoder turns SCALE encoded extrinsics, storage keys and
// storage values into structured values, driven by decoded runtime
// metadata and a type name resolver.
package decoder

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ChainSafe/desub/lib/common"
	"github.com/ChainSafe/desub/pkg/scale"
)

// Value is one decoded SCALE value. Every concrete value renders
// itself for logs through String and for output through MarshalJSON.
type Value interface {
	fmt.Stringer
	json.Marshaler
}

// Null is the unit value.
type Null struct{}

func (Null) String() string               { return "()" }
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Bool is a decoded bool.
type Bool bool

func (v Bool) String() string               { return fmt.Sprintf("%t", bool(v)) }
func (v Bool) MarshalJSON() ([]byte, error) { return json.Marshal(bool(v)) }

// Unsigned fixed width integers.
type (
	U8  uint8
	U16 uint16
	U32 uint32
	U64 uint64
)

func (v U8) String() string  { return fmt.Sprintf("%d", uint8(v)) }
func (v U16) String() string { return fmt.Sprintf("%d", uint16(v)) }
func (v U32) String() string { return fmt.Sprintf("%d", uint32(v)) }
func (v U64) String() string { return fmt.Sprintf("%d", uint64(v)) }

func (v U8) MarshalJSON() ([]byte, error)  { return json.Marshal(uint8(v)) }
func (v U16) MarshalJSON() ([]byte, error) { return json.Marshal(uint16(v)) }
func (v U32) MarshalJSON() ([]byte, error) { return json.Marshal(uint32(v)) }
func (v U64) MarshalJSON() ([]byte, error) { return json.Marshal(uint64(v)) }

// Signed fixed width integers.
type (
	I8  int8
	I16 int16
	I32 int32
	I64 int64
)

func (v I8) String() string  { return fmt.Sprintf("%d", int8(v)) }
func (v I16) String() string { return fmt.Sprintf("%d", int16(v)) }
func (v I32) String() string { return fmt.Sprintf("%d", int32(v)) }
func (v I64) String() string { return fmt.Sprintf("%d", int64(v)) }

func (v I8) MarshalJSON() ([]byte, error)  { return json.Marshal(int8(v)) }
func (v I16) MarshalJSON() ([]byte, error) { return json.Marshal(int16(v)) }
func (v I32) MarshalJSON() ([]byte, error) { return json.Marshal(int32(v)) }
func (v I64) MarshalJSON() ([]byte, error) { return json.Marshal(int64(v)) }

// BigInt holds 128 and 256 bit integers and compact encoded values.
// It marshals as a decimal string since the magnitudes overflow JSON
// numbers.
type BigInt struct {
	Int *big.Int
}

func NewBigInt(i *big.Int) BigInt { return BigInt{Int: i} }

func (v BigInt) String() string               { return v.Int.String() }
func (v BigInt) MarshalJSON() ([]byte, error) { return json.Marshal(v.Int.String()) }

// Str is a decoded utf-8 string.
type Str string

func (v Str) String() string               { return string(v) }
func (v Str) MarshalJSON() ([]byte, error) { return json.Marshal(string(v)) }

// Bytes is a raw byte value, rendered as 0x prefixed hex.
type Bytes []byte

func (v Bytes) String() string               { return "0x" + hex.EncodeToString(v) }
func (v Bytes) MarshalJSON() ([]byte, error) { return json.Marshal(v.String()) }

// AccountID is a 32 byte public key, rendered as an ss58 address.
type AccountID [32]byte

func (v AccountID) String() string {
	address, err := common.SS58Encode(v[:], common.SubstrateAddressType)
	if err != nil {
		return "0x" + hex.EncodeToString(v[:])
	}
	return address
}

func (v AccountID) MarshalJSON() ([]byte, error) { return json.Marshal(v.String()) }

// Seq is a decoded Vec or fixed length array.
type Seq []Value

func (v Seq) String() string {
	elems := make([]string, len(v))
	for i, elem := range v {
		elems[i] = elem.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

func (v Seq) MarshalJSON() ([]byte, error) { return json.Marshal([]Value(v)) }

// Tuple is a decoded tuple.
type Tuple []Value

func (v Tuple) String() string {
	elems := make([]string, len(v))
	for i, elem := range v {
		elems[i] = elem.String()
	}
	return "(" + strings.Join(elems, ", ") + ")"
}

func (v Tuple) MarshalJSON() ([]byte, error) { return json.Marshal([]Value(v)) }

// StructField is one named member of a decoded struct.
type StructField struct {
	Name  string
	Value Value
}

// Struct is a decoded composite with named fields. Field order is
// the declaration order.
type Struct []StructField

func (v Struct) String() string {
	elems := make([]string, len(v))
	for i, field := range v {
		elems[i] = field.Name + ": " + field.Value.String()
	}
	return "{" + strings.Join(elems, ", ") + "}"
}

func (v Struct) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, field := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(field.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Enum is a decoded enum arm. Value is Null for unit variants.
type Enum struct {
	Name  string
	Value Value
}

func (v Enum) String() string {
	if _, unit := v.Value.(Null); unit {
		return v.Name
	}
	return v.Name + "(" + v.Value.String() + ")"
}

func (v Enum) MarshalJSON() ([]byte, error) {
	if _, unit := v.Value.(Null); unit {
		return json.Marshal(v.Name)
	}
	return json.Marshal(map[string]Value{v.Name: v.Value})
}

// Option is a decoded Option. Inner is nil for None.
type Option struct {
	Inner Value
}

func (v Option) String() string {
	if v.Inner == nil {
		return "None"
	}
	return "Some(" + v.Inner.String() + ")"
}

func (v Option) MarshalJSON() ([]byte, error) {
	if v.Inner == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.Inner)
}

// Result is a decoded Result.
type Result struct {
	OK    bool
	Inner Value
}

func (v Result) String() string {
	if v.OK {
		return "Ok(" + v.Inner.String() + ")"
	}
	return "Err(" + v.Inner.String() + ")"
}

func (v Result) MarshalJSON() ([]byte, error) {
	key := "err"
	if v.OK {
		key = "ok"
	}
	return json.Marshal(map[string]Value{key: v.Inner})
}

// Set is a decoded bitset enum: the names of the set members plus
// the raw encoded value.
type Set struct {
	Members []string
	Raw     uint64
}

func (v Set) String() string { return "{" + strings.Join(v.Members, ", ") + "}" }

func (v Set) MarshalJSON() ([]byte, error) { return json.Marshal(v.Members) }

// BitVecValue is a decoded bit vector.
type BitVecValue struct {
	BitVec scale.BitVec
}

func (v BitVecValue) String() string               { return v.BitVec.String() }
func (v BitVecValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.BitVec.String()) }

// Era is a decoded transaction era.
type Era struct {
	Immortal bool
	Period   uint64
	Phase    uint64
}

func (v Era) String() string {
	if v.Immortal {
		return "Immortal"
	}
	return fmt.Sprintf("Mortal(period %d, phase %d)", v.Period, v.Phase)
}

func (v Era) MarshalJSON() ([]byte, error) {
	if v.Immortal {
		return json.Marshal("immortal")
	}
	return json.Marshal(map[string]uint64{"period": v.Period, "phase": v.Phase})
}

// Address is a decoded legacy or multi address.
type Address struct {
	// Kind is one of "id", "index", "raw", "address32", "address20".
	Kind string
	// AccountID is set for "id".
	AccountID AccountID
	// Index is set for "index".
	Index uint64
	// Raw is set for the remaining kinds.
	Raw []byte
}

func (v Address) String() string {
	switch v.Kind {
	case "id":
		return v.AccountID.String()
	case "index":
		return fmt.Sprintf("index %d", v.Index)
	default:
		return "0x" + hex.EncodeToString(v.Raw)
	}
}

func (v Address) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case "id":
		return json.Marshal(map[string]string{"id": v.AccountID.String()})
	case "index":
		return json.Marshal(map[string]uint64{"index": v.Index})
	default:
		return json.Marshal(map[string]string{v.Kind: "0x" + hex.EncodeToString(v.Raw)})
	}
}

// Data is a decoded identity Data field.
type Data struct {
	// Kind is "none", "raw", "blake2b256", "sha256", "keccak256" or
	// "sha3_256".
	Kind  string
	Bytes []byte
}

func (v Data) String() string {
	if v.Kind == "none" {
		return "None"
	}
	return v.Kind + "(0x" + hex.EncodeToString(v.Bytes) + ")"
}

func (v Data) MarshalJSON() ([]byte, error) {
	if v.Kind == "none" {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]string{v.Kind: "0x" + hex.EncodeToString(v.Bytes)})
}

// Vote is a decoded democracy vote.
type Vote struct {
	Aye        bool
	Conviction uint8
}

func (v Vote) String() string {
	direction := "nay"
	if v.Aye {
		direction = "aye"
	}
	return fmt.Sprintf("%s (conviction %d)", direction, v.Conviction)
}

func (v Vote) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{"aye": v.Aye, "conviction": v.Conviction})
}

// Call is a decoded call: the target module and function plus the
// decoded arguments.
type Call struct {
	Module   string
	Function string
	Args     []StructField
}

func (v Call) String() string {
	args := make([]string, len(v.Args))
	for i, arg := range v.Args {
		args[i] = arg.Name + ": " + arg.Value.String()
	}
	return v.Module + "." + v.Function + "(" + strings.Join(args, ", ") + ")"
}

func (v Call) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"module":   v.Module,
		"function": v.Function,
		"args":     Struct(v.Args),
	})
}
