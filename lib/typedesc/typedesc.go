// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package typedesc models the closed grammar of SCALE decodable
// types shared by every metadata generation, along with the parser
// turning legacy metadata type strings into grammar nodes.
package typedesc

import (
	"fmt"
	"strings"
)

// Kind discriminates the Type union.
type Kind uint8

const (
	// KindNull is the unit type, encoding zero bytes.
	KindNull Kind = iota
	// KindPrimitive is a fixed width integer, bool, char or string.
	KindPrimitive
	// KindCompact is a compact encoded integer.
	KindCompact
	// KindSequence is a length prefixed homogeneous list (Vec).
	KindSequence
	// KindArray is a fixed length run of elements with no prefix.
	KindArray
	// KindTuple is a heterogeneous run of unnamed fields.
	KindTuple
	// KindComposite is a struct with all-named or all-unnamed fields.
	KindComposite
	// KindVariant is an enum selected by a discriminant byte.
	KindVariant
	// KindOption is a 0x00/0x01 tagged optional value.
	KindOption
	// KindResult is a 0x00/0x01 tagged ok-or-error value.
	KindResult
	// KindGeneric is an outer type with type parameters; only the
	// outer type determines the decoded shape.
	KindGeneric
	// KindPointer is a name to be resolved through a Resolver.
	KindPointer
	// KindBitSequence is a compact length prefixed bit vector.
	KindBitSequence
	// KindSet is a C-like bitset enum.
	KindSet
	// KindRef is an index into a portable type registry.
	KindRef
)

// Primitive enumerates the leaf types of the grammar.
type Primitive uint8

const (
	Bool Primitive = iota
	Char
	Str
	U8
	U16
	U32
	U64
	U128
	U256
	I8
	I16
	I32
	I64
	I128
	I256
)

func (p Primitive) String() string {
	switch p {
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Str:
		return "str"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case U128:
		return "u128"
	case U256:
		return "u256"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case I128:
		return "i128"
	case I256:
		return "i256"
	default:
		return "?"
	}
}

// Field is a named or unnamed member of a composite or variant.
type Field struct {
	Name string // empty when unnamed
	Ty   *Type
}

// Variant is one arm of an enum. Index is the explicit discriminant
// declared by v14 metadata; it is nil for legacy metadata where the
// discriminant byte is the position in the declaration order.
type Variant struct {
	Name   string
	Index  *uint8
	Fields []Field
}

// SetField is one member of a C-like bitset enum.
type SetField struct {
	Name string
	Bit  uint64
}

// Type is one node of the decodable type grammar. Exactly the
// fields relevant to Kind are set.
type Type struct {
	Kind     Kind
	Prim     Primitive  // KindPrimitive
	Inner    *Type      // Compact, Sequence, Array, Option elem; Result ok
	Second   *Type      // Result err
	Len      uint32     // KindArray
	Fields   []Field    // KindTuple, KindComposite
	Variants []Variant  // KindVariant
	Sets     []SetField // KindSet
	SetWidth int        // KindSet encoded byte width, defaults to 1
	Name     string     // KindPointer, KindGeneric outer, composite name when known
	Ref      int        // KindRef registry id
}

// Constructors for each grammar node.

func NewNull() *Type                 { return &Type{Kind: KindNull} }
func NewPrimitive(p Primitive) *Type { return &Type{Kind: KindPrimitive, Prim: p} }
func NewCompact(inner *Type) *Type   { return &Type{Kind: KindCompact, Inner: inner} }
func NewSequence(elem *Type) *Type   { return &Type{Kind: KindSequence, Inner: elem} }
func NewOption(inner *Type) *Type    { return &Type{Kind: KindOption, Inner: inner} }
func NewPointer(name string) *Type   { return &Type{Kind: KindPointer, Name: name} }
func NewBitSequence() *Type          { return &Type{Kind: KindBitSequence} }
func NewRef(id int) *Type            { return &Type{Kind: KindRef, Ref: id} }

func NewArray(elem *Type, length uint32) *Type {
	return &Type{Kind: KindArray, Inner: elem, Len: length}
}

func NewResult(ok, errTy *Type) *Type {
	return &Type{Kind: KindResult, Inner: ok, Second: errTy}
}

func NewTuple(elems ...*Type) *Type {
	fields := make([]Field, len(elems))
	for i, elem := range elems {
		fields[i] = Field{Ty: elem}
	}
	return &Type{Kind: KindTuple, Fields: fields}
}

func NewComposite(fields ...Field) *Type {
	return &Type{Kind: KindComposite, Fields: fields}
}

func NewVariantType(variants ...Variant) *Type {
	return &Type{Kind: KindVariant, Variants: variants}
}

func NewGeneric(outer string, inner *Type) *Type {
	return &Type{Kind: KindGeneric, Name: outer, Inner: inner}
}

func NewSet(width int, fields ...SetField) *Type {
	return &Type{Kind: KindSet, Sets: fields, SetWidth: width}
}

// String renders the type in source form, for logs and errors.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindNull:
		return "()"
	case KindPrimitive:
		return t.Prim.String()
	case KindCompact:
		return "Compact<" + t.Inner.String() + ">"
	case KindSequence:
		return "Vec<" + t.Inner.String() + ">"
	case KindArray:
		return fmt.Sprintf("[%s; %d]", t.Inner, t.Len)
	case KindOption:
		return "Option<" + t.Inner.String() + ">"
	case KindResult:
		return "Result<" + t.Inner.String() + ", " + t.Second.String() + ">"
	case KindTuple:
		elems := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			elems[i] = f.Ty.String()
		}
		return "(" + strings.Join(elems, ", ") + ")"
	case KindComposite:
		if t.Name != "" {
			return t.Name
		}
		return "struct{" + fmt.Sprint(len(t.Fields)) + " fields}"
	case KindVariant:
		if t.Name != "" {
			return t.Name
		}
		return "enum{" + fmt.Sprint(len(t.Variants)) + " variants}"
	case KindGeneric:
		return t.Name + "<" + t.Inner.String() + ">"
	case KindPointer:
		return t.Name
	case KindBitSequence:
		return "BitVec"
	case KindSet:
		return "set{" + fmt.Sprint(len(t.Sets)) + " members}"
	case KindRef:
		return fmt.Sprintf("#%d", t.Ref)
	default:
		return "<unknown>"
	}
}

// StaticSize returns the encoded byte width of the type when it is
// statically known. The resolve callback maps KindRef ids to their
// registry types and may be nil when no registry is in scope.
// The second return is false for any type whose width depends on
// the encoded value.
func (t *Type) StaticSize(resolve func(id int) *Type) (size int, ok bool) {
	switch t.Kind {
	case KindNull:
		return 0, true
	case KindPrimitive:
		switch t.Prim {
		case Bool, U8, I8:
			return 1, true
		case U16, I16:
			return 2, true
		case U32, I32, Char:
			return 4, true
		case U64, I64:
			return 8, true
		case U128, I128:
			return 16, true
		case U256, I256:
			return 32, true
		default:
			return 0, false
		}
	case KindArray:
		elemSize, ok := t.Inner.StaticSize(resolve)
		return elemSize * int(t.Len), ok
	case KindTuple, KindComposite:
		total := 0
		for _, f := range t.Fields {
			fieldSize, ok := f.Ty.StaticSize(resolve)
			if !ok {
				return 0, false
			}
			total += fieldSize
		}
		return total, true
	case KindSet:
		return t.SetWidth, true
	case KindRef:
		if resolve == nil {
			return 0, false
		}
		resolved := resolve(t.Ref)
		if resolved == nil {
			return 0, false
		}
		return resolved.StaticSize(resolve)
	default:
		return 0, false
	}
}
