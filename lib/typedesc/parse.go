// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package typedesc

import (
	"regexp"
	"strconv"
	"strings"
)

// The grammar of type strings found in metadata below v14. Patterns
// are tried in a fixed order; the first one matching wins, and any
// name matching none of them becomes a type pointer for the
// resolver to look up.
var (
	// [u8; 32]
	arrayPrimRegex = regexp.MustCompile(`^\[ *([uif])(8|16|32|64|128)? *; *(\d+) *\]`)
	// [u8; 20; H160] with the trailing type name discarded
	arrayExtraRegex = regexp.MustCompile(`^\[ *([uif])(8|16|32|64|128)? *; *(\d+) *; *[\d\w]* *\]`)
	// UInt<64, Balance>
	bitSizeRegex = regexp.MustCompile(`^(Int|UInt)<(\d+), *[\w\d]+>`)
	// [Foo<Bar>; 10]
	arrayStructRegex = regexp.MustCompile(`^\[ *([\w><]+) *; *(\d+) *\]`)
	vecRegex         = regexp.MustCompile(`^Vec<([\w><,():;\[\] ]+)>`)
	optionRegex      = regexp.MustCompile(`^Option<([\w><,(): ]+)>`)
	resultRegex      = regexp.MustCompile(`^Result<(\(?[\w><,: ]*\)?), *(\(?[\w><, ]*\)?)>`)
	compactRegex     = regexp.MustCompile(`^Compact<([\w><,(): ]+)>`)
	boxRegex         = regexp.MustCompile(`^Box<([\w><,(): ]+)>`)
	genericRegex     = regexp.MustCompile(`\b(\w+)<([\w<>,: ]+)>`)
)

// outer types whose shape is already handled by a dedicated
// pattern; the generic pattern must not swallow them.
func isWrapperName(name string) bool {
	switch name {
	case "Vec", "Option", "Compact", "Box":
		return true
	default:
		return false
	}
}

// maxTupleArity is the largest tuple the grammar accepts.
const maxTupleArity = 32

// ParseType parses a metadata type string into a grammar node.
// It returns nil when the string cannot be parsed.
func ParseType(s string) *Type {
	s = strings.TrimSpace(s)

	switch s {
	case "u8":
		return NewPrimitive(U8)
	case "u16":
		return NewPrimitive(U16)
	case "u32":
		return NewPrimitive(U32)
	case "u64":
		return NewPrimitive(U64)
	case "u128":
		return NewPrimitive(U128)
	case "i8":
		return NewPrimitive(I8)
	case "i16":
		return NewPrimitive(I16)
	case "i32":
		return NewPrimitive(I32)
	case "i64":
		return NewPrimitive(I64)
	case "i128":
		return NewPrimitive(I128)
	case "bool":
		return NewPrimitive(Bool)
	case "Null", "()":
		return NewNull()
	case "":
		return nil
	}

	// A pattern match is final: if its contents fail to parse the
	// whole string is invalid rather than a type pointer.
	if t, matched := parsePrimitiveArray(s); matched {
		return t
	}
	if t, matched := parseBitSize(s); matched {
		return t
	}
	if t, matched := parseStructArray(s); matched {
		return t
	}
	if t, matched := parseWrapped(s, vecRegex, NewSequence); matched {
		return t
	}
	if t, matched := parseWrapped(s, optionRegex, NewOption); matched {
		return t
	}
	if t, matched := parseResult(s); matched {
		return t
	}
	if t, matched := parseWrapped(s, compactRegex, NewCompact); matched {
		return t
	}
	if t, matched := parseBox(s); matched {
		return t
	}
	if t, matched := parseTuple(s); matched {
		return t
	}
	if t, matched := parseGeneric(s); matched {
		return t
	}

	return NewPointer(s)
}

func parsePrimitiveArray(s string) (t *Type, matched bool) {
	m := arrayPrimRegex.FindStringSubmatch(s)
	if m == nil {
		m = arrayExtraRegex.FindStringSubmatch(s)
	}
	if m == nil {
		return nil, false
	}

	var prim Primitive
	switch m[1] + m[2] {
	case "u8":
		prim = U8
	case "u16":
		prim = U16
	case "u32":
		prim = U32
	case "u64":
		prim = U64
	case "u128":
		prim = U128
	case "i8":
		prim = I8
	case "i16":
		prim = I16
	case "i32":
		prim = I32
	case "i64":
		prim = I64
	case "i128":
		prim = I128
	default:
		return nil, true // no float or unsized primitives
	}

	size, err := strconv.ParseUint(m[3], 10, 32)
	if err != nil {
		return nil, true
	}
	return NewArray(NewPrimitive(prim), uint32(size)), true
}

// parseBitSize handles UInt<W, Name> and Int<W, Name> declarations.
// Non-standard widths decode as a raw byte array of W bytes.
func parseBitSize(s string) (t *Type, matched bool) {
	m := bitSizeRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}

	width, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return nil, true
	}

	signed := m[1] == "Int"
	switch width {
	case 8, 16, 32, 64, 128:
		unsignedPrims := map[uint64]Primitive{8: U8, 16: U16, 32: U32, 64: U64, 128: U128}
		signedPrims := map[uint64]Primitive{8: I8, 16: I16, 32: I32, 64: I64, 128: I128}
		if signed {
			return NewPrimitive(signedPrims[width]), true
		}
		return NewPrimitive(unsignedPrims[width]), true
	default:
		return NewArray(NewPrimitive(U8), uint32(width)), true
	}
}

func parseStructArray(s string) (t *Type, matched bool) {
	m := arrayStructRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}

	elem := ParseType(m[1])
	if elem == nil {
		return nil, true
	}
	size, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return nil, true
	}
	return NewArray(elem, uint32(size)), true
}

func parseWrapped(s string, re *regexp.Regexp, build func(*Type) *Type) (t *Type, matched bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	inner := ParseType(m[1])
	if inner == nil {
		return nil, true
	}
	return build(inner), true
}

func parseResult(s string) (t *Type, matched bool) {
	m := resultRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	okTy := ParseType(m[1])
	errTy := ParseType(m[2])
	if okTy == nil || errTy == nil {
		return nil, true
	}
	return NewResult(okTy, errTy), true
}

// parseBox unwraps Box<T>; boxing has no wire representation.
func parseBox(s string) (t *Type, matched bool) {
	m := boxRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	inner := ParseType(m[1])
	if inner == nil {
		return nil, true
	}
	return inner, true
}

func parseTuple(s string) (t *Type, matched bool) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, false
	}

	elems, balanced := splitTopLevel(s[1 : len(s)-1])
	if !balanced || len(elems) == 0 || len(elems) > maxTupleArity {
		return nil, true
	}

	types := make([]*Type, len(elems))
	for i, elem := range elems {
		types[i] = ParseType(elem)
		if types[i] == nil {
			return nil, true
		}
	}
	return NewTuple(types...), true
}

// splitTopLevel splits on commas not nested inside <>, () or [].
func splitTopLevel(s string) (parts []string, ok bool) {
	var depth int
	var current strings.Builder
	for _, r := range s {
		switch r {
		case '<', '(', '[':
			depth++
			current.WriteRune(r)
		case '>', ')', ']':
			depth--
			if depth < 0 {
				return nil, false
			}
			current.WriteRune(r)
		case ',':
			if depth == 0 {
				parts = append(parts, current.String())
				current.Reset()
				continue
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	if depth != 0 {
		return nil, false
	}
	parts = append(parts, current.String())
	return parts, true
}

func parseGeneric(s string) (t *Type, matched bool) {
	m := genericRegex.FindStringSubmatch(s)
	if m == nil || isWrapperName(m[1]) {
		return nil, false
	}

	inner := ParseType(m[2])
	if inner == nil {
		return nil, true
	}
	return NewGeneric(m[1], inner), true
}

// Sanitize passes turning qualified metadata names into the bare
// names type dictionaries key on. Applied in a fixed order.
var (
	emptyGenericRegex = regexp.MustCompile(`(\w*)<\(\)>`)
	traitRegex        = regexp.MustCompile(`^(?:<T as Trait|<T as Config<\w>|<T as Trait<\w>)[><\w]+:*([\W\w]*)`)
	pathRegex         = regexp.MustCompile(`\b(\w+)<([\w<>,: ]+)>`)
	prefixRegex       = regexp.MustCompile(`[\w><]::([\w><]+)`)
)

// Sanitize strips empty generics, trait qualifications, module
// paths and type prefixes from a name, in that order, so that
// "<T as Trait>::Call" or "T::Moment" match dictionary entries.
func Sanitize(s string) string {
	if m := emptyGenericRegex.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if m := traitRegex.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if m := pathRegex.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if m := prefixRegex.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return s
}
