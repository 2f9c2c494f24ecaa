// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package resolver

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ChainSafe/desub/lib/typedesc"
)

// parseDef turns one dictionary definition into a grammar node.
// String definitions go through the type string parser; objects are
// structs unless one of the "_enum" or "_set" markers selects
// another shape. Type names inside definitions stay pointers and
// resolve lazily during decoding.
func parseDef(raw json.RawMessage) (*typedesc.Type, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty definition", ErrBadDefinition)
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		ty := typedesc.ParseType(typedesc.Sanitize(s))
		if ty == nil {
			return nil, fmt.Errorf("%w: type string %q", ErrBadDefinition, s)
		}
		return ty, nil
	case '[':
		return parseTupleDef(trimmed)
	case '{':
		return parseObjectDef(trimmed)
	case 'n': // null stands for the unit type
		return typedesc.NewNull(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadDefinition, trimmed)
	}
}

func parseTupleDef(raw json.RawMessage) (*typedesc.Type, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	types := make([]*typedesc.Type, len(elems))
	for i, elem := range elems {
		ty, err := parseDef(elem)
		if err != nil {
			return nil, fmt.Errorf("tuple element %d: %w", i, err)
		}
		types[i] = ty
	}
	return typedesc.NewTuple(types...), nil
}

// objectEntry is one key of a JSON object in declaration order,
// which encoding/json maps would lose.
type objectEntry struct {
	key   string
	value json.RawMessage
}

func orderedObject(raw json.RawMessage) ([]objectEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	token, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrBadDefinition)
	}

	var entries []objectEntry
	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string key", ErrBadDefinition)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		entries = append(entries, objectEntry{key: key, value: value})
	}
	return entries, nil
}

func parseObjectDef(raw json.RawMessage) (*typedesc.Type, error) {
	entries, err := orderedObject(raw)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		switch entry.key {
		case "_enum":
			return parseEnumDef(entry.value)
		case "_set":
			return parseSetDef(entry.value)
		}
	}

	fields := make([]typedesc.Field, 0, len(entries))
	for _, entry := range entries {
		if len(entry.key) > 0 && entry.key[0] == '_' {
			continue
		}
		ty, err := parseDef(entry.value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", entry.key, err)
		}
		fields = append(fields, typedesc.Field{Name: entry.key, Ty: ty})
	}
	return typedesc.NewComposite(fields...), nil
}

// parseEnumDef handles both enum forms: an array of unit variant
// names, or an object mapping variant names to their payload types
// with null for unit variants.
func parseEnumDef(raw json.RawMessage) (*typedesc.Type, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return nil, err
		}
		variants := make([]typedesc.Variant, len(names))
		for i, name := range names {
			variants[i] = typedesc.Variant{Name: name}
		}
		return typedesc.NewVariantType(variants...), nil
	}

	entries, err := orderedObject(trimmed)
	if err != nil {
		return nil, err
	}
	variants := make([]typedesc.Variant, 0, len(entries))
	for _, entry := range entries {
		variant := typedesc.Variant{Name: entry.key}
		if !bytes.Equal(bytes.TrimSpace(entry.value), []byte("null")) {
			ty, err := parseDef(entry.value)
			if err != nil {
				return nil, fmt.Errorf("variant %q: %w", entry.key, err)
			}
			variant.Fields = []typedesc.Field{{Ty: ty}}
		}
		variants = append(variants, variant)
	}
	return typedesc.NewVariantType(variants...), nil
}

// parseSetDef handles bitset enums: member names mapped to bit
// values, with "_bitLength" giving the encoded width in bits.
func parseSetDef(raw json.RawMessage) (*typedesc.Type, error) {
	entries, err := orderedObject(raw)
	if err != nil {
		return nil, err
	}

	width := 1
	var members []typedesc.SetField
	for _, entry := range entries {
		var bits uint64
		if err := json.Unmarshal(entry.value, &bits); err != nil {
			return nil, fmt.Errorf("set member %q: %w", entry.key, err)
		}
		if entry.key == "_bitLength" {
			width = int(bits) / 8
			continue
		}
		members = append(members, typedesc.SetField{Name: entry.key, Bit: bits})
	}
	return typedesc.NewSet(width, members...), nil
}
