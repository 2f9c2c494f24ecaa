// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metadata

import (
	"fmt"

	"github.com/ChainSafe/desub/lib/typedesc"
	"github.com/ChainSafe/desub/pkg/scale"
)

// Registry is the v14 portable type registry. Types reference each
// other through KindRef nodes holding registry ids.
type Registry struct {
	types map[int]*typedesc.Type
}

// Type returns the registry type for an id.
func (reg *Registry) Type(id int) (*typedesc.Type, error) {
	ty, ok := reg.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrTypeNotFound, id)
	}
	return ty, nil
}

// Resolve returns the registry type for an id, or nil. It has the
// signature expected by typedesc.Type.StaticSize.
func (reg *Registry) Resolve(id int) *typedesc.Type {
	return reg.types[id]
}

func decodeV14(r *scale.Reader) (*Metadata, error) {
	registry, err := decodeRegistry(r)
	if err != nil {
		return nil, fmt.Errorf("type registry: %w", err)
	}

	meta := &Metadata{
		Version:             14,
		Modules:             make(map[string]*Module),
		ModulesByCallIndex:  make(map[uint8]string),
		ModulesByEventIndex: make(map[uint8]string),
		Registry:            registry,
	}

	palletCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("pallet count: %w", err)
	}
	for i := 0; i < palletCount; i++ {
		if err := decodePallet(r, meta); err != nil {
			return nil, fmt.Errorf("pallet %d: %w", i, err)
		}
	}

	meta.Extrinsics, err = decodeV14Extrinsic(r)
	if err != nil {
		return nil, fmt.Errorf("extrinsic metadata: %w", err)
	}

	// runtime type id, not consumed by decoding
	if _, err := r.DecodeCompactUint64(); err != nil {
		return nil, fmt.Errorf("runtime type: %w", err)
	}

	return meta, nil
}

func decodeRegistry(r *scale.Reader) (*Registry, error) {
	typeCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("type count: %w", err)
	}

	registry := &Registry{types: make(map[int]*typedesc.Type, typeCount)}
	for i := 0; i < typeCount; i++ {
		id, err := r.DecodeCompactUint64()
		if err != nil {
			return nil, fmt.Errorf("type %d id: %w", i, err)
		}
		ty, err := decodeRegistryType(r)
		if err != nil {
			return nil, fmt.Errorf("type id %d: %w", id, err)
		}
		registry.types[int(id)] = ty
	}
	return registry, nil
}

func decodeRegistryType(r *scale.Reader) (*typedesc.Type, error) {
	path, err := decodeStringVec(r)
	if err != nil {
		return nil, fmt.Errorf("path: %w", err)
	}

	// type parameters carry no wire shape
	paramCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("param count: %w", err)
	}
	for i := 0; i < paramCount; i++ {
		if _, err := r.DecodeString(); err != nil {
			return nil, fmt.Errorf("param %d name: %w", i, err)
		}
		hasType, err := r.DecodeBool()
		if err != nil {
			return nil, fmt.Errorf("param %d type flag: %w", i, err)
		}
		if hasType {
			if _, err := r.DecodeCompactUint64(); err != nil {
				return nil, fmt.Errorf("param %d type: %w", i, err)
			}
		}
	}

	ty, err := decodeTypeDef(r)
	if err != nil {
		return nil, err
	}
	if len(path) > 0 && (ty.Kind == typedesc.KindComposite || ty.Kind == typedesc.KindVariant) {
		ty.Name = path[len(path)-1]
	}

	if _, err := decodeStringVec(r); err != nil { // docs
		return nil, fmt.Errorf("docs: %w", err)
	}
	return ty, nil
}

func decodeTypeDef(r *scale.Reader) (*typedesc.Type, error) {
	tag, err := r.DecodeUint8()
	if err != nil {
		return nil, fmt.Errorf("definition tag: %w", err)
	}

	switch tag {
	case 0: // composite
		fields, err := decodeRegistryFields(r)
		if err != nil {
			return nil, err
		}
		return typedesc.NewComposite(fields...), nil
	case 1: // variant
		variantCount, err := r.DecodeLength()
		if err != nil {
			return nil, err
		}
		variants := make([]typedesc.Variant, 0, variantCount)
		for i := 0; i < variantCount; i++ {
			name, err := r.DecodeString()
			if err != nil {
				return nil, fmt.Errorf("variant %d name: %w", i, err)
			}
			fields, err := decodeRegistryFields(r)
			if err != nil {
				return nil, fmt.Errorf("variant %s: %w", name, err)
			}
			indexByte, err := r.DecodeUint8()
			if err != nil {
				return nil, fmt.Errorf("variant %s index: %w", name, err)
			}
			if _, err := decodeStringVec(r); err != nil { // docs
				return nil, fmt.Errorf("variant %s docs: %w", name, err)
			}
			index := indexByte
			variants = append(variants, typedesc.Variant{Name: name, Index: &index, Fields: fields})
		}
		return typedesc.NewVariantType(variants...), nil
	case 2: // sequence
		elem, err := r.DecodeCompactUint64()
		if err != nil {
			return nil, err
		}
		return typedesc.NewSequence(typedesc.NewRef(int(elem))), nil
	case 3: // array
		length, err := r.DecodeUint32()
		if err != nil {
			return nil, err
		}
		elem, err := r.DecodeCompactUint64()
		if err != nil {
			return nil, err
		}
		return typedesc.NewArray(typedesc.NewRef(int(elem)), length), nil
	case 4: // tuple
		elemCount, err := r.DecodeLength()
		if err != nil {
			return nil, err
		}
		if elemCount == 0 {
			return typedesc.NewNull(), nil
		}
		elems := make([]*typedesc.Type, elemCount)
		for i := range elems {
			id, err := r.DecodeCompactUint64()
			if err != nil {
				return nil, err
			}
			elems[i] = typedesc.NewRef(int(id))
		}
		return typedesc.NewTuple(elems...), nil
	case 5: // primitive
		return decodeRegistryPrimitive(r)
	case 6: // compact
		inner, err := r.DecodeCompactUint64()
		if err != nil {
			return nil, err
		}
		return typedesc.NewCompact(typedesc.NewRef(int(inner))), nil
	case 7: // bit sequence
		if _, err := r.DecodeCompactUint64(); err != nil { // store type
			return nil, err
		}
		if _, err := r.DecodeCompactUint64(); err != nil { // order type
			return nil, err
		}
		return typedesc.NewBitSequence(), nil
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrInvalidTypeDef, tag)
	}
}

func decodeRegistryFields(r *scale.Reader) ([]typedesc.Field, error) {
	fieldCount, err := r.DecodeLength()
	if err != nil {
		return nil, err
	}

	fields := make([]typedesc.Field, 0, fieldCount)
	for i := 0; i < fieldCount; i++ {
		hasName, err := r.DecodeBool()
		if err != nil {
			return nil, fmt.Errorf("field %d name flag: %w", i, err)
		}
		var name string
		if hasName {
			name, err = r.DecodeString()
			if err != nil {
				return nil, fmt.Errorf("field %d name: %w", i, err)
			}
		}

		id, err := r.DecodeCompactUint64()
		if err != nil {
			return nil, fmt.Errorf("field %d type: %w", i, err)
		}

		hasTypeName, err := r.DecodeBool()
		if err != nil {
			return nil, fmt.Errorf("field %d type name flag: %w", i, err)
		}
		if hasTypeName {
			if _, err := r.DecodeString(); err != nil {
				return nil, fmt.Errorf("field %d type name: %w", i, err)
			}
		}
		if _, err := decodeStringVec(r); err != nil { // docs
			return nil, fmt.Errorf("field %d docs: %w", i, err)
		}

		fields = append(fields, typedesc.Field{Name: name, Ty: typedesc.NewRef(int(id))})
	}
	return fields, nil
}

func decodeRegistryPrimitive(r *scale.Reader) (*typedesc.Type, error) {
	b, err := r.DecodeUint8()
	if err != nil {
		return nil, err
	}

	primitives := []typedesc.Primitive{
		typedesc.Bool, typedesc.Char, typedesc.Str,
		typedesc.U8, typedesc.U16, typedesc.U32, typedesc.U64,
		typedesc.U128, typedesc.U256,
		typedesc.I8, typedesc.I16, typedesc.I32, typedesc.I64,
		typedesc.I128, typedesc.I256,
	}
	if int(b) >= len(primitives) {
		return nil, fmt.Errorf("%w: primitive %d", ErrInvalidTypeDef, b)
	}
	return typedesc.NewPrimitive(primitives[b]), nil
}

func decodePallet(r *scale.Reader, meta *Metadata) error {
	name, err := r.DecodeString()
	if err != nil {
		return fmt.Errorf("name: %w", err)
	}

	module := &Module{
		Name:    name,
		Storage: make(map[string]*StorageEntry),
		Calls:   make(map[string]*Call),
		Events:  make(map[uint8]*Event),
	}

	hasStorage, err := r.DecodeBool()
	if err != nil {
		return fmt.Errorf("storage flag: %w", err)
	}
	if hasStorage {
		if err := decodeV14Storage(r, meta.Registry, module); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	callType, hasCalls, err := decodeOptionalTypeID(r)
	if err != nil {
		return fmt.Errorf("call type: %w", err)
	}
	if hasCalls {
		if err := fillCallsFromRegistry(meta.Registry, module, callType); err != nil {
			return fmt.Errorf("calls: %w", err)
		}
	}

	eventType, hasEvents, err := decodeOptionalTypeID(r)
	if err != nil {
		return fmt.Errorf("event type: %w", err)
	}
	if hasEvents {
		if err := fillEventsFromRegistry(meta.Registry, module, eventType); err != nil {
			return fmt.Errorf("events: %w", err)
		}
	}

	constantCount, err := r.DecodeLength()
	if err != nil {
		return fmt.Errorf("constant count: %w", err)
	}
	for i := 0; i < constantCount; i++ {
		constantName, err := r.DecodeString()
		if err != nil {
			return fmt.Errorf("constant %d name: %w", i, err)
		}
		id, err := r.DecodeCompactUint64()
		if err != nil {
			return fmt.Errorf("constant %s type: %w", constantName, err)
		}
		value, err := r.DecodeByteSlice()
		if err != nil {
			return fmt.Errorf("constant %s value: %w", constantName, err)
		}
		docs, err := decodeStringVec(r)
		if err != nil {
			return fmt.Errorf("constant %s docs: %w", constantName, err)
		}
		module.Constants = append(module.Constants, Constant{
			Name: constantName, Ty: typedesc.NewRef(int(id)), Value: value, Docs: docs,
		})
	}

	errorType, hasErrors, err := decodeOptionalTypeID(r)
	if err != nil {
		return fmt.Errorf("error type: %w", err)
	}
	if hasErrors {
		errorDef, err := meta.Registry.Type(errorType)
		if err != nil {
			return fmt.Errorf("errors: %w", err)
		}
		for _, variant := range errorDef.Variants {
			module.Errors = append(module.Errors, variant.Name)
		}
	}

	module.Index, err = r.DecodeUint8()
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	meta.Modules[name] = module
	if hasCalls {
		meta.ModulesByCallIndex[module.Index] = name
	}
	if hasEvents {
		meta.ModulesByEventIndex[module.Index] = name
	}
	return nil
}

func decodeOptionalTypeID(r *scale.Reader) (id int, ok bool, err error) {
	has, err := r.DecodeBool()
	if err != nil {
		return 0, false, err
	}
	if !has {
		return 0, false, nil
	}
	raw, err := r.DecodeCompactUint64()
	if err != nil {
		return 0, false, err
	}
	return int(raw), true, nil
}

// fillCallsFromRegistry expands the pallet call enum into Call
// entries. Unlike legacy metadata the discriminant is the declared
// variant index, not the position.
func fillCallsFromRegistry(registry *Registry, module *Module, id int) error {
	callDef, err := registry.Type(id)
	if err != nil {
		return err
	}
	if callDef.Kind != typedesc.KindVariant {
		return fmt.Errorf("%w: call type %d is not an enum", ErrInvalidTypeDef, id)
	}

	for _, variant := range callDef.Variants {
		args := make([]CallArg, len(variant.Fields))
		for i, field := range variant.Fields {
			argName := field.Name
			if argName == "" {
				argName = fmt.Sprintf("arg%d", i)
			}
			args[i] = CallArg{Name: argName, Ty: field.Ty}
		}
		module.Calls[variant.Name] = &Call{
			Name:  variant.Name,
			Index: *variant.Index,
			Args:  args,
		}
	}
	return nil
}

func fillEventsFromRegistry(registry *Registry, module *Module, id int) error {
	eventDef, err := registry.Type(id)
	if err != nil {
		return err
	}
	if eventDef.Kind != typedesc.KindVariant {
		return fmt.Errorf("%w: event type %d is not an enum", ErrInvalidTypeDef, id)
	}

	for _, variant := range eventDef.Variants {
		args := make([]string, len(variant.Fields))
		for i, field := range variant.Fields {
			args[i] = field.Ty.String()
		}
		module.Events[*variant.Index] = &Event{Name: variant.Name, Args: args}
	}
	return nil
}

func decodeV14Storage(r *scale.Reader, registry *Registry, module *Module) error {
	prefix, err := r.DecodeString()
	if err != nil {
		return fmt.Errorf("prefix: %w", err)
	}

	entryCount, err := r.DecodeLength()
	if err != nil {
		return fmt.Errorf("entry count: %w", err)
	}
	for i := 0; i < entryCount; i++ {
		name, err := r.DecodeString()
		if err != nil {
			return fmt.Errorf("entry %d name: %w", i, err)
		}

		modifierByte, err := r.DecodeUint8()
		if err != nil {
			return fmt.Errorf("entry %s modifier: %w", name, err)
		}
		if modifierByte > 1 {
			return fmt.Errorf("%w: %d", ErrInvalidModifier, modifierByte)
		}

		storageType, err := decodeV14StorageType(r, registry)
		if err != nil {
			return fmt.Errorf("entry %s: %w", name, err)
		}

		defaultValue, err := r.DecodeByteSlice()
		if err != nil {
			return fmt.Errorf("entry %s default: %w", name, err)
		}
		docs, err := decodeStringVec(r)
		if err != nil {
			return fmt.Errorf("entry %s docs: %w", name, err)
		}

		module.Storage[name] = &StorageEntry{
			Prefix:   prefix + " " + name,
			Modifier: StorageEntryModifier(modifierByte),
			Type:     storageType,
			Default:  defaultValue,
			Docs:     docs,
		}
	}
	return nil
}

func decodeV14StorageType(r *scale.Reader, registry *Registry) (st StorageType, err error) {
	tag, err := r.DecodeUint8()
	if err != nil {
		return st, fmt.Errorf("storage type tag: %w", err)
	}

	switch tag {
	case 0: // plain
		id, err := r.DecodeCompactUint64()
		if err != nil {
			return st, err
		}
		st.Kind = StoragePlain
		st.Value = typedesc.NewRef(int(id))
		return st, nil
	case 1: // map
		hasherCount, err := r.DecodeLength()
		if err != nil {
			return st, err
		}
		hashers := make([]StorageHasher, hasherCount)
		for i := range hashers {
			b, err := r.DecodeUint8()
			if err != nil {
				return st, err
			}
			if b > uint8(HasherIdentity) {
				return st, fmt.Errorf("%w: %d", ErrInvalidHasher, b)
			}
			hashers[i] = StorageHasher(b)
		}

		keyID, err := r.DecodeCompactUint64()
		if err != nil {
			return st, err
		}
		valueID, err := r.DecodeCompactUint64()
		if err != nil {
			return st, err
		}
		st.Value = typedesc.NewRef(int(valueID))

		keys := registryKeyTypes(registry, int(keyID), len(hashers))
		switch len(hashers) {
		case 1:
			st.Kind = StorageMap
			st.Hasher = hashers[0]
			st.Key = keys[0]
		case 2:
			st.Kind = StorageDoubleMap
			st.Hasher = hashers[0]
			st.Key = keys[0]
			st.Key2Hasher = hashers[1]
			st.Key2 = keys[1]
		default:
			st.Kind = StorageNMap
			st.Hashers = hashers
			st.Keys = keys
		}
		return st, nil
	default:
		return st, fmt.Errorf("%w: tag %d", ErrInvalidStorageType, tag)
	}
}

// registryKeyTypes splits a map key type into one type per hasher.
// Multiple hashers share one tuple typed key.
func registryKeyTypes(registry *Registry, keyID, hasherCount int) []*typedesc.Type {
	keyRef := typedesc.NewRef(keyID)
	if hasherCount == 1 {
		return []*typedesc.Type{keyRef}
	}

	resolved := registry.Resolve(keyID)
	if resolved != nil && resolved.Kind == typedesc.KindTuple &&
		len(resolved.Fields) == hasherCount {
		keys := make([]*typedesc.Type, hasherCount)
		for i, field := range resolved.Fields {
			keys[i] = field.Ty
		}
		return keys
	}

	// fall back to the whole key under the first hasher
	keys := make([]*typedesc.Type, hasherCount)
	for i := range keys {
		keys[i] = keyRef
	}
	return keys
}

func decodeV14Extrinsic(r *scale.Reader) (*ExtrinsicMetadata, error) {
	if _, err := r.DecodeCompactUint64(); err != nil { // extrinsic type id
		return nil, fmt.Errorf("type: %w", err)
	}

	version, err := r.DecodeUint8()
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}

	extensionCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("extension count: %w", err)
	}

	extrinsics := &ExtrinsicMetadata{Version: version}
	for i := 0; i < extensionCount; i++ {
		identifier, err := r.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("extension %d identifier: %w", i, err)
		}
		id, err := r.DecodeCompactUint64()
		if err != nil {
			return nil, fmt.Errorf("extension %s type: %w", identifier, err)
		}
		if _, err := r.DecodeCompactUint64(); err != nil { // additional signed type
			return nil, fmt.Errorf("extension %s additional type: %w", identifier, err)
		}
		extrinsics.SignedExtensions = append(extrinsics.SignedExtensions, identifier)
		extrinsics.SignedExtensionTypes = append(extrinsics.SignedExtensionTypes,
			typedesc.NewRef(int(id)))
	}
	return extrinsics, nil
}
