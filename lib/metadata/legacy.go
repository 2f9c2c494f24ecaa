// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metadata

import (
	"fmt"

	"github.com/ChainSafe/desub/lib/typedesc"
	"github.com/ChainSafe/desub/pkg/scale"
)

// Legacy metadata (v8 through v13) carries type information as
// strings parsed against the type grammar. The wire layout is
// stable across those versions apart from three increments: the
// storage hasher enum gained variants in v10 and v11, extrinsic
// metadata appeared in v11, and explicit module indices replaced
// positional call/event counting in v12. v13 added NMap storage.

type rawModule struct {
	name      string
	storage   *rawStorage
	calls     []rawCall
	hasCalls  bool
	events    []rawEvent
	hasEvents bool
	constants []Constant
	errors    []string
	index     uint8 // v12+
}

type rawStorage struct {
	prefix  string
	entries []rawStorageEntry
}

type rawStorageEntry struct {
	name  string
	entry *StorageEntry
}

type rawCall struct {
	name string
	args []CallArg
}

type rawEvent struct {
	name string
	args []string
}

func decodeLegacy(r *scale.Reader, version uint8) (*Metadata, error) {
	moduleCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("module count: %w", err)
	}

	meta := &Metadata{
		Version:             version,
		Modules:             make(map[string]*Module, moduleCount),
		ModulesByCallIndex:  make(map[uint8]string),
		ModulesByEventIndex: make(map[uint8]string),
	}

	// Call and event index bytes skip modules lacking the
	// capability: only a module with calls consumes a call index
	// slot, and likewise for events. From v12 on the declared
	// module index is used for both.
	var callIndex, eventIndex uint8
	for i := 0; i < moduleCount; i++ {
		raw, err := decodeRawModule(r, version)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}

		module := convertRawModule(raw)
		if version >= 12 {
			module.Index = raw.index
		} else {
			module.Index = uint8(i)
		}

		moduleIndex := module.Index
		if version < 12 {
			if raw.hasCalls {
				meta.ModulesByCallIndex[callIndex] = raw.name
				callIndex++
			}
			if raw.hasEvents {
				meta.ModulesByEventIndex[eventIndex] = raw.name
				eventIndex++
			}
		} else {
			if raw.hasCalls {
				meta.ModulesByCallIndex[moduleIndex] = raw.name
			}
			if raw.hasEvents {
				meta.ModulesByEventIndex[moduleIndex] = raw.name
			}
		}

		meta.Modules[raw.name] = module
	}

	if version >= 11 {
		extrinsics, err := decodeExtrinsicMetadata(r)
		if err != nil {
			return nil, fmt.Errorf("extrinsic metadata: %w", err)
		}
		meta.Extrinsics = extrinsics
	}

	return meta, nil
}

func convertRawModule(raw *rawModule) *Module {
	module := &Module{
		Name:      raw.name,
		Storage:   make(map[string]*StorageEntry),
		Calls:     make(map[string]*Call, len(raw.calls)),
		Events:    make(map[uint8]*Event, len(raw.events)),
		Constants: raw.constants,
		Errors:    raw.errors,
	}

	if raw.storage != nil {
		for _, entry := range raw.storage.entries {
			module.Storage[entry.name] = entry.entry
		}
	}

	for i, call := range raw.calls {
		module.Calls[call.name] = &Call{
			Name:  call.name,
			Index: uint8(i),
			Args:  call.args,
		}
	}

	for i, event := range raw.events {
		module.Events[uint8(i)] = &Event{Name: event.name, Args: event.args}
	}

	return module
}

func decodeRawModule(r *scale.Reader, version uint8) (*rawModule, error) {
	raw := &rawModule{}

	var err error
	raw.name, err = r.DecodeString()
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}

	hasStorage, err := r.DecodeBool()
	if err != nil {
		return nil, fmt.Errorf("storage flag: %w", err)
	}
	if hasStorage {
		raw.storage, err = decodeRawStorage(r, version)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	}

	raw.hasCalls, err = r.DecodeBool()
	if err != nil {
		return nil, fmt.Errorf("calls flag: %w", err)
	}
	if raw.hasCalls {
		raw.calls, err = decodeRawCalls(r)
		if err != nil {
			return nil, fmt.Errorf("calls: %w", err)
		}
	}

	raw.hasEvents, err = r.DecodeBool()
	if err != nil {
		return nil, fmt.Errorf("events flag: %w", err)
	}
	if raw.hasEvents {
		raw.events, err = decodeRawEvents(r)
		if err != nil {
			return nil, fmt.Errorf("events: %w", err)
		}
	}

	raw.constants, err = decodeRawConstants(r)
	if err != nil {
		return nil, fmt.Errorf("constants: %w", err)
	}

	raw.errors, err = decodeRawErrors(r)
	if err != nil {
		return nil, fmt.Errorf("errors: %w", err)
	}

	if version >= 12 {
		raw.index, err = r.DecodeUint8()
		if err != nil {
			return nil, fmt.Errorf("index: %w", err)
		}
	}

	return raw, nil
}

func decodeRawStorage(r *scale.Reader, version uint8) (*rawStorage, error) {
	storage := &rawStorage{}

	var err error
	storage.prefix, err = r.DecodeString()
	if err != nil {
		return nil, fmt.Errorf("prefix: %w", err)
	}

	entryCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("entry count: %w", err)
	}

	storage.entries = make([]rawStorageEntry, 0, entryCount)
	for i := 0; i < entryCount; i++ {
		name, err := r.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("entry %d name: %w", i, err)
		}

		entry, err := decodeRawStorageEntry(r, version, storage.prefix+" "+name)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", name, err)
		}
		storage.entries = append(storage.entries, rawStorageEntry{name: name, entry: entry})
	}

	return storage, nil
}

func decodeRawStorageEntry(r *scale.Reader, version uint8, prefix string) (*StorageEntry, error) {
	modifierByte, err := r.DecodeUint8()
	if err != nil {
		return nil, fmt.Errorf("modifier: %w", err)
	}
	if modifierByte > 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidModifier, modifierByte)
	}

	storageType, err := decodeRawStorageType(r, version)
	if err != nil {
		return nil, err
	}

	defaultValue, err := r.DecodeByteSlice()
	if err != nil {
		return nil, fmt.Errorf("default value: %w", err)
	}

	docs, err := decodeStringVec(r)
	if err != nil {
		return nil, fmt.Errorf("docs: %w", err)
	}

	return &StorageEntry{
		Prefix:   prefix,
		Modifier: StorageEntryModifier(modifierByte),
		Type:     storageType,
		Default:  defaultValue,
		Docs:     docs,
	}, nil
}

func decodeRawStorageType(r *scale.Reader, version uint8) (st StorageType, err error) {
	tag, err := r.DecodeUint8()
	if err != nil {
		return st, fmt.Errorf("storage type tag: %w", err)
	}

	switch tag {
	case 0: // Plain
		st.Kind = StoragePlain
		st.Value, err = decodeTypeString(r)
		if err != nil {
			return st, err
		}
	case 1: // Map
		st.Kind = StorageMap
		st.Hasher, err = decodeHasher(r, version)
		if err != nil {
			return st, err
		}
		st.Key, err = decodeTypeString(r)
		if err != nil {
			return st, err
		}
		st.Value, err = decodeTypeString(r)
		if err != nil {
			return st, err
		}
		// linked-map flag, no longer meaningful
		_, err = r.DecodeBool()
		if err != nil {
			return st, err
		}
	case 2: // DoubleMap
		st.Kind = StorageDoubleMap
		st.Hasher, err = decodeHasher(r, version)
		if err != nil {
			return st, err
		}
		st.Key, err = decodeTypeString(r)
		if err != nil {
			return st, err
		}
		st.Key2, err = decodeTypeString(r)
		if err != nil {
			return st, err
		}
		st.Value, err = decodeTypeString(r)
		if err != nil {
			return st, err
		}
		st.Key2Hasher, err = decodeHasher(r, version)
		if err != nil {
			return st, err
		}
	case 3: // NMap, v13 only
		if version < 13 {
			return st, fmt.Errorf("%w: tag %d below v13", ErrInvalidStorageType, tag)
		}
		st.Kind = StorageNMap
		keyCount, err := r.DecodeLength()
		if err != nil {
			return st, err
		}
		st.Keys = make([]*typedesc.Type, keyCount)
		for i := range st.Keys {
			st.Keys[i], err = decodeTypeString(r)
			if err != nil {
				return st, err
			}
		}
		hasherCount, err := r.DecodeLength()
		if err != nil {
			return st, err
		}
		st.Hashers = make([]StorageHasher, hasherCount)
		for i := range st.Hashers {
			st.Hashers[i], err = decodeHasher(r, version)
			if err != nil {
				return st, err
			}
		}
		st.Value, err = decodeTypeString(r)
		if err != nil {
			return st, err
		}
	default:
		return st, fmt.Errorf("%w: tag %d", ErrInvalidStorageType, tag)
	}

	return st, nil
}

// decodeHasher maps the version specific hasher discriminant to the
// unified enum. Blake2_128Concat appeared in v10 and Identity in
// v11, shifting the discriminants of everything after them.
func decodeHasher(r *scale.Reader, version uint8) (StorageHasher, error) {
	b, err := r.DecodeUint8()
	if err != nil {
		return 0, fmt.Errorf("hasher: %w", err)
	}

	var hashers []StorageHasher
	if version <= 9 {
		hashers = []StorageHasher{
			HasherBlake2_128, HasherBlake2_256,
			HasherTwox128, HasherTwox256, HasherTwox64Concat,
		}
	} else {
		hashers = []StorageHasher{
			HasherBlake2_128, HasherBlake2_256, HasherBlake2_128Concat,
			HasherTwox128, HasherTwox256, HasherTwox64Concat, HasherIdentity,
		}
		if version == 10 {
			hashers = hashers[:6]
		}
	}

	if int(b) >= len(hashers) {
		return 0, fmt.Errorf("%w: %d in v%d", ErrInvalidHasher, b, version)
	}
	return hashers[b], nil
}

func decodeRawCalls(r *scale.Reader) ([]rawCall, error) {
	callCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("call count: %w", err)
	}

	calls := make([]rawCall, 0, callCount)
	for i := 0; i < callCount; i++ {
		name, err := r.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("call %d name: %w", i, err)
		}

		argCount, err := r.DecodeLength()
		if err != nil {
			return nil, fmt.Errorf("call %s arg count: %w", name, err)
		}

		args := make([]CallArg, 0, argCount)
		for j := 0; j < argCount; j++ {
			argName, err := r.DecodeString()
			if err != nil {
				return nil, fmt.Errorf("call %s arg %d name: %w", name, j, err)
			}
			argType, err := decodeTypeString(r)
			if err != nil {
				return nil, fmt.Errorf("call %s arg %s: %w", name, argName, err)
			}
			args = append(args, CallArg{Name: argName, Ty: argType})
		}

		if _, err := decodeStringVec(r); err != nil { // docs
			return nil, fmt.Errorf("call %s docs: %w", name, err)
		}

		calls = append(calls, rawCall{name: name, args: args})
	}

	return calls, nil
}

func decodeRawEvents(r *scale.Reader) ([]rawEvent, error) {
	eventCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("event count: %w", err)
	}

	events := make([]rawEvent, 0, eventCount)
	for i := 0; i < eventCount; i++ {
		name, err := r.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("event %d name: %w", i, err)
		}
		args, err := decodeStringVec(r)
		if err != nil {
			return nil, fmt.Errorf("event %s args: %w", name, err)
		}
		if _, err := decodeStringVec(r); err != nil { // docs
			return nil, fmt.Errorf("event %s docs: %w", name, err)
		}
		events = append(events, rawEvent{name: name, args: args})
	}

	return events, nil
}

func decodeRawConstants(r *scale.Reader) ([]Constant, error) {
	constantCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("constant count: %w", err)
	}

	constants := make([]Constant, 0, constantCount)
	for i := 0; i < constantCount; i++ {
		name, err := r.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("constant %d name: %w", i, err)
		}
		ty, err := decodeTypeString(r)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", name, err)
		}
		value, err := r.DecodeByteSlice()
		if err != nil {
			return nil, fmt.Errorf("constant %s value: %w", name, err)
		}
		docs, err := decodeStringVec(r)
		if err != nil {
			return nil, fmt.Errorf("constant %s docs: %w", name, err)
		}
		constants = append(constants, Constant{Name: name, Ty: ty, Value: value, Docs: docs})
	}

	return constants, nil
}

func decodeRawErrors(r *scale.Reader) ([]string, error) {
	errorCount, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("error count: %w", err)
	}

	names := make([]string, 0, errorCount)
	for i := 0; i < errorCount; i++ {
		name, err := r.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("error %d name: %w", i, err)
		}
		if _, err := decodeStringVec(r); err != nil { // docs
			return nil, fmt.Errorf("error %s docs: %w", name, err)
		}
		names = append(names, name)
	}

	return names, nil
}

func decodeExtrinsicMetadata(r *scale.Reader) (*ExtrinsicMetadata, error) {
	version, err := r.DecodeUint8()
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}

	extensions, err := decodeStringVec(r)
	if err != nil {
		return nil, fmt.Errorf("signed extensions: %w", err)
	}

	return &ExtrinsicMetadata{Version: version, SignedExtensions: extensions}, nil
}

func decodeTypeString(r *scale.Reader) (*typedesc.Type, error) {
	s, err := r.DecodeString()
	if err != nil {
		return nil, err
	}
	ty := typedesc.ParseType(s)
	if ty == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return ty, nil
}

func decodeStringVec(r *scale.Reader) ([]string, error) {
	count, err := r.DecodeLength()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		s, err := r.DecodeString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
