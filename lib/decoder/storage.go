// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package decoder

import (
	"fmt"

	"github.com/ChainSafe/desub/lib/metadata"
	"github.com/ChainSafe/desub/lib/typedesc"
	"github.com/ChainSafe/desub/pkg/scale"
)

// Storage is a decoded storage entry: the owning module and entry
// plus the map keys recovered from the key bytes and the decoded
// value.
type Storage struct {
	Module string
	Entry  string
	// Keys has one element per map key. An element is nil when the
	// hasher does not preserve the key.
	Keys  []Value
	Value Value
}

func (s *Storage) String() string {
	out := s.Module + "." + s.Entry
	for _, key := range s.Keys {
		if key == nil {
			out += "[?]"
		} else {
			out += "[" + key.String() + "]"
		}
	}
	if s.Value != nil {
		out += " = " + s.Value.String()
	}
	return out
}

// keyWidthByName gives the encoded widths of key types that the
// resolver cannot decode but whose sizes are fixed by the runtime.
// Keys of unknown width stay unrecovered rather than guessed.
var keyWidthByName = map[string]int{
	"AccountId":    32,
	"ValidatorId":  32,
	"SessionIndex": 4,
	"EraIndex":     4,
	"Kind":         16,
	"Chain":        1,
}

// DecodeStorage decodes a storage key and its value. The key is
// matched against the hashed prefixes of every storage entry in the
// registered metadata.
func (d *Decoder) DecodeStorage(spec uint32, key, value []byte) (*Storage, error) {
	version, err := d.version(spec)
	if err != nil {
		return nil, err
	}

	info, extra := version.storage.MetaForKey(key)
	if info == nil {
		return nil, fmt.Errorf("%w: 0x%x", ErrStorageKeyUnknown, key)
	}

	storage := &Storage{Module: info.Module.Name, Entry: info.EntryName}

	keyState := d.newState(scale.NewReader(extra), version.meta, spec)
	keyState.module = info.Module.Name
	storage.Keys, err = keyState.decodeStorageKeys(&info.Entry.Type)
	if err != nil {
		return nil, fmt.Errorf("storage key %s.%s: %w",
			info.Module.Name, info.EntryName, err)
	}

	storage.Value, err = d.decodeStorageValue(version.meta, spec, info, value)
	if err != nil {
		return nil, fmt.Errorf("storage value %s.%s: %w",
			info.Module.Name, info.EntryName, err)
	}
	return storage, nil
}

func (ds *decodeState) decodeStorageKeys(storageType *metadata.StorageType) ([]Value, error) {
	var keyTypes []*typedesc.Type
	var hashers []metadata.StorageHasher

	switch storageType.Kind {
	case metadata.StoragePlain:
		return nil, nil
	case metadata.StorageMap:
		keyTypes = []*typedesc.Type{storageType.Key}
		hashers = []metadata.StorageHasher{storageType.Hasher}
	case metadata.StorageDoubleMap:
		keyTypes = []*typedesc.Type{storageType.Key, storageType.Key2}
		hashers = []metadata.StorageHasher{storageType.Hasher, storageType.Key2Hasher}
	case metadata.StorageNMap:
		keyTypes = storageType.Keys
		hashers = storageType.Hashers
	}

	keys := make([]Value, len(keyTypes))
	for i := range keyTypes {
		key, err := ds.decodeStorageKeyPart(keyTypes[i], hashers[i], i == len(keyTypes)-1)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys[i] = key
	}
	return keys, nil
}

// decodeStorageKeyPart consumes one hashed key from the reader. The
// key value is only recoverable for concatenating hashers. When the
// key type cannot be decoded, a known static width still lets later
// keys be located; otherwise only a trailing key may be skipped.
func (ds *decodeState) decodeStorageKeyPart(keyType *typedesc.Type,
	hasher metadata.StorageHasher, last bool) (Value, error) {
	if _, err := ds.reader.ReadBytes(hasher.HashLength()); err != nil {
		return nil, err
	}
	if !hasher.Concatenating() {
		return nil, nil
	}

	start := ds.reader.Offset()
	value, err := ds.decodeType(keyType)
	if err == nil {
		return value, nil
	}
	ds.reader.SetOffset(start)

	if width, ok := ds.staticKeyWidth(keyType); ok {
		if _, err := ds.reader.ReadBytes(width); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if last {
		ds.reader.SetOffset(ds.reader.Len())
		return nil, nil
	}
	return nil, fmt.Errorf("cannot size key type %s: %w", keyType, err)
}

func (ds *decodeState) staticKeyWidth(keyType *typedesc.Type) (int, bool) {
	if keyType == nil {
		return 0, false
	}
	if keyType.Kind == typedesc.KindPointer || keyType.Kind == typedesc.KindGeneric {
		if width, ok := keyWidthByName[typedesc.Sanitize(keyType.Name)]; ok {
			return width, true
		}
	}
	if width, ok := keyType.StaticSize(ds.resolveRef); ok {
		return width, true
	}
	return 0, false
}

// decodeStorageValue decodes the value bytes, falling back to the
// declared default for entries that always have a value.
func (d *Decoder) decodeStorageValue(meta *metadata.Metadata, spec uint32,
	info *metadata.StorageInfo, value []byte) (Value, error) {
	if len(value) == 0 {
		if info.Entry.Modifier == metadata.ModifierDefault && len(info.Entry.Default) > 0 {
			value = info.Entry.Default
		} else {
			return Option{}, nil
		}
	}

	ds := d.newState(scale.NewReader(value), meta, spec)
	ds.module = info.Module.Name
	decoded, err := ds.decodeType(info.Entry.Type.Value)
	if err != nil {
		return nil, err
	}
	if ds.reader.Remaining() > 0 {
		return nil, fmt.Errorf("%w: %d of %d bytes consumed",
			ErrTrailingBytes, ds.reader.Offset(), ds.reader.Len())
	}
	return decoded, nil
}
