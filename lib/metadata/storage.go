// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metadata

import (
	"fmt"
	"strings"

	"github.com/ChainSafe/desub/lib/common"
)

// StorageInfo pairs a storage entry with the module owning it.
type StorageInfo struct {
	Module    *Module
	EntryName string
	Entry     *StorageEntry
}

// StorageLookupTable maps hashed storage key prefixes to the
// entries they belong to. Prefixes are the concatenated twox128
// hashes of the whitespace separated parts of the entry prefix,
// 32 bytes for the usual "Prefix Entry" pair.
type StorageLookupTable struct {
	table map[string]*StorageInfo
}

// StorageLookupTable builds the prefix table for every storage
// entry in the metadata.
func (m *Metadata) StorageLookupTable() (*StorageLookupTable, error) {
	table := make(map[string]*StorageInfo)
	for _, module := range m.Modules {
		for entryName, entry := range module.Storage {
			prefixKey, err := GenerateStoragePrefix(entry.Prefix)
			if err != nil {
				return nil, fmt.Errorf("hashing prefix %q: %w", entry.Prefix, err)
			}
			table[string(prefixKey)] = &StorageInfo{
				Module:    module,
				EntryName: entryName,
				Entry:     entry,
			}
		}
	}
	return &StorageLookupTable{table: table}, nil
}

// GenerateStoragePrefix hashes each whitespace separated part of a
// storage prefix with twox128 and concatenates the results.
func GenerateStoragePrefix(prefix string) ([]byte, error) {
	parts := strings.Fields(prefix)
	key := make([]byte, 0, len(parts)*16)
	for _, part := range parts {
		hashed, err := common.Twox128([]byte(part))
		if err != nil {
			return nil, err
		}
		key = append(key, hashed...)
	}
	return key, nil
}

// MetaForKey returns the storage info whose prefix starts the given
// key, along with the key bytes after the prefix. It returns nil
// when no entry matches.
func (t *StorageLookupTable) MetaForKey(key []byte) (info *StorageInfo, extra []byte) {
	for prefixLength := 32; prefixLength >= 16; prefixLength -= 16 {
		if len(key) < prefixLength {
			continue
		}
		if info, ok := t.table[string(key[:prefixLength])]; ok {
			return info, key[prefixLength:]
		}
	}
	return nil, nil
}
