// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metadata

import (
	"fmt"
	"sort"

	"github.com/qdm12/gotree"
)

// Pretty renders the metadata as a tree for inspection.
func (m *Metadata) Pretty() string {
	root := gotree.New(fmt.Sprintf("Runtime metadata (v%d)", m.Version))

	names := make([]string, 0, len(m.Modules))
	for name := range m.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		module := m.Modules[name]
		moduleNode := root.Appendf("%s (index %d)", name, module.Index)

		if len(module.Calls) > 0 {
			callsNode := moduleNode.Appendf("calls")
			calls := make([]*Call, 0, len(module.Calls))
			for _, call := range module.Calls {
				calls = append(calls, call)
			}
			sort.Slice(calls, func(i, j int) bool { return calls[i].Index < calls[j].Index })
			for _, call := range calls {
				args := ""
				for i, arg := range call.Args {
					if i > 0 {
						args += ", "
					}
					args += arg.Name + ": " + arg.Ty.String()
				}
				callsNode.Appendf("%d: %s(%s)", call.Index, call.Name, args)
			}
		}

		if len(module.Events) > 0 {
			eventsNode := moduleNode.Appendf("events")
			indices := make([]int, 0, len(module.Events))
			for index := range module.Events {
				indices = append(indices, int(index))
			}
			sort.Ints(indices)
			for _, index := range indices {
				event := module.Events[uint8(index)]
				eventsNode.Appendf("%d: %s%v", index, event.Name, event.Args)
			}
		}

		if len(module.Storage) > 0 {
			storageNode := moduleNode.Appendf("storage")
			entryNames := make([]string, 0, len(module.Storage))
			for entryName := range module.Storage {
				entryNames = append(entryNames, entryName)
			}
			sort.Strings(entryNames)
			for _, entryName := range entryNames {
				entry := module.Storage[entryName]
				storageNode.Appendf("%s: %s %s", entryName,
					storageKindString(entry.Type.Kind), entry.Type.Value)
			}
		}
	}

	if m.Extrinsics != nil {
		extrinsicNode := root.Appendf("extrinsic v%d", m.Extrinsics.Version)
		for _, extension := range m.Extrinsics.SignedExtensions {
			extrinsicNode.Appendf("%s", extension)
		}
	}

	return root.String()
}

func storageKindString(kind StorageTypeKind) string {
	switch kind {
	case StoragePlain:
		return "plain"
	case StorageMap:
		return "map"
	case StorageDoubleMap:
		return "double map"
	case StorageNMap:
		return "n map"
	default:
		return "?"
	}
}
