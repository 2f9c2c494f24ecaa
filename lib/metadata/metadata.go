// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package metadata decodes runtime metadata blobs of versions 8
// through 14 into one normalized model that the decoder consumes
// without caring which generation produced it.
package metadata

import (
	"fmt"

	"github.com/ChainSafe/desub/lib/typedesc"
)

// Metadata is the normalized view of a runtime metadata blob.
type Metadata struct {
	// Version is the metadata generation the blob was decoded from.
	Version uint8
	// Modules indexes the runtime modules by name.
	Modules map[string]*Module
	// ModulesByCallIndex maps the first byte of an encoded call to
	// the module owning it. Below v12 this follows declaration
	// order counting only modules with calls; from v12 on it is the
	// declared module index.
	ModulesByCallIndex map[uint8]string
	// ModulesByEventIndex maps event index bytes to module names,
	// counting only modules with events below v12.
	ModulesByEventIndex map[uint8]string
	// Extrinsics describes the extrinsic format itself. It is nil
	// below v11.
	Extrinsics *ExtrinsicMetadata
	// Registry is the portable type registry. It is nil below v14.
	Registry *Registry
}

// Module is one runtime module (pallet).
type Module struct {
	// Index is the declared module index from v12 on, and the
	// position in declaration order before that.
	Index   uint8
	Name    string
	Storage map[string]*StorageEntry
	Calls   map[string]*Call
	Events  map[uint8]*Event
	// Constants and Errors are carried for completeness; the
	// decoder does not consume them.
	Constants []Constant
	Errors    []string
}

// Call is one dispatchable function of a module.
type Call struct {
	Name string
	// Index is the second byte of an encoded call targeting this
	// function.
	Index uint8
	Args  []CallArg
}

// CallArg is a named, typed argument of a call.
type CallArg struct {
	Name string
	Ty   *typedesc.Type
}

// Event is one event variant of a module.
type Event struct {
	Name string
	Args []string
}

// Constant is a module constant with its encoded default value.
type Constant struct {
	Name  string
	Ty    *typedesc.Type
	Value []byte
	Docs  []string
}

// ExtrinsicMetadata describes the extrinsic format.
type ExtrinsicMetadata struct {
	Version uint8
	// SignedExtensions are the identifiers of the signed extension
	// types appended to every signed extrinsic, in order.
	SignedExtensions []string
	// SignedExtensionTypes are the registry types backing the
	// identifiers. Only v14 metadata provides them.
	SignedExtensionTypes []*typedesc.Type
}

// StorageHasher enumerates the hashers applied to storage keys.
type StorageHasher uint8

const (
	HasherBlake2_128 StorageHasher = iota
	HasherBlake2_256
	HasherBlake2_128Concat
	HasherTwox128
	HasherTwox256
	HasherTwox64Concat
	HasherIdentity
)

func (h StorageHasher) String() string {
	switch h {
	case HasherBlake2_128:
		return "Blake2_128"
	case HasherBlake2_256:
		return "Blake2_256"
	case HasherBlake2_128Concat:
		return "Blake2_128Concat"
	case HasherTwox128:
		return "Twox128"
	case HasherTwox256:
		return "Twox256"
	case HasherTwox64Concat:
		return "Twox64Concat"
	case HasherIdentity:
		return "Identity"
	default:
		return "?"
	}
}

// HashLength returns the number of bytes the hasher contributes to
// a storage key before any concatenated plain key.
func (h StorageHasher) HashLength() int {
	switch h {
	case HasherBlake2_128, HasherBlake2_128Concat, HasherTwox128:
		return 16
	case HasherBlake2_256, HasherTwox256:
		return 32
	case HasherTwox64Concat:
		return 8
	case HasherIdentity:
		return 0
	default:
		return 0
	}
}

// Concatenating reports whether the hasher appends the plain
// encoded key after the hash, making the key value recoverable.
func (h StorageHasher) Concatenating() bool {
	switch h {
	case HasherBlake2_128Concat, HasherTwox64Concat, HasherIdentity:
		return true
	default:
		return false
	}
}

// StorageEntryModifier states whether a storage value may be absent.
type StorageEntryModifier uint8

const (
	ModifierOptional StorageEntryModifier = iota
	ModifierDefault
)

func (m StorageEntryModifier) String() string {
	if m == ModifierOptional {
		return "Optional"
	}
	return "Default"
}

// StorageTypeKind discriminates the shapes a storage entry can have.
type StorageTypeKind uint8

const (
	StoragePlain StorageTypeKind = iota
	StorageMap
	StorageDoubleMap
	StorageNMap
)

// StorageType is the shape of one storage entry.
type StorageType struct {
	Kind  StorageTypeKind
	Value *typedesc.Type
	// Map and first DoubleMap key
	Hasher StorageHasher
	Key    *typedesc.Type
	// DoubleMap second key
	Key2       *typedesc.Type
	Key2Hasher StorageHasher
	// NMap keys
	Keys    []*typedesc.Type
	Hashers []StorageHasher
}

// StorageEntry is one storage item of a module.
type StorageEntry struct {
	// Prefix is the hashing prefix, "StoragePrefix EntryName".
	Prefix   string
	Modifier StorageEntryModifier
	Type     StorageType
	Default  []byte
	Docs     []string
}

// Module returns the named module.
func (m *Metadata) Module(name string) (*Module, error) {
	module, ok := m.Modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	return module, nil
}

// ModuleByCallIndex returns the module owning the given call index
// byte.
func (m *Metadata) ModuleByCallIndex(index uint8) (*Module, error) {
	name, ok := m.ModulesByCallIndex[index]
	if !ok {
		return nil, fmt.Errorf("%w: call index %d", ErrModuleNotFound, index)
	}
	return m.Module(name)
}

// ModuleByEventIndex returns the module owning the given event
// index byte.
func (m *Metadata) ModuleByEventIndex(index uint8) (*Module, error) {
	name, ok := m.ModulesByEventIndex[index]
	if !ok {
		return nil, fmt.Errorf("%w: event index %d", ErrModuleNotFound, index)
	}
	return m.Module(name)
}

// CallByIndex returns the call at the given index byte.
func (m *Module) CallByIndex(index uint8) (*Call, error) {
	for _, call := range m.Calls {
		if call.Index == index {
			return call, nil
		}
	}
	return nil, fmt.Errorf("%w: %s call index %d", ErrCallNotFound, m.Name, index)
}
