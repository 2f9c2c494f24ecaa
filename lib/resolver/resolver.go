// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package resolver maps legacy metadata type names to decodable
// types using JSON dictionaries: per-module definitions, per-chain
// spec ranged overrides, and extrinsic format types.
package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ChainSafe/desub/lib/typedesc"
)

var (
	ErrBadDefinition = errors.New("malformed type definition")
	ErrBadDictionary = errors.New("malformed dictionary")
)

// rawTypes maps type names to their unparsed definitions.
type rawTypes map[string]json.RawMessage

// specRange scopes a set of definitions to an inclusive spec
// version range.
type specRange struct {
	Min   uint32
	Max   uint32
	Types rawTypes
}

// UnmarshalJSON reads the {"minmax": [a, b], "types": {...}} form.
func (s *specRange) UnmarshalJSON(data []byte) error {
	var wire struct {
		MinMax [2]*uint32 `json:"minmax"`
		Types  rawTypes   `json:"types"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.Min = 0
	s.Max = ^uint32(0)
	if wire.MinMax[0] != nil {
		s.Min = *wire.MinMax[0]
	}
	if wire.MinMax[1] != nil {
		s.Max = *wire.MinMax[1]
	}
	s.Types = wire.Types
	return nil
}

func (s *specRange) contains(spec uint32) bool {
	return spec >= s.Min && spec <= s.Max
}

// TypeResolver implements typedesc.Resolver over JSON dictionaries.
// Parsed types are cached; all methods are safe for concurrent use.
type TypeResolver struct {
	modules    map[string]rawTypes
	overrides  map[string][]specRange
	extrinsics map[string][]specRange
	fallbacks  map[string]json.RawMessage

	mutex sync.RWMutex
	cache map[string]*typedesc.Type
}

// New builds a resolver from dictionary JSON. definitions maps
// module names to {"types": {...}}; overrides and extrinsics map
// chain names to spec ranged type sets. overrides and extrinsics
// may be nil.
func New(definitions, overrides, extrinsics []byte) (*TypeResolver, error) {
	resolver := &TypeResolver{
		modules:    make(map[string]rawTypes),
		overrides:  make(map[string][]specRange),
		extrinsics: make(map[string][]specRange),
		fallbacks:  make(map[string]json.RawMessage),
		cache:      make(map[string]*typedesc.Type),
	}

	var modules map[string]struct {
		Types     rawTypes                   `json:"types"`
		Fallbacks map[string]json.RawMessage `json:"fallbacks"`
	}
	if err := json.Unmarshal(definitions, &modules); err != nil {
		return nil, fmt.Errorf("%w: definitions: %s", ErrBadDictionary, err)
	}
	for name, module := range modules {
		resolver.modules[strings.ToLower(name)] = module.Types
		for typeName, fallback := range module.Fallbacks {
			resolver.fallbacks[typeName] = fallback
		}
	}

	if overrides != nil {
		if err := json.Unmarshal(overrides, &resolver.overrides); err != nil {
			return nil, fmt.Errorf("%w: overrides: %s", ErrBadDictionary, err)
		}
	}
	if extrinsics != nil {
		if err := json.Unmarshal(extrinsics, &resolver.extrinsics); err != nil {
			return nil, fmt.Errorf("%w: extrinsics: %s", ErrBadDictionary, err)
		}
	}
	return resolver, nil
}

// Get resolves a type name in the context of a chain, spec version
// and module. Chain overrides win over module definitions, the
// shared "runtime" module answers for names no module defines, and
// the remaining modules are scanned last.
func (r *TypeResolver) Get(chain string, spec uint32, module, name string) *typedesc.Type {
	name = typedesc.Sanitize(name)
	module = strings.ToLower(module)

	cacheKey := fmt.Sprintf("%s/%d/%s/%s", chain, spec, module, name)
	r.mutex.RLock()
	cached, ok := r.cache[cacheKey]
	r.mutex.RUnlock()
	if ok {
		return cached
	}

	ty := r.lookup(chain, spec, module, name)

	r.mutex.Lock()
	r.cache[cacheKey] = ty
	r.mutex.Unlock()
	return ty
}

func (r *TypeResolver) lookup(chain string, spec uint32, module, name string) *typedesc.Type {
	for _, override := range r.overrides[chain] {
		if !override.contains(spec) {
			continue
		}
		if ty := parseKnown(override.Types, name); ty != nil {
			return ty
		}
	}

	if ty := parseKnown(r.modules[module], name); ty != nil {
		return ty
	}
	if ty := parseKnown(r.modules["runtime"], name); ty != nil {
		return ty
	}
	for otherModule, types := range r.modules {
		if otherModule == module || otherModule == "runtime" {
			continue
		}
		if ty := parseKnown(types, name); ty != nil {
			return ty
		}
	}
	return nil
}

// TryFallback returns the declared fallback definition for a type
// whose primary definition failed to decode.
func (r *TypeResolver) TryFallback(_, name string) *typedesc.Type {
	raw, ok := r.fallbacks[typedesc.Sanitize(name)]
	if !ok {
		return nil
	}
	ty, err := parseDef(raw)
	if err != nil {
		return nil
	}
	return ty
}

// GetExtrinsicType resolves types describing the extrinsic format
// itself. Chain specific entries win over the shared defaults.
func (r *TypeResolver) GetExtrinsicType(chain string, spec uint32, name string) *typedesc.Type {
	for _, scoped := range r.extrinsics[chain] {
		if !scoped.contains(spec) {
			continue
		}
		if ty := parseKnown(scoped.Types, name); ty != nil {
			return ty
		}
	}
	for _, scoped := range r.extrinsics["default"] {
		if !scoped.contains(spec) {
			continue
		}
		if ty := parseKnown(scoped.Types, name); ty != nil {
			return ty
		}
	}
	return nil
}

// parseKnown parses the named definition out of a type set,
// treating malformed definitions as absent. Dictionaries are
// validated by their own tests, not on every lookup.
func parseKnown(types rawTypes, name string) *typedesc.Type {
	raw, ok := types[name]
	if !ok {
		return nil
	}
	ty, err := parseDef(raw)
	if err != nil {
		return nil
	}
	return ty
}
