// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package typedesc

// Resolver maps type names found in legacy metadata to grammar
// nodes. Implementations answer for a chain and spec version since
// the same name can change shape across runtime upgrades.
type Resolver interface {
	// Get returns the type for a name in the context of a module,
	// or nil when the name is unknown.
	Get(chain string, spec uint32, module, name string) *Type
	// TryFallback returns an alternative type for a name whose
	// primary definition failed to decode, or nil.
	TryFallback(module, name string) *Type
	// GetExtrinsicType returns types describing the extrinsic
	// format itself, such as "signature" or "SignedExtra".
	GetExtrinsicType(chain string, spec uint32, name string) *Type
}
