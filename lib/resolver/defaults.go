// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package resolver

import (
	_ "embed"
)

//go:embed defaults/definitions.json
var defaultDefinitions []byte

//go:embed defaults/overrides.json
var defaultOverrides []byte

//go:embed defaults/extrinsics.json
var defaultExtrinsics []byte

// Default returns a resolver over the dictionaries shipped with the
// package, covering the common Substrate runtime modules.
func Default() (*TypeResolver, error) {
	return New(defaultDefinitions, defaultOverrides, defaultExtrinsics)
}
