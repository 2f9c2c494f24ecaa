// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metadata

import (
	"errors"
)

var (
	// ErrInvalidPrefix is returned when the metadata blob does not
	// start with the magic number.
	ErrInvalidPrefix = errors.New("metadata does not start with magic number")
	// ErrVersionNotSupported is returned for metadata versions
	// outside the supported 8 through 14 range.
	ErrVersionNotSupported = errors.New("metadata version is not supported")
	// ErrInvalidType is returned when a metadata type string does
	// not parse against the type grammar.
	ErrInvalidType = errors.New("invalid type string")
	// ErrInvalidHasher is returned for an unknown storage hasher
	// discriminant.
	ErrInvalidHasher = errors.New("invalid storage hasher")
	// ErrInvalidStorageType is returned for an unknown storage
	// entry type discriminant.
	ErrInvalidStorageType = errors.New("invalid storage entry type")
	// ErrInvalidModifier is returned for an unknown storage entry
	// modifier discriminant.
	ErrInvalidModifier = errors.New("invalid storage entry modifier")
	// ErrInvalidTypeDef is returned for an unknown portable registry
	// type definition discriminant.
	ErrInvalidTypeDef = errors.New("invalid registry type definition")
	// ErrTypeNotFound is returned when a portable registry id has
	// no definition.
	ErrTypeNotFound = errors.New("type not found in registry")
	// ErrModuleNotFound is returned when looking up a module that
	// does not exist in the metadata.
	ErrModuleNotFound = errors.New("module not found in metadata")
	// ErrCallNotFound is returned when a module has no call at the
	// given index.
	ErrCallNotFound = errors.New("call not found in module")
)
