// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package decoder

import (
	"fmt"
	"sync"

	"github.com/ChainSafe/desub/lib/metadata"
	"github.com/ChainSafe/desub/lib/typedesc"
)

// Decoder decodes extrinsics and storage for one chain. Metadata is
// registered per spec version; registration and decoding are safe
// for concurrent use.
type Decoder struct {
	chain    string
	resolver typedesc.Resolver

	mutex    sync.RWMutex
	versions map[uint32]*registeredVersion
}

type registeredVersion struct {
	meta    *metadata.Metadata
	storage *metadata.StorageLookupTable
}

// New returns a decoder for the named chain. The resolver answers
// legacy type name lookups and may be nil when only v14 metadata
// will be registered.
func New(chain string, resolver typedesc.Resolver) *Decoder {
	return &Decoder{
		chain:    chain,
		resolver: resolver,
		versions: make(map[uint32]*registeredVersion),
	}
}

// RegisterVersion decodes a metadata blob and registers it for a
// spec version. Registering the same version again replaces it.
func (d *Decoder) RegisterVersion(spec uint32, metadataBytes []byte) error {
	meta, err := metadata.Decode(metadataBytes)
	if err != nil {
		return fmt.Errorf("decoding metadata for spec %d: %w", spec, err)
	}
	return d.RegisterMetadata(spec, meta)
}

// RegisterMetadata registers already decoded metadata for a spec
// version.
func (d *Decoder) RegisterMetadata(spec uint32, meta *metadata.Metadata) error {
	storage, err := meta.StorageLookupTable()
	if err != nil {
		return fmt.Errorf("building storage lookup table for spec %d: %w", spec, err)
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.versions[spec] = &registeredVersion{meta: meta, storage: storage}
	return nil
}

// HasVersion reports whether metadata is registered for a spec
// version.
func (d *Decoder) HasVersion(spec uint32) bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	_, ok := d.versions[spec]
	return ok
}

// Metadata returns the metadata registered for a spec version.
func (d *Decoder) Metadata(spec uint32) (*metadata.Metadata, error) {
	version, err := d.version(spec)
	if err != nil {
		return nil, err
	}
	return version.meta, nil
}

func (d *Decoder) version(spec uint32) (*registeredVersion, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	version, ok := d.versions[spec]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSpecVersion, spec)
	}
	return version, nil
}
