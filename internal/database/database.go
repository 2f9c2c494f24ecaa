// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package database reads archived blocks and runtime metadata from
// the PostgreSQL schema populated by the chain archiver.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	_ "github.com/lib/pq" // postgres driver
)

var (
	ErrBlockNotFound    = errors.New("block not found")
	ErrMetadataNotFound = errors.New("metadata not found")
)

// metadataCacheSize bounds the in-memory metadata blobs. Spec
// versions are revisited constantly when decoding block ranges and
// the blobs run to hundreds of kilobytes.
const metadataCacheSize = 16

// Block is one archived block row.
type Block struct {
	ID             int
	ParentHash     []byte
	Hash           []byte
	BlockNum       uint32
	StateRoot      []byte
	ExtrinsicsRoot []byte
	Digest         []byte
	// Ext is the SCALE encoded extrinsics vector of the block body.
	Ext  []byte
	Spec uint32
}

// Database wraps the archive connection.
type Database struct {
	db        *sql.DB
	metaCache *lru.Cache
}

// Connect opens the archive database and verifies the connection.
func Connect(ctx context.Context, dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	metaCache, err := lru.New(metadataCacheSize)
	if err != nil {
		return nil, err
	}
	return &Database{db: db, metaCache: metaCache}, nil
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}

const blockColumns = `id, parent_hash, hash, block_num, state_root,
	extrinsics_root, digest, ext, spec`

func scanBlock(row interface{ Scan(...interface{}) error }) (*Block, error) {
	block := &Block{}
	err := row.Scan(&block.ID, &block.ParentHash, &block.Hash, &block.BlockNum,
		&block.StateRoot, &block.ExtrinsicsRoot, &block.Digest, &block.Ext, &block.Spec)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// Block returns the block with the given number.
func (d *Database) Block(ctx context.Context, number uint32) (*Block, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE block_num = $1`, number)
	block, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: number %d", ErrBlockNotFound, number)
	} else if err != nil {
		return nil, fmt.Errorf("querying block %d: %w", number, err)
	}
	return block, nil
}

// BlocksBySpec returns every block produced under a spec version,
// ordered by block number.
func (d *Database) BlocksBySpec(ctx context.Context, spec uint32) ([]*Block, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE spec = $1 ORDER BY block_num`, spec)
	if err != nil {
		return nil, fmt.Errorf("querying blocks for spec %d: %w", spec, err)
	}
	return collectBlocks(rows)
}

// BlocksUpTo returns every block with a number at or below the
// given one, ordered by block number.
func (d *Database) BlocksUpTo(ctx context.Context, number uint32) ([]*Block, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE block_num <= $1 ORDER BY block_num`, number)
	if err != nil {
		return nil, fmt.Errorf("querying blocks up to %d: %w", number, err)
	}
	return collectBlocks(rows)
}

func collectBlocks(rows *sql.Rows) ([]*Block, error) {
	defer rows.Close()

	var blocks []*Block
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning block row: %w", err)
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// Metadata returns the raw metadata blob for a spec version.
func (d *Database) Metadata(ctx context.Context, spec uint32) ([]byte, error) {
	if cached, ok := d.metaCache.Get(spec); ok {
		return cached.([]byte), nil
	}

	var meta []byte
	err := d.db.QueryRowContext(ctx,
		`SELECT meta FROM metadata WHERE version = $1`, spec).Scan(&meta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: spec %d", ErrMetadataNotFound, spec)
	} else if err != nil {
		return nil, fmt.Errorf("querying metadata for spec %d: %w", spec, err)
	}

	d.metaCache.Add(spec, meta)
	return meta, nil
}

// SpecVersions returns every spec version with archived metadata,
// in ascending order.
func (d *Database) SpecVersions(ctx context.Context) ([]uint32, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT version FROM metadata ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("querying spec versions: %w", err)
	}
	defer rows.Close()

	var versions []uint32
	for rows.Next() {
		var version uint32
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning spec version: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return versions, nil
}
