// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package runner drives bulk decoding of archived blocks: it loads
// metadata per spec version, fans block bodies out to workers and
// isolates per-block failures so one bad block does not stop a run.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChainSafe/desub/internal/database"
	"github.com/ChainSafe/desub/internal/log"
	"github.com/ChainSafe/desub/lib/decoder"
)

const defaultWorkers = 4

// Runner decodes archived blocks through a shared decoder.
type Runner struct {
	database *database.Database
	decoder  *decoder.Decoder
	logger   *log.Logger
	workers  int
}

// Summary aggregates the outcome of a decoding run.
type Summary struct {
	Blocks     int
	Extrinsics int
	Failed     int
}

func (s *Summary) add(other Summary) {
	s.Blocks += other.Blocks
	s.Extrinsics += other.Extrinsics
	s.Failed += other.Failed
}

// String renders the summary for the end-of-run log line.
func (s Summary) String() string {
	return fmt.Sprintf("%d blocks, %d extrinsics, %d failures",
		s.Blocks, s.Extrinsics, s.Failed)
}

// New returns a runner. workers at or below zero selects the
// default worker count.
func New(db *database.Database, dec *decoder.Decoder,
	logger *log.Logger, workers int) *Runner {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Runner{
		database: db,
		decoder:  dec,
		logger:   logger,
		workers:  workers,
	}
}

// ensureMetadata registers the metadata for a spec version with the
// decoder, fetching it from the archive on first use.
func (r *Runner) ensureMetadata(ctx context.Context, spec uint32) error {
	if r.decoder.HasVersion(spec) {
		return nil
	}

	meta, err := r.database.Metadata(ctx, spec)
	if err != nil {
		return err
	}
	if err := r.decoder.RegisterVersion(spec, meta); err != nil {
		return err
	}
	r.logger.Infof("registered metadata for spec %d", spec)
	return nil
}

// DecodeBlock decodes the extrinsics of a single block.
func (r *Runner) DecodeBlock(ctx context.Context, number uint32) ([]*decoder.Extrinsic, error) {
	block, err := r.database.Block(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := r.ensureMetadata(ctx, block.Spec); err != nil {
		return nil, err
	}
	return r.decoder.DecodeExtrinsics(block.Spec, block.Ext)
}

// DecodeSpec decodes every block produced under one spec version.
func (r *Runner) DecodeSpec(ctx context.Context, spec uint32) (Summary, error) {
	if err := r.ensureMetadata(ctx, spec); err != nil {
		return Summary{}, err
	}
	blocks, err := r.database.BlocksBySpec(ctx, spec)
	if err != nil {
		return Summary{}, err
	}
	return r.decodeBlocks(ctx, blocks), nil
}

// DecodeUpTo decodes every block up to and including a block number.
func (r *Runner) DecodeUpTo(ctx context.Context, number uint32) (Summary, error) {
	blocks, err := r.database.BlocksUpTo(ctx, number)
	if err != nil {
		return Summary{}, err
	}
	return r.decodeBlocks(ctx, blocks), nil
}

// DecodeAll decodes every archived block, spec version by spec
// version.
func (r *Runner) DecodeAll(ctx context.Context) (Summary, error) {
	versions, err := r.database.SpecVersions(ctx)
	if err != nil {
		return Summary{}, err
	}

	var total Summary
	for _, spec := range versions {
		summary, err := r.DecodeSpec(ctx, spec)
		if err != nil {
			// a spec with no usable metadata should not sink the rest
			r.logger.Errorf("spec %d: %s", spec, err)
			continue
		}
		r.logger.Infof("spec %d: %s", spec, summary)
		total.add(summary)
	}
	return total, nil
}

// decodeBlocks fans blocks out to the worker pool. Failures are
// logged and counted, never fatal.
func (r *Runner) decodeBlocks(ctx context.Context, blocks []*database.Block) Summary {
	jobs := make(chan *database.Block)
	var wg sync.WaitGroup
	var mutex sync.Mutex
	var summary Summary

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for block := range jobs {
				extrinsics, err := r.decodeBlock(ctx, block)

				mutex.Lock()
				summary.Blocks++
				summary.Extrinsics += len(extrinsics)
				if err != nil {
					summary.Failed++
				}
				mutex.Unlock()

				if err != nil {
					r.logger.Errorf("block %d (spec %d): %s",
						block.BlockNum, block.Spec, err)
				}
			}
		}()
	}

	for _, block := range blocks {
		jobs <- block
	}
	close(jobs)
	wg.Wait()
	return summary
}

func (r *Runner) decodeBlock(ctx context.Context, block *database.Block) ([]*decoder.Extrinsic, error) {
	if err := r.ensureMetadata(ctx, block.Spec); err != nil {
		return nil, err
	}
	extrinsics, err := r.decoder.DecodeExtrinsics(block.Spec, block.Ext)
	if err != nil {
		return extrinsics, err
	}
	r.logger.Debugf("block %d: decoded %d extrinsics", block.BlockNum, len(extrinsics))
	return extrinsics, nil
}
