// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Command desub decodes SCALE encoded extrinsics out of an archived
// Substrate chain, using the runtime metadata stored alongside the
// blocks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ChainSafe/desub/internal/database"
	"github.com/ChainSafe/desub/internal/log"
	"github.com/ChainSafe/desub/internal/runner"
	"github.com/ChainSafe/desub/lib/decoder"
	"github.com/ChainSafe/desub/lib/resolver"
	"github.com/urfave/cli"
)

var errNothingToDo = errors.New("one of --block, --spec, --upto, --all or --pretty is required")

func main() {
	app := cli.NewApp()
	app.Name = "desub"
	app.Usage = "decode extrinsics and storage of an archived Substrate chain"
	app.Flags = []cli.Flag{
		DatabaseFlag,
		ChainFlag,
		BlockFlag,
		SpecFlag,
		UpToFlag,
		AllFlag,
		PrettyFlag,
		WorkersFlag,
		LogFlag,
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	level, err := log.ParseLevel(ctx.String("log"))
	if err != nil {
		return err
	}
	logger := log.New(log.SetWriter(os.Stderr), log.SetLevel(level))

	runCtx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := ctx.String("database")
	if dsn == "" {
		return fmt.Errorf("the %s flag is required", DatabaseFlag.Name)
	}
	db, err := database.Connect(runCtx, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warnf("closing database: %s", err)
		}
	}()

	types, err := resolver.Default()
	if err != nil {
		return fmt.Errorf("loading type dictionaries: %w", err)
	}
	dec := decoder.New(ctx.String("chain"), types)
	blocks := runner.New(db, dec, logger, ctx.Int("workers"))

	switch {
	case ctx.Bool("pretty"):
		return printMetadata(runCtx, db, dec, uint32(ctx.Uint64("spec")))
	case ctx.IsSet("block"):
		return printBlock(runCtx, blocks, uint32(ctx.Uint64("block")))
	case ctx.IsSet("spec"):
		summary, err := blocks.DecodeSpec(runCtx, uint32(ctx.Uint64("spec")))
		if err != nil {
			return err
		}
		logger.Infof("done: %s", summary)
		return nil
	case ctx.IsSet("upto"):
		summary, err := blocks.DecodeUpTo(runCtx, uint32(ctx.Uint64("upto")))
		if err != nil {
			return err
		}
		logger.Infof("done: %s", summary)
		return nil
	case ctx.Bool("all"):
		summary, err := blocks.DecodeAll(runCtx)
		if err != nil {
			return err
		}
		logger.Infof("done: %s", summary)
		return nil
	default:
		return errNothingToDo
	}
}

// printBlock decodes one block and writes its extrinsics as JSON to
// stdout. Decoding failures inside the block still print the
// extrinsics that decoded.
func printBlock(ctx context.Context, blocks *runner.Runner, number uint32) error {
	extrinsics, err := blocks.DecodeBlock(ctx, number)
	if err != nil && len(extrinsics) == 0 {
		return err
	}

	encoded, marshalErr := json.MarshalIndent(extrinsics, "", "  ")
	if marshalErr != nil {
		return marshalErr
	}
	fmt.Println(string(encoded))
	return err
}

// printMetadata loads the metadata for a spec version and prints it
// as a tree.
func printMetadata(ctx context.Context, db *database.Database,
	dec *decoder.Decoder, spec uint32) error {
	raw, err := db.Metadata(ctx, spec)
	if err != nil {
		return err
	}
	if err := dec.RegisterVersion(spec, raw); err != nil {
		return err
	}
	meta, err := dec.Metadata(spec)
	if err != nil {
		return err
	}
	fmt.Println(meta.Pretty())
	return nil
}
