// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"github.com/urfave/cli"
)

var (
	// DatabaseFlag is the archive database connection string.
	DatabaseFlag = cli.StringFlag{
		Name:   "database, d",
		Usage:  "PostgreSQL connection string of the block archive",
		EnvVar: "DESUB_DATABASE",
	}
	// ChainFlag selects the dictionary overrides for a chain.
	ChainFlag = cli.StringFlag{
		Name:  "chain, n",
		Usage: "Chain name used for type overrides, eg. kusama or polkadot",
		Value: "kusama",
	}
	// BlockFlag decodes a single block.
	BlockFlag = cli.Uint64Flag{
		Name:  "block, b",
		Usage: "Decode the extrinsics of a single block number",
	}
	// SpecFlag decodes every block of one spec version.
	SpecFlag = cli.Uint64Flag{
		Name:  "spec, s",
		Usage: "Decode every block produced under a spec version",
	}
	// UpToFlag decodes all blocks up to a block number.
	UpToFlag = cli.Uint64Flag{
		Name:  "upto, u",
		Usage: "Decode every block up to and including a block number",
	}
	// AllFlag decodes the whole archive.
	AllFlag = cli.BoolFlag{
		Name:  "all, a",
		Usage: "Decode every archived block",
	}
	// PrettyFlag prints the metadata tree instead of decoding.
	PrettyFlag = cli.BoolFlag{
		Name:  "pretty, p",
		Usage: "Print the metadata of the selected spec version as a tree",
	}
	// WorkersFlag sets the decoding worker count.
	WorkersFlag = cli.IntFlag{
		Name:  "workers, w",
		Usage: "Number of concurrent block decoding workers",
	}
	// LogFlag sets the log level.
	LogFlag = cli.StringFlag{
		Name:  "log, l",
		Usage: "Log level. Supports crit, eror, warn, info, dbug and trce",
		Value: "info",
	}
)
