// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/0xsoniclabs/cellar/boc"
	"github.com/0xsoniclabs/cellar/cell"
	"github.com/0xsoniclabs/cellar/store"
)

var dbFlag = cli.StringFlag{
	Name:     "db",
	Usage:    "directory of the cell store",
	Required: true,
}

var StoreCmd = cli.Command{
	Name:  "store",
	Usage: "interact with a content-addressed cell store",
	Flags: []cli.Flag{
		&dbFlag,
	},
	Subcommands: []*cli.Command{
		{
			Action:    doStorePut,
			Name:      "put",
			Usage:     "store the root trees of a bag file, printing their hashes",
			ArgsUsage: "<bag file>",
		},
		{
			Action:    doStoreGet,
			Name:      "get",
			Usage:     "write the tree stored under a hash as a bag file",
			ArgsUsage: "<hex hash> <output file>",
		},
	},
}

func doStorePut(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing bag file parameter")
	}
	data, err := os.ReadFile(context.Args().Get(0))
	if err != nil {
		return err
	}
	roots, err := boc.Decode(data)
	if err != nil {
		return err
	}

	db, err := store.Open(context.String(dbFlag.Name))
	if err != nil {
		return err
	}
	defer db.Close()
	for _, root := range roots {
		if err := db.Put(root); err != nil {
			return err
		}
		fmt.Fprintf(context.App.Writer, "%s\n", root.Hash())
	}
	return nil
}

func doStoreGet(context *cli.Context) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("missing hash and output file parameters")
	}
	var hash cell.Hash
	raw, err := hex.DecodeString(context.Args().Get(0))
	if err != nil || len(raw) != len(hash) {
		return fmt.Errorf("invalid hash %q", context.Args().Get(0))
	}
	copy(hash[:], raw)

	db, err := store.Open(context.String(dbFlag.Name))
	if err != nil {
		return err
	}
	defer db.Close()
	root, err := db.Load(hash)
	if err != nil {
		return err
	}
	encoded, err := boc.Encode(root)
	if err != nil {
		return err
	}
	return os.WriteFile(context.Args().Get(1), encoded, 0644)
}
