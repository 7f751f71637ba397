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
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/0xsoniclabs/cellar/boc"
)

var InfoCmd = cli.Command{
	Action:    doInfo,
	Name:      "info",
	Usage:     "print header information of an encoded bag of cells",
	ArgsUsage: "<bag file>",
}

var HashCmd = cli.Command{
	Action:    doHash,
	Name:      "hash",
	Usage:     "print the identity hashes of the roots of an encoded bag",
	ArgsUsage: "<bag file>",
}

func doInfo(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing bag file parameter")
	}
	data, err := os.ReadFile(context.Args().Get(0))
	if err != nil {
		return err
	}

	info, err := boc.Inspect(data)
	if err != nil {
		return err
	}
	out := context.App.Writer
	fmt.Fprintf(out, "cells:        %d\n", info.CellCount)
	fmt.Fprintf(out, "roots:        %d\n", info.RootCount)
	fmt.Fprintf(out, "payload size: %d bytes\n", info.DataSize)
	fmt.Fprintf(out, "ref size:     %d bytes\n", info.RefSize)
	fmt.Fprintf(out, "offset size:  %d bytes\n", info.OffsetSize)
	fmt.Fprintf(out, "index:        %t\n", info.HasIndex)
	fmt.Fprintf(out, "checksum:     %t\n", info.HasCRC)
	return nil
}

func doHash(context *cli.Context) error {
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
	for _, root := range roots {
		fmt.Fprintf(context.App.Writer, "%s\n", root.Hash())
	}
	return nil
}
