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

var (
	indexFlag = cli.BoolFlag{
		Name:  "index",
		Usage: "include an offset index in the output",
	}
	crcFlag = cli.BoolFlag{
		Name:  "crc",
		Usage: "include a CRC-32C checksum in the output",
	}
)

var RepackCmd = cli.Command{
	Action:    doRepack,
	Name:      "repack",
	Usage:     "decode a bag and re-encode it with the selected options",
	ArgsUsage: "<input file> <output file>",
	Flags: []cli.Flag{
		&indexFlag,
		&crcFlag,
	},
}

func doRepack(context *cli.Context) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("missing input and output file parameters")
	}
	data, err := os.ReadFile(context.Args().Get(0))
	if err != nil {
		return err
	}

	roots, err := boc.Decode(data)
	if err != nil {
		return err
	}
	encoded, err := boc.EncodeWithOptions(boc.WriteOptions{
		WithIndex: context.Bool(indexFlag.Name),
		WithCRC:   context.Bool(crcFlag.Name),
	}, roots...)
	if err != nil {
		return err
	}
	return os.WriteFile(context.Args().Get(1), encoded, 0644)
}
