// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Adds or verifies the license header of the repository's Go sources.
// Usage: go run ./scripts/license [--check] [-dir <root>]

package main

import (
	_ "embed"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

//go:embed license_header.txt
var licenseText string

func main() {
	checkOnly := flag.Bool("check", false, "only report files with a missing or outdated header")
	dir := flag.String("dir", ".", "root directory to process")
	flag.Parse()

	header := commentedHeader()
	var failed []string
	err := filepath.Walk(*dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !wantsHeader(path) {
			return nil
		}
		ok, err := ensureHeader(path, header, *checkOnly)
		if err != nil {
			return err
		}
		if !ok {
			failed = append(failed, path)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	if len(failed) > 0 {
		for _, path := range failed {
			fmt.Printf("missing or outdated license header: %s\n", path)
		}
		os.Exit(1)
	}
}

// wantsHeader selects the files the header applies to. Generated code and
// the reference material under _examples are skipped by path.
func wantsHeader(path string) bool {
	if strings.Contains(path, "/_examples/") || strings.HasSuffix(path, ".pb.go") {
		return false
	}
	return strings.HasSuffix(path, ".go") || filepath.Base(path) == "go.mod"
}

// commentedHeader renders the embedded header text as a Go comment block.
func commentedHeader() string {
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(licenseText, "\n"), "\n") {
		if line == "" {
			sb.WriteString("//\n")
		} else {
			sb.WriteString("// " + line + "\n")
		}
	}
	return sb.String()
}

// ensureHeader reports whether the file starts with the expected header and,
// unless checkOnly is set, rewrites the file to carry it. An outdated header
// from an earlier year is replaced up to its trailing blank line.
func ensureHeader(path, header string, checkOnly bool) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	content := string(raw)
	if strings.HasPrefix(content, "// Code generated") {
		return true, nil
	}
	if strings.HasPrefix(content, header) {
		return true, nil
	}
	if checkOnly {
		return false, nil
	}

	if strings.Contains(strings.SplitN(content, "\n", 2)[0], "Copyright") {
		if _, rest, found := strings.Cut(content, "\n\n"); found {
			content = rest
		}
	}
	if err := os.WriteFile(path, []byte(header+"\n"+content), 0644); err != nil {
		return false, err
	}
	return true, nil
}
