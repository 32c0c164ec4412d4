// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command tablectl manages a table's on-disk directory: schema
// initialization, CSV loading into segments, and inspection.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/minidb-io/minidb/internal/storage"
)

func exitf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+f+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "load":
		runLoad(os.Args[2:])
	case "info":
		runInfo(os.Args[2:])
	case "schema":
		runSchema(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "    %s init <dir> --schema <path>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s load <dir> --csv <path> --sort-key <col> --segments <n>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s info <dir>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s schema show <dir>\n", os.Args[0])
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "path to a _schema.ssf-format schema file")
	fs.Parse(args)
	if fs.NArg() != 1 || *schemaPath == "" {
		exitf("usage: init <dir> --schema <path>")
	}
	dir := fs.Arg(0)

	text, err := os.ReadFile(*schemaPath)
	if err != nil {
		exitf("reading schema file: %s", err)
	}
	if err := storage.Init(dir, string(text)); err != nil {
		exitf("%s", err)
	}
	fmt.Printf("Initialized table %s\n", dir)
}

func runLoad(args []string) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	csvPath := fs.String("csv", "", "path to the CSV file to load")
	sortKey := fs.String("sort-key", "", "name of the key column to sort by")
	segments := fs.Int("segments", 0, "number of segments to split the table into")
	fs.Parse(args)
	if fs.NArg() != 1 || *csvPath == "" || *sortKey == "" || *segments <= 0 {
		exitf("usage: load <dir> --csv <path> --sort-key <col> --segments <n>")
	}
	dir := fs.Arg(0)

	sch, err := storage.ReadSchema(dir)
	if err != nil {
		exitf("%s", err)
	}
	if err := storage.Load(dir, *csvPath, *sortKey, *segments, sch); err != nil {
		exitf("%s", err)
	}
	fmt.Printf("Loaded CSV into %d segments\n", *segments)
}

func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		exitf("usage: info <dir>")
	}
	dir := fs.Arg(0)

	meta, err := storage.ReadMetadata(dir)
	if err != nil {
		exitf("%s", err)
	}
	nsegs, err := storage.CountSegments(dir)
	if err != nil {
		exitf("%s", err)
	}
	fmt.Printf("version:              %d\n", meta.Version)
	fmt.Printf("block_rows:           %d\n", meta.BlockRows)
	fmt.Printf("segment_target_rows:  %d\n", meta.SegmentTargetRows)
	fmt.Printf("endianness:           %s\n", meta.Endianness)
	fmt.Printf("segments:             %d\n", nsegs)
}

func runSchema(args []string) {
	if len(args) < 2 || args[0] != "show" {
		exitf("usage: schema show <dir>")
	}
	dir := args[1]
	text, err := storage.RawSchemaText(dir)
	if err != nil {
		exitf("%s", err)
	}
	fmt.Print(text)
}
