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

// Command compactor writes an RLE1 run-length encoded copy of a column
// file and reports whether that copy is smaller than the raw original.
// The copy is written whatever its size, and never in place: the caller
// decides whether to keep it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/minidb-io/minidb/internal/column"
	"github.com/minidb-io/minidb/internal/storage"
)

func main() {
	dir := flag.String("dir", "", "table directory")
	segment := flag.Int("segment", -1, "segment index")
	col := flag.String("column", "", "column name to compact")
	out := flag.String("out", "", "output path for the RLE1-encoded column (default: <column>.rle1)")
	flag.Parse()

	if *dir == "" || *segment < 0 || *col == "" {
		fmt.Fprintln(os.Stderr, "usage: compactor --dir <table-dir> --segment <n> --column <name> [--out <path>]")
		os.Exit(1)
	}

	sch, err := storage.ReadSchema(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	colDef, ok := sch.ByName(*col)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no such column %q\n", *col)
		os.Exit(1)
	}

	segDir := storage.SegmentDir(*dir, *segment)
	srcPath := segDir + "/" + *col + ".bin"
	dstPath := *out
	if dstPath == "" {
		dstPath = segDir + "/" + *col + ".rle1"
	}

	if err := column.CompactToRLE(srcPath, dstPath, colDef.Type); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	srcInfo, errSrc := os.Stat(srcPath)
	dstInfo, errDst := os.Stat(dstPath)
	if errSrc == nil && errDst == nil {
		fmt.Printf("raw: %d bytes, rle1: %d bytes\n", srcInfo.Size(), dstInfo.Size())
		if dstInfo.Size() < srcInfo.Size() {
			fmt.Println("rle1 is smaller: safe to replace the raw column file with it")
		} else {
			fmt.Println("rle1 is not smaller: keeping the raw column file is recommended")
		}
	}
}
