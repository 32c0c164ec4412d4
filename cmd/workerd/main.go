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

// Command workerd serves one segment of a table to the coordinator
// that queries it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/minidb-io/minidb/internal/worker"
)

func main() {
	log.Default().SetOutput(os.Stdout)

	port := flag.Int("port", 0, "TCP port to listen on")
	table := flag.String("table", "", "table directory this worker serves")
	segment := flag.Int("segment", -1, "segment index this worker scans")
	flag.Parse()

	if *port == 0 || *table == "" || *segment < 0 {
		fmt.Fprintln(os.Stderr, "usage: workerd --port <n> --table <dir> --segment <n>")
		os.Exit(1)
	}

	ctx := worker.Context{Port: *port, Table: *table, Segment: *segment}
	if err := worker.Serve(ctx); err != nil {
		log.Fatalf("workerd: %v", err)
	}
}
