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

// Command coordinatord serves the HTTP query surface, fanning every
// query out to the worker ports it was told about (by flag or by a
// YAML cluster topology file) and optionally supervising those worker
// processes itself.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/minidb-io/minidb/internal/coordinator"
	"github.com/minidb-io/minidb/internal/supervise"
)

func main() {
	log.Default().SetOutput(os.Stdout)

	port := flag.Int("port", 0, "TCP port for the HTTP /query endpoint")
	table := flag.String("table", "", "table directory this coordinator serves")
	workers := flag.String("workers", "", "worker port range \"<start>,<end>\"")
	topologyPath := flag.String("topology", "", "path to a YAML cluster topology file (overrides --workers/--table)")
	spawnWorkers := flag.Bool("spawn-workers", false, "spawn and supervise a workerd process per segment")
	flag.Parse()

	var workerPorts []int
	var localPorts []int
	var tableDir string

	if *topologyPath != "" {
		topo, err := supervise.LoadTopology(*topologyPath)
		if err != nil {
			log.Fatalf("coordinatord: %v", err)
		}
		tableDir = topo.Table
		workerPorts = topo.AllPorts()
		localPorts = topo.LocalPorts()
		if *port == 0 {
			*port = topo.Coordinator.Port
		}
	} else {
		if *port == 0 || *table == "" || *workers == "" {
			fmt.Fprintln(os.Stderr, "usage: coordinatord --port <n> --table <dir> --workers <start>,<end> [--spawn-workers]")
			fmt.Fprintln(os.Stderr, "   or: coordinatord --topology <cluster.yaml> [--spawn-workers]")
			os.Exit(1)
		}
		tableDir = *table
		ports, err := supervise.ResolveWorkerPorts(*workers)
		if err != nil {
			log.Fatalf("coordinatord: %v", err)
		}
		workerPorts = ports
		localPorts = ports
	}

	var cluster supervise.Cluster
	if *spawnWorkers {
		if err := cluster.Start(localPorts, tableDir); err != nil {
			log.Fatalf("coordinatord: %v", err)
		}
		defer cluster.Stop()
	}

	srv := &coordinator.Server{Table: tableDir, WorkerPorts: workerPorts}
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", *port),
		Handler: srv.Handler(),
	}

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		cluster.Stop()
		os.Exit(0)
	}()

	log.Printf("coordinator listening on %s (table=%s, %d workers)", httpSrv.Addr, tableDir, len(workerPorts))
	if err := httpSrv.ListenAndServe(); err != nil {
		log.Fatalf("coordinatord: %v", err)
	}
}
