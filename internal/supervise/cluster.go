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

// Package supervise spawns and reaps the worker processes a
// coordinator owns.
package supervise

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Cluster tracks the worker child processes a coordinator started, so
// it can kill and reap them on shutdown.
type Cluster struct {
	procs []*exec.Cmd
}

// Start launches one worker process per port in ports, each bound to
// segment index i (its position in ports) of table, using the workerd
// binary sitting next to the current executable.
func (c *Cluster) Start(ports []int, table string) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("supervise: resolve own executable: %w", err)
	}
	workerBin := filepath.Join(filepath.Dir(exePath), "workerd")

	for i, port := range ports {
		log.Printf("supervise: starting worker on port %d (segment %d)", port, i)
		cmd := exec.Command(workerBin,
			"--port", fmt.Sprintf("%d", port),
			"--table", table,
			"--segment", fmt.Sprintf("%d", i),
		)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			c.Stop()
			return fmt.Errorf("supervise: start worker on port %d: %w", port, err)
		}
		c.procs = append(c.procs, cmd)
	}

	// Give workers a moment to bind their listeners before the
	// coordinator starts routing queries to them.
	time.Sleep(300 * time.Millisecond)
	log.Printf("supervise: all %d workers started", len(ports))
	return nil
}

// Stop kills every supervised worker process and reaps it.
func (c *Cluster) Stop() {
	for _, cmd := range c.procs {
		if cmd.Process == nil {
			continue
		}
		if err := cmd.Process.Kill(); err != nil {
			log.Printf("supervise: kill pid %d: %v", cmd.Process.Pid, err)
			continue
		}
		cmd.Wait()
	}
	c.procs = nil
}

// ResolveWorkerPorts expands a "<start>,<end>" port-range spec into the
// individual ports, matching the original coordinator's --workers flag.
func ResolveWorkerPorts(rangeSpec string) ([]int, error) {
	var start, end int
	if _, err := fmt.Sscanf(rangeSpec, "%d,%d", &start, &end); err != nil {
		return nil, fmt.Errorf("supervise: invalid worker range %q, expected <start>,<end>", rangeSpec)
	}
	if start > end {
		return nil, fmt.Errorf("supervise: worker range start must be <= end")
	}
	ports := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		ports = append(ports, p)
	}
	return ports, nil
}
