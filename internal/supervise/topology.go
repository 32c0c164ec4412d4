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

package supervise

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Topology describes a coordinator's cluster layout as an alternative
// to the "--workers <start>,<end>" flag: a named table served by an
// explicit list of worker ports, optionally spread across hosts.
type Topology struct {
	Table       string       `yaml:"table"`
	Coordinator PortSpec     `yaml:"coordinator"`
	Workers     []WorkerSpec `yaml:"workers"`
}

// PortSpec is a bind address for the coordinator's HTTP listener.
type PortSpec struct {
	Port int `yaml:"port"`
}

// WorkerSpec is one worker's location in the topology.
type WorkerSpec struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoadTopology reads and validates a YAML cluster topology file.
func LoadTopology(path string) (*Topology, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("supervise: read topology file: %w", err)
	}
	var t Topology
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("supervise: parse topology file: %w", err)
	}
	if t.Table == "" {
		return nil, fmt.Errorf("supervise: topology file missing 'table'")
	}
	if t.Coordinator.Port == 0 {
		return nil, fmt.Errorf("supervise: topology file missing 'coordinator.port'")
	}
	if len(t.Workers) == 0 {
		return nil, fmt.Errorf("supervise: topology file lists no workers")
	}
	for i, w := range t.Workers {
		if w.Port == 0 {
			return nil, fmt.Errorf("supervise: worker %d missing 'port'", i)
		}
	}
	return &t, nil
}

// LocalPorts returns the ports of every worker whose host is local
// (empty, "localhost", or "127.0.0.1") — the only ones this coordinator
// can itself supervise as child processes.
func (t *Topology) LocalPorts() []int {
	var ports []int
	for _, w := range t.Workers {
		if w.Host == "" || w.Host == "localhost" || w.Host == "127.0.0.1" {
			ports = append(ports, w.Port)
		}
	}
	return ports
}

// AllPorts returns every worker port in the topology, local or remote.
func (t *Topology) AllPorts() []int {
	ports := make([]int, len(t.Workers))
	for i, w := range t.Workers {
		ports[i] = w.Port
	}
	return ports
}
