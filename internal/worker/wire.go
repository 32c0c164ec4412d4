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

package worker

import "github.com/minidb-io/minidb/internal/rpc"

// ToWire converts a Result to its wire form for transmission back to
// the coordinator.
func ToWire(r Result) rpc.PartialAggregate {
	return rpc.PartialAggregate{
		WorkerPort:      r.WorkerPort,
		Segment:         r.Segment,
		RowsScanned:     r.RowsScanned,
		SegmentsSkipped: r.SegmentsSkipped,
		ExecMS:          r.ExecMS,
		Groups:          rpc.ToWireGroups(r.Groups),
	}
}

// FromWire converts a wire PartialAggregate back to a Result, used by
// the coordinator when it receives a worker's response.
func FromWire(p rpc.PartialAggregate) Result {
	return Result{
		WorkerPort:      p.WorkerPort,
		Segment:         p.Segment,
		RowsScanned:     p.RowsScanned,
		SegmentsSkipped: p.SegmentsSkipped,
		ExecMS:          p.ExecMS,
		Groups:          rpc.FromWireGroups(p.Groups),
	}
}
