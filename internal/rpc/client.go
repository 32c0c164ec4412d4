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

package rpc

import (
	"context"
	"fmt"
	"net"
)

// QueryWorker dials a worker on port, sends req framed, and returns its
// decoded partial aggregate.
func QueryWorker(ctx context.Context, port int, req QueryRequest) (PartialAggregate, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return PartialAggregate{}, fmt.Errorf("rpc: dial worker %d: %w", port, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := WriteFrame(conn, req); err != nil {
		return PartialAggregate{}, fmt.Errorf("rpc: send request to worker %d: %w", port, err)
	}

	var resp PartialAggregate
	if err := ReadFrame(conn, &resp); err != nil {
		return PartialAggregate{}, fmt.Errorf("rpc: read response from worker %d: %w", port, err)
	}
	return resp, nil
}

// PingWorker dials a worker on port and confirms it answers the bare
// PING health check with a well-formed WorkerInfo.
func PingWorker(ctx context.Context, port int) (WorkerInfo, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return WorkerInfo{}, fmt.Errorf("rpc: dial worker %d: %w", port, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := WritePing(conn); err != nil {
		return WorkerInfo{}, fmt.Errorf("rpc: send ping to worker %d: %w", port, err)
	}

	var info WorkerInfo
	if err := ReadFrame(conn, &info); err != nil {
		return WorkerInfo{}, fmt.Errorf("rpc: read ping response from worker %d: %w", port, err)
	}
	return info, nil
}
