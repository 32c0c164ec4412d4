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

import (
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/minidb-io/minidb/internal/rpc"
)

// Serve listens on 127.0.0.1:ctx.Port and answers every connection with
// either a health-check WorkerInfo (on a bare PING) or a query result
// (on a framed QueryRequest), one goroutine per connection.
func Serve(ctx Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", ctx.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("worker: listen on %s: %w", addr, err)
	}
	log.Printf("worker listening on %s (table=%s segment=%d)", addr, ctx.Table, ctx.Segment)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("worker: accept: %w", err)
		}
		go handleConn(ctx, conn)
	}
}

func handleConn(ctx Context, conn net.Conn) {
	defer conn.Close()
	started := time.Now()

	isPing, raw, err := rpc.ReadPingMagic(conn)
	if err != nil {
		return
	}

	if isPing {
		hostname, _ := os.Hostname()
		info := rpc.WorkerInfo{PID: os.Getpid(), Port: ctx.Port, Hostname: hostname}
		if err := rpc.WriteFrame(conn, info); err != nil {
			log.Printf("worker: ping response to %s: %v", conn.RemoteAddr(), err)
		}
		return
	}

	var wireReq rpc.QueryRequest
	if err := rpc.ReadFramePayload(conn, rpc.FrameLen(raw), &wireReq); err != nil {
		log.Printf("worker: decode request from %s: %v", conn.RemoteAddr(), err)
		return
	}

	req, err := rpc.FromWireRequest(wireReq)
	if err != nil {
		log.Printf("worker: malformed request from %s: %v", conn.RemoteAddr(), err)
		return
	}
	req.Table = ctx.Table

	result := Execute(ctx, req, started)

	if err := rpc.WriteFrame(conn, ToWire(result)); err != nil {
		log.Printf("worker: write response to %s: %v", conn.RemoteAddr(), err)
	}
}
