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

package coordinator

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/minidb-io/minidb/internal/query"
	"github.com/minidb-io/minidb/internal/rpc"
)

// goodWorker listens on an ephemeral port and answers every query with
// a fixed partial reporting rows scanned rows (and COUNT(*) = rows),
// until the test ends.
func goodWorker(t *testing.T, rows uint64) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				var req rpc.QueryRequest
				if err := rpc.ReadFrame(conn, &req); err != nil {
					return
				}
				resp := rpc.PartialAggregate{
					RowsScanned: rows,
					Groups: rpc.GroupMap{
						"all": rpc.GroupAggregate{
							"COUNT(*)": {Count: rows, ValueType: "Int"},
						},
					},
				}
				rpc.WriteFrame(conn, resp)
			}()
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

// deadWorker listens on an ephemeral port and closes every connection
// the instant it arrives, without ever writing a response — enough to
// fail both Dispatch's initial attempt and its retry.
func deadWorker(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestDispatchSubstitutesSyntheticPartialAfterTwoFailures(t *testing.T) {
	good := goodWorker(t, 3)
	bad := deadWorker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results, err := Dispatch(ctx, []int{good, bad}, &query.Request{Table: "sales"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2 (one per port, including the failed one)", len(results))
	}

	merged := MergePartials(results)
	if merged.RowsScanned != 3 {
		t.Errorf("RowsScanned = %d, want 3 (only the good worker's rows)", merged.RowsScanned)
	}
	if merged.SegmentsSkipped != 1 {
		t.Errorf("SegmentsSkipped = %d, want 1 (synthetic partial for the twice-failed worker)", merged.SegmentsSkipped)
	}
	count := merged.Groups["all"]["COUNT(*)"]
	if count == nil || count.Count != 3 {
		t.Errorf("COUNT(*) = %+v, want 3", count)
	}
}

func TestDispatchAllWorkersFailYieldsAllSyntheticPartials(t *testing.T) {
	bad1 := deadWorker(t)
	bad2 := deadWorker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results, err := Dispatch(ctx, []int{bad1, bad2}, &query.Request{Table: "sales"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	merged := MergePartials(results)
	if merged.SegmentsSkipped != 2 {
		t.Errorf("SegmentsSkipped = %d, want 2", merged.SegmentsSkipped)
	}
	if merged.RowsScanned != 0 {
		t.Errorf("RowsScanned = %d, want 0", merged.RowsScanned)
	}
}
