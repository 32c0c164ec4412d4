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
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/minidb-io/minidb/internal/eval"
	"github.com/minidb-io/minidb/internal/query"
	"github.com/minidb-io/minidb/internal/rpc"
	"github.com/minidb-io/minidb/internal/worker"
)

// RunQuery dispatches req to every worker in workerPorts concurrently,
// merges the partials that came back, and renders the result table.
// A worker that fails is retried once; if it still fails, a synthetic
// empty partial stands in for its segment so the failure is visible in
// the merged segments_skipped count instead of vanishing silently.
func RunQuery(ctx context.Context, workerPorts []int, req *query.Request) (string, error) {
	partials, err := Dispatch(ctx, workerPorts, req)
	if err != nil {
		return "", err
	}
	merged := MergePartials(partials)
	return FormatResults(merged, req.GroupBy), nil
}

// Dispatch queries every worker port concurrently and returns one
// partial per port, in the same order as workerPorts (each goroutine
// writes into its port's slot of a pre-sized slice). A port whose worker
// fails twice still contributes a synthetic partial rather than being
// dropped, so the caller always gets len(workerPorts) results.
func Dispatch(ctx context.Context, workerPorts []int, req *query.Request) ([]worker.Result, error) {
	wireReq := rpc.ToWireRequest(req)
	results := make([]worker.Result, len(workerPorts))

	g, gctx := errgroup.WithContext(ctx)
	for i, port := range workerPorts {
		i, port := i, port
		g.Go(func() error {
			partial, err := queryWithRetry(gctx, port, wireReq)
			if err != nil {
				log.Printf("coordinator: worker %d query failed twice, substituting synthetic partial: %v", port, err)
				results[i] = syntheticPartial(port)
				return nil
			}
			results[i] = worker.FromWire(partial)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// syntheticPartial is the stand-in contributed for a worker that fails
// both its initial attempt and its retry: it carries no rows but marks
// its segment as skipped, so the failure still shows up in the final
// footer's segments_skipped count.
func syntheticPartial(port int) worker.Result {
	return worker.Result{
		WorkerPort:      port,
		RowsScanned:     0,
		SegmentsSkipped: 1,
		ExecMS:          0,
		Groups:          eval.GroupMap{},
	}
}

func queryWithRetry(ctx context.Context, port int, req rpc.QueryRequest) (rpc.PartialAggregate, error) {
	partial, err := rpc.QueryWorker(ctx, port, req)
	if err == nil {
		return partial, nil
	}
	return rpc.QueryWorker(ctx, port, req)
}
