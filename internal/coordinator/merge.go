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

// Package coordinator implements the fan-out/merge/format/HTTP layer
// that turns per-segment worker results into one query response.
package coordinator

import (
	"github.com/minidb-io/minidb/internal/eval"
	"github.com/minidb-io/minidb/internal/worker"
)

// Merged is the fold of every partial aggregate the workers contributed,
// including those of skipped segments, which add to SegmentsSkipped.
type Merged struct {
	Groups          eval.GroupMap
	RowsScanned     uint64
	SegmentsSkipped uint64
	ExecMS          int64
}

// MergePartials folds a set of per-segment results into one result,
// associatively and commutatively so dispatch order never affects the
// outcome.
func MergePartials(partials []worker.Result) Merged {
	out := Merged{Groups: eval.GroupMap{}}
	for _, p := range partials {
		out.RowsScanned += p.RowsScanned
		out.SegmentsSkipped += p.SegmentsSkipped
		out.ExecMS += p.ExecMS

		for gkey, agg := range p.Groups {
			dstAgg := out.Groups[gkey]
			if dstAgg == nil {
				dstAgg = eval.GroupAggregate{}
				out.Groups[gkey] = dstAgg
			}
			for name, src := range agg {
				dst := dstAgg[name]
				if dst == nil {
					dst = &eval.State{}
					dstAgg[name] = dst
				}
				mergeState(dst, src)
			}
		}
	}
	return out
}

func mergeState(dst, src *eval.State) {
	dst.Sum += src.Sum
	dst.Count += src.Count

	if src.ValueType == eval.TFloat {
		dst.ValueType = eval.TFloat
	}

	dst.Min = mergeExtreme(dst.Min, src.Min, func(a, b float64) float64 {
		if a < b {
			return a
		}
		return b
	})
	dst.Max = mergeExtreme(dst.Max, src.Max, func(a, b float64) float64 {
		if a > b {
			return a
		}
		return b
	})
}

func mergeExtreme(dst, src *float64, pick func(a, b float64) float64) *float64 {
	switch {
	case dst == nil && src == nil:
		return nil
	case dst == nil:
		v := *src
		return &v
	case src == nil:
		v := *dst
		return &v
	default:
		v := pick(*dst, *src)
		return &v
	}
}
