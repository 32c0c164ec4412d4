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

// Package worker implements the per-segment query executor: the code
// that runs inside a worker process and scans exactly one segment of a
// table.
package worker

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/minidb-io/minidb/internal/column"
	"github.com/minidb-io/minidb/internal/eval"
	"github.com/minidb-io/minidb/internal/query"
	"github.com/minidb-io/minidb/internal/scalar"
	"github.com/minidb-io/minidb/internal/schema"
	"github.com/minidb-io/minidb/internal/storage"
)

// Context identifies which segment of which table a worker process owns.
type Context struct {
	Port    int
	Table   string
	Segment int
}

// Result is the partial aggregate a single segment scan contributes;
// the wire shape lives in package rpc.
type Result struct {
	WorkerPort      int
	Segment         int
	RowsScanned     uint64
	SegmentsSkipped uint64
	ExecMS          int64
	Groups          eval.GroupMap
}

// Execute scans ctx's segment against req and returns its contribution
// to the final result, never touching any other segment.
func Execute(ctx Context, req *query.Request, started time.Time) Result {
	empty := func(skipped uint64) Result {
		return Result{
			WorkerPort:      ctx.Port,
			Segment:         ctx.Segment,
			SegmentsSkipped: skipped,
			ExecMS:          time.Since(started).Milliseconds(),
			Groups:          eval.GroupMap{},
		}
	}

	sch, err := storage.ReadSchema(ctx.Table)
	if err != nil || len(sch.Columns) == 0 {
		return empty(1)
	}

	segDir := storage.SegmentDir(ctx.Table, ctx.Segment)

	needed := neededColumns(req)
	if len(needed) == 0 {
		needed[sch.Columns[0].Name] = struct{}{}
	}

	readers, err := openReaders(segDir, sch, needed)
	defer closeAll(readers)
	if err != nil {
		return empty(1)
	}

	if skip := shouldSkipSegment(segDir, sch, req.Filters); skip {
		return empty(1)
	}

	if len(readers) == 0 {
		return empty(1)
	}

	groups := eval.GroupMap{}
	var rowsScanned uint64

rowLoop:
	for {
		row := eval.Row{}
		for name, r := range readers {
			if _, want := needed[name]; !want {
				continue
			}
			v, err := r.ReadValue()
			if err != nil {
				break rowLoop
			}
			row[name] = v
		}

		rowsScanned++

		if !eval.RowMatches(req.Filters, row) {
			continue
		}

		gkey := groupKey(req.GroupBy, row)
		agg := groups[gkey]
		if agg == nil {
			agg = eval.GroupAggregate{}
			groups[gkey] = agg
		}

		if len(req.Aggregates) == 0 {
			state := agg["COUNT(*)"]
			if state == nil {
				state = &eval.State{}
				agg["COUNT(*)"] = state
			}
			state.Count++
			continue
		}

		for _, a := range req.Aggregates {
			state := agg[a.Output]
			if state == nil {
				state = &eval.State{}
				agg[a.Output] = state
			}
			eval.Apply(state, a, row)
		}
	}

	return Result{
		WorkerPort:  ctx.Port,
		Segment:     ctx.Segment,
		RowsScanned: rowsScanned,
		ExecMS:      time.Since(started).Milliseconds(),
		Groups:      groups,
	}
}

func neededColumns(req *query.Request) map[string]struct{} {
	set := map[string]struct{}{}
	for _, g := range req.GroupBy {
		set[g] = struct{}{}
	}
	for _, a := range req.Aggregates {
		if a.Column != "" {
			set[a.Column] = struct{}{}
		}
	}
	for _, f := range req.Filters {
		set[f.Column] = struct{}{}
	}
	return set
}

func openReaders(segDir string, sch *schema.Schema, needed map[string]struct{}) (map[string]*column.Reader, error) {
	out := map[string]*column.Reader{}
	for name := range needed {
		col, ok := sch.ByName(name)
		if !ok {
			continue
		}
		r, err := column.Open(filepath.Join(segDir, col.Name+".bin"), col.Type)
		if err != nil {
			return out, err
		}
		out[name] = r
	}
	return out, nil
}

func closeAll(readers map[string]*column.Reader) {
	for _, r := range readers {
		r.Close()
	}
}

func groupKey(groupBy []string, row eval.Row) string {
	if len(groupBy) == 0 {
		return "all"
	}
	parts := make([]string, len(groupBy))
	for i, col := range groupBy {
		parts[i] = scalar.Format(row[col])
	}
	return strings.Join(parts, "|")
}

// shouldSkipSegment implements the zone-map pruning pre-scan: for every
// filtered column, read its min/max across the whole segment and decide
// whether the predicate can possibly match any row.
// A column that cannot be opened, or carries no values at all, never
// causes a skip — pruning is an optimization, not a correctness gate.
func shouldSkipSegment(segDir string, sch *schema.Schema, filters []query.Filter) bool {
	stats := map[string]minMax{}
	for _, f := range filters {
		if _, done := stats[f.Column]; done {
			continue
		}
		col, ok := sch.ByName(f.Column)
		if !ok {
			continue
		}
		mm, ok := computeMinMax(segDir, col)
		if !ok {
			continue
		}
		stats[f.Column] = mm
	}

	for _, f := range filters {
		mm, ok := stats[f.Column]
		if !ok || mm.min == nil || mm.max == nil {
			continue
		}
		if predicateCannotMatch(f, mm) {
			return true
		}
	}
	return false
}

type minMax struct {
	min *scalar.Value
	max *scalar.Value
}

func computeMinMax(segDir string, col schema.Column) (minMax, bool) {
	r, err := column.Open(filepath.Join(segDir, col.Name+".bin"), col.Type)
	if err != nil {
		return minMax{}, false
	}
	defer r.Close()

	var mm minMax
	for {
		v, err := r.ReadValue()
		if err != nil {
			break
		}
		if v == nil {
			continue
		}
		if mm.min == nil || scalar.Compare(*v, *mm.min) == scalar.Less {
			cp := *v
			mm.min = &cp
		}
		if mm.max == nil || scalar.Compare(*v, *mm.max) == scalar.Greater {
			cp := *v
			mm.max = &cp
		}
	}
	return mm, true
}

// predicateCannotMatch reports whether f's operator, applied to a
// column whose every value lies in [mm.min, mm.max], can never be
// satisfied by any row in the segment.
func predicateCannotMatch(f query.Filter, mm minMax) bool {
	lt := func(a, b scalar.Value) bool { return scalar.Compare(a, b) == scalar.Less }
	gt := func(a, b scalar.Value) bool { return scalar.Compare(a, b) == scalar.Greater }
	ge := func(a, b scalar.Value) bool {
		o := scalar.Compare(a, b)
		return o == scalar.Greater || o == scalar.Equal
	}
	le := func(a, b scalar.Value) bool {
		o := scalar.Compare(a, b)
		return o == scalar.Less || o == scalar.Equal
	}

	switch f.Op {
	case query.OpEq:
		return lt(f.Value, *mm.min) || gt(f.Value, *mm.max)
	case query.OpLt:
		return ge(*mm.min, f.Value)
	case query.OpLe:
		return gt(*mm.min, f.Value)
	case query.OpGt:
		return le(*mm.max, f.Value)
	case query.OpGe:
		return lt(*mm.max, f.Value)
	case query.OpBetween:
		if f.High == nil {
			return false
		}
		return lt(*mm.max, f.Value) || gt(*mm.min, *f.High)
	default:
		return false
	}
}
