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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minidb-io/minidb/internal/column"
	"github.com/minidb-io/minidb/internal/query"
	"github.com/minidb-io/minidb/internal/scalar"
	"github.com/minidb-io/minidb/internal/schema"
	"github.com/minidb-io/minidb/internal/storage"
)

const execSalesSchema = "id: int64 key\nregion: string\namount: float64\n"

const execSalesCSV = "id,region,amount\n1,EU,100\n2,US,200\n3,EU,50\n4,APAC,300\n"

func newSalesTable(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := storage.Init(dir, execSalesSchema); err != nil {
		t.Fatalf("Init: %v", err)
	}
	csvPath := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(csvPath, []byte(execSalesCSV), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	sch, err := storage.ReadSchema(dir)
	if err != nil {
		t.Fatalf("ReadSchema: %v", err)
	}
	if err := storage.Load(dir, csvPath, "id", 2, sch); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return dir
}

func TestExecuteImplicitCountStar(t *testing.T) {
	dir := newSalesTable(t)
	req := &query.Request{Table: dir}

	res := Execute(Context{Port: 9001, Table: dir, Segment: 0}, req, time.Now())
	if res.RowsScanned != 2 {
		t.Errorf("RowsScanned = %d, want 2", res.RowsScanned)
	}
	state := res.Groups["all"]["COUNT(*)"]
	if state == nil || state.Count != 2 {
		t.Errorf("COUNT(*) = %+v, want 2", state)
	}
}

func TestExecuteZoneMapPruningSkipsSegment(t *testing.T) {
	dir := newSalesTable(t)
	req := &query.Request{
		Table:   dir,
		Filters: []query.Filter{{Column: "amount", Op: query.OpGt, Value: scalar.OfInt(1000)}},
	}

	for seg := 0; seg < 2; seg++ {
		res := Execute(Context{Port: 9001, Table: dir, Segment: seg}, req, time.Now())
		if res.SegmentsSkipped != 1 {
			t.Errorf("segment %d: SegmentsSkipped = %d, want 1 (amount never exceeds 300)", seg, res.SegmentsSkipped)
		}
		if res.RowsScanned != 0 {
			t.Errorf("segment %d: RowsScanned = %d, want 0 for a skipped segment", seg, res.RowsScanned)
		}
	}
}

func TestExecuteZoneMapPruningDoesNotSkipMatchableSegment(t *testing.T) {
	dir := newSalesTable(t)
	req := &query.Request{
		Table:   dir,
		Filters: []query.Filter{{Column: "amount", Op: query.OpGt, Value: scalar.OfInt(100)}},
	}

	// Segment 1 (amounts 50, 300) can satisfy amount > 100; must not be skipped.
	res := Execute(Context{Port: 9001, Table: dir, Segment: 1}, req, time.Now())
	if res.SegmentsSkipped != 0 {
		t.Errorf("SegmentsSkipped = %d, want 0", res.SegmentsSkipped)
	}
	if res.RowsScanned != 2 {
		t.Errorf("RowsScanned = %d, want 2", res.RowsScanned)
	}
}

func TestExecuteGroupBySum(t *testing.T) {
	dir := newSalesTable(t)
	req := &query.Request{
		Table:      dir,
		Aggregates: []query.Aggregate{{Fn: query.Sum, Column: "amount", Output: "SUM(amount)"}},
		GroupBy:    []string{"region"},
	}

	res := Execute(Context{Port: 9001, Table: dir, Segment: 1}, req, time.Now())
	eu := res.Groups["EU"]["SUM(amount)"]
	apac := res.Groups["APAC"]["SUM(amount)"]
	if eu == nil || eu.Sum != 50 {
		t.Errorf("EU sum = %+v, want 50", eu)
	}
	if apac == nil || apac.Sum != 300 {
		t.Errorf("APAC sum = %+v, want 300", apac)
	}
}

func TestExecuteFilterExcludesNonMatchingRows(t *testing.T) {
	dir := newSalesTable(t)
	req := &query.Request{
		Table:   dir,
		Filters: []query.Filter{{Column: "region", Op: query.OpEq, Value: scalar.OfString("EU")}},
	}

	res := Execute(Context{Port: 9001, Table: dir, Segment: 0}, req, time.Now())
	count := res.Groups["all"]["COUNT(*)"]
	if count == nil || count.Count != 1 {
		t.Errorf("COUNT(*) with region=EU filter = %+v, want 1 (only id=1)", count)
	}
}

func TestExecuteStopsAtShortestColumnEOF(t *testing.T) {
	dir := t.TempDir()
	schemaText := "a: int64 key\nb: int64\n"
	if err := storage.Init(dir, schemaText); err != nil {
		t.Fatalf("Init: %v", err)
	}
	segDir := storage.SegmentDir(dir, 0)
	if err := os.MkdirAll(segDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	writeCol := func(name string, n int) {
		w, err := column.Create(filepath.Join(segDir, name+".bin"), schema.Int64)
		if err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
		for i := 0; i < n; i++ {
			if err := w.WriteValue(scalar.OfInt(int64(i))); err != nil {
				t.Fatalf("WriteValue: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	writeCol("a", 5)
	writeCol("b", 2)

	req := &query.Request{Table: dir, GroupBy: []string{"a", "b"}}
	res := Execute(Context{Port: 9001, Table: dir, Segment: 0}, req, time.Now())
	if res.RowsScanned != 2 {
		t.Errorf("RowsScanned = %d, want 2 (bounded by the shorter column)", res.RowsScanned)
	}
}
