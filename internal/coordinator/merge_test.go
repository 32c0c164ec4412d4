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
	"testing"

	"github.com/minidb-io/minidb/internal/eval"
	"github.com/minidb-io/minidb/internal/worker"
)

func sumState(sum float64, count uint64) *eval.State {
	return &eval.State{Sum: sum, Count: count, ValueType: eval.TFloat}
}

// salesPartials mirrors two worker segments each holding half of the
// "SELECT region, SUM(amount) FROM sales GROUP BY region" example:
// seg 0 has EU=100, US=200; seg 1 has EU=50, APAC=300.
func salesPartials() []worker.Result {
	return []worker.Result{
		{
			WorkerPort:  9001,
			Segment:     0,
			RowsScanned: 2,
			ExecMS:      5,
			Groups: eval.GroupMap{
				"EU": eval.GroupAggregate{"SUM(amount)": sumState(100, 1)},
				"US": eval.GroupAggregate{"SUM(amount)": sumState(200, 1)},
			},
		},
		{
			WorkerPort:  9002,
			Segment:     1,
			RowsScanned: 2,
			ExecMS:      7,
			Groups: eval.GroupMap{
				"EU":   eval.GroupAggregate{"SUM(amount)": sumState(50, 1)},
				"APAC": eval.GroupAggregate{"SUM(amount)": sumState(300, 1)},
			},
		},
	}
}

func TestMergePartialsSumsAcrossSegments(t *testing.T) {
	merged := MergePartials(salesPartials())

	if merged.RowsScanned != 4 {
		t.Errorf("RowsScanned = %d, want 4", merged.RowsScanned)
	}
	if merged.ExecMS != 12 {
		t.Errorf("ExecMS = %d, want 12", merged.ExecMS)
	}
	if len(merged.Groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(merged.Groups))
	}

	eu := merged.Groups["EU"]["SUM(amount)"]
	if eu.Sum != 150 || eu.Count != 2 {
		t.Errorf("EU sum state = %+v, want Sum=150 Count=2", eu)
	}
	us := merged.Groups["US"]["SUM(amount)"]
	if us.Sum != 200 || us.Count != 1 {
		t.Errorf("US sum state = %+v, want Sum=200 Count=1", us)
	}
	apac := merged.Groups["APAC"]["SUM(amount)"]
	if apac.Sum != 300 || apac.Count != 1 {
		t.Errorf("APAC sum state = %+v, want Sum=300 Count=1", apac)
	}
}

func TestMergePartialsIsOrderIndependent(t *testing.T) {
	partials := salesPartials()
	reversed := []worker.Result{partials[1], partials[0]}

	a := MergePartials(partials)
	b := MergePartials(reversed)

	if a.Groups["EU"]["SUM(amount)"].Sum != b.Groups["EU"]["SUM(amount)"].Sum {
		t.Error("merge result depends on partial order")
	}
	if a.RowsScanned != b.RowsScanned {
		t.Error("RowsScanned depends on partial order")
	}
}

func TestMergePartialsMinMax(t *testing.T) {
	lo, hi := 10.0, 50.0
	loOnly, hiOnly := 5.0, 5.0
	partials := []worker.Result{
		{Groups: eval.GroupMap{"all": eval.GroupAggregate{
			"MIN(amount)": {Min: &lo},
			"MAX(amount)": {Max: &hi},
		}}},
		{Groups: eval.GroupMap{"all": eval.GroupAggregate{
			"MIN(amount)": {Min: &loOnly},
			"MAX(amount)": {Max: &hiOnly},
		}}},
	}
	merged := MergePartials(partials)
	if *merged.Groups["all"]["MIN(amount)"].Min != 5 {
		t.Errorf("merged min = %v, want 5", *merged.Groups["all"]["MIN(amount)"].Min)
	}
	if *merged.Groups["all"]["MAX(amount)"].Max != 50 {
		t.Errorf("merged max = %v, want 50", *merged.Groups["all"]["MAX(amount)"].Max)
	}
}

func TestMergePartialsEmptyInput(t *testing.T) {
	merged := MergePartials(nil)
	if len(merged.Groups) != 0 || merged.RowsScanned != 0 {
		t.Errorf("merged = %+v, want zero value", merged)
	}
}
