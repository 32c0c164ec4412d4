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

package eval

import (
	"github.com/minidb-io/minidb/internal/query"
	"github.com/minidb-io/minidb/internal/scalar"
)

// ValueType is the promoted numeric type of a State's
// contributions: Int only if every contributor was integer/bool.
type ValueType uint8

const (
	TInt ValueType = iota
	TFloat
)

// State is the running accumulator for one aggregate output.
type State struct {
	Sum       float64
	Count     uint64
	Min       *float64
	Max       *float64
	ValueType ValueType
}

// GroupAggregate maps an aggregate's output name to its running state.
type GroupAggregate map[string]*State

// GroupMap maps a group key to that group's aggregate states.
type GroupMap map[string]GroupAggregate

// Apply updates state in place for one row that has already passed
// filters.
func Apply(state *State, agg query.Aggregate, row Row) {
	switch agg.Fn {
	case query.Count:
		state.Count++
	case query.Sum, query.Avg:
		if v := lookupNumeric(agg, row); v != nil {
			promote(state, *v)
			f, _ := v.AsFloat()
			state.Sum += f
			state.Count++
		}
	case query.Min:
		if v := lookupNumeric(agg, row); v != nil {
			promote(state, *v)
			f, _ := v.AsFloat()
			if state.Min == nil || f < *state.Min {
				state.Min = &f
			}
		}
	case query.Max:
		if v := lookupNumeric(agg, row); v != nil {
			promote(state, *v)
			f, _ := v.AsFloat()
			if state.Max == nil || f > *state.Max {
				state.Max = &f
			}
		}
	}
}

func lookupNumeric(agg query.Aggregate, row Row) *scalar.Value {
	if agg.Column == "" {
		return nil
	}
	v, ok := row[agg.Column]
	if !ok || v == nil {
		return nil
	}
	if _, ok := v.AsFloat(); !ok {
		// Strings are not aggregated by SUM/AVG/MIN/MAX.
		return nil
	}
	return v
}

func promote(state *State, v scalar.Value) {
	if !v.IsIntegral() {
		state.ValueType = TFloat
	}
}
