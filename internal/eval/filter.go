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

// RowMatches reports whether row passes every filter (implicit AND).
func RowMatches(filters []query.Filter, row Row) bool {
	for _, f := range filters {
		if !matchFilter(row[f.Column], f) {
			return false
		}
	}
	return true
}

// matchFilter implements one predicate: a null column value never
// satisfies any predicate, and NaN comparisons are false for every
// relational operator including equality.
func matchFilter(val *scalar.Value, f query.Filter) bool {
	if val == nil {
		return false
	}
	v := *val
	switch f.Op {
	case query.OpEq:
		return scalar.Eq(v, f.Value)
	case query.OpLt:
		return orderTrue(v, f.Value, func(o scalar.Ordering) bool { return o == scalar.Less })
	case query.OpGt:
		return orderTrue(v, f.Value, func(o scalar.Ordering) bool { return o == scalar.Greater })
	case query.OpLe:
		return orderTrue(v, f.Value, func(o scalar.Ordering) bool { return o == scalar.Less || o == scalar.Equal })
	case query.OpGe:
		return orderTrue(v, f.Value, func(o scalar.Ordering) bool { return o == scalar.Greater || o == scalar.Equal })
	case query.OpBetween:
		if f.High == nil {
			return false
		}
		ge := orderTrue(v, f.Value, func(o scalar.Ordering) bool { return o == scalar.Greater || o == scalar.Equal })
		le := orderTrue(v, *f.High, func(o scalar.Ordering) bool { return o == scalar.Less || o == scalar.Equal })
		return ge && le
	default:
		return false
	}
}

func orderTrue(a, b scalar.Value, pred func(scalar.Ordering) bool) bool {
	return pred(scalar.Compare(a, b))
}
