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

package query

import "github.com/minidb-io/minidb/internal/scalar"

// AggregateFn is one of the five supported aggregate functions.
type AggregateFn uint8

const (
	Count AggregateFn = iota
	Sum
	Avg
	Min
	Max
)

func (f AggregateFn) String() string {
	switch f {
	case Count:
		return "COUNT"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	default:
		return "?"
	}
}

// Aggregate is one aggregate projection, e.g. SUM(amount).
type Aggregate struct {
	Fn     AggregateFn
	Column string // empty for COUNT(*)
	Star   bool   // true when the argument was "*"
	Output string // "FUNC(col)" or "FUNC(*)"
}

// CmpOp is a scalar comparison operator.
type CmpOp uint8

const (
	OpEq CmpOp = iota
	OpLt
	OpGt
	OpLe
	OpGe
	OpBetween
)

// Filter is one WHERE predicate.
type Filter struct {
	Column string
	Op     CmpOp
	Value  scalar.Value
	High   *scalar.Value // only set for OpBetween
}

// Request is a fully parsed query, the IR broadcast to every worker.
type Request struct {
	Source      string // original source text, for diagnostics
	Table       string
	Projections []string // column names, or "*"
	Aggregates  []Aggregate
	Filters     []Filter
	GroupBy     []string
}
