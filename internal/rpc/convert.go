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

package rpc

import (
	"fmt"

	"github.com/minidb-io/minidb/internal/eval"
	"github.com/minidb-io/minidb/internal/query"
	"github.com/minidb-io/minidb/internal/scalar"
)

// ToScalarValue converts a decoded scalar.Value to its wire form.
func ToScalarValue(v scalar.Value) ScalarValue {
	switch v.Kind {
	case scalar.Int:
		i := v.I
		return ScalarValue{Int: &i}
	case scalar.Float:
		f := v.F
		return ScalarValue{Float: &f}
	case scalar.String:
		s := v.S
		return ScalarValue{String: &s}
	case scalar.Bool:
		b := v.B
		return ScalarValue{Bool: &b}
	default:
		return ScalarValue{}
	}
}

// FromScalarValue converts a wire ScalarValue back to scalar.Value.
func FromScalarValue(v ScalarValue) (scalar.Value, error) {
	switch {
	case v.Int != nil:
		return scalar.OfInt(*v.Int), nil
	case v.Float != nil:
		return scalar.OfFloat(*v.Float), nil
	case v.String != nil:
		return scalar.OfString(*v.String), nil
	case v.Bool != nil:
		return scalar.OfBool(*v.Bool), nil
	default:
		return scalar.Value{}, fmt.Errorf("rpc: empty scalar value")
	}
}

func predicateFor(op query.CmpOp) Predicate {
	switch op {
	case query.OpEq:
		return PredEq
	case query.OpLt:
		return PredLt
	case query.OpGt:
		return PredGt
	case query.OpLe:
		return PredLe
	case query.OpGe:
		return PredGe
	case query.OpBetween:
		return PredBetween
	default:
		return PredEq
	}
}

func cmpOpFor(p Predicate) (query.CmpOp, error) {
	switch p {
	case PredEq:
		return query.OpEq, nil
	case PredLt:
		return query.OpLt, nil
	case PredGt:
		return query.OpGt, nil
	case PredLe:
		return query.OpLe, nil
	case PredGe:
		return query.OpGe, nil
	case PredBetween:
		return query.OpBetween, nil
	default:
		return 0, fmt.Errorf("rpc: unknown predicate %q", p)
	}
}

// ToWireRequest converts a parsed query.Request to its wire form.
func ToWireRequest(req *query.Request) QueryRequest {
	out := QueryRequest{
		Query:       req.Source,
		Projections: req.Projections,
		Table:       req.Table,
		GroupBy:     req.GroupBy,
	}
	for _, a := range req.Aggregates {
		var col *string
		if !a.Star {
			c := a.Column
			col = &c
		}
		out.Aggregates = append(out.Aggregates, AggregateExpr{
			Func:       a.Fn.String(),
			Column:     col,
			OutputName: a.Output,
		})
	}
	for _, f := range req.Filters {
		wf := FilterExpr{
			Column: f.Column,
			Pred:   predicateFor(f.Op),
			Value:  ToScalarValue(f.Value),
		}
		if f.High != nil {
			hi := ToScalarValue(*f.High)
			wf.ValueHi = &hi
		}
		out.Filters = append(out.Filters, wf)
	}
	return out
}

func aggregateFnFor(name string) (query.AggregateFn, error) {
	switch name {
	case "COUNT":
		return query.Count, nil
	case "SUM":
		return query.Sum, nil
	case "AVG":
		return query.Avg, nil
	case "MIN":
		return query.Min, nil
	case "MAX":
		return query.Max, nil
	default:
		return 0, fmt.Errorf("rpc: unknown aggregate function %q", name)
	}
}

// FromWireRequest converts a wire QueryRequest back to a query.Request.
func FromWireRequest(in QueryRequest) (*query.Request, error) {
	req := &query.Request{
		Source:      in.Query,
		Table:       in.Table,
		Projections: in.Projections,
		GroupBy:     in.GroupBy,
	}
	for _, a := range in.Aggregates {
		fn, err := aggregateFnFor(a.Func)
		if err != nil {
			return nil, err
		}
		agg := query.Aggregate{Fn: fn, Output: a.OutputName}
		if a.Column == nil {
			agg.Star = true
		} else {
			agg.Column = *a.Column
		}
		req.Aggregates = append(req.Aggregates, agg)
	}
	for _, f := range in.Filters {
		op, err := cmpOpFor(f.Pred)
		if err != nil {
			return nil, err
		}
		val, err := FromScalarValue(f.Value)
		if err != nil {
			return nil, err
		}
		filter := query.Filter{Column: f.Column, Op: op, Value: val}
		if f.ValueHi != nil {
			hi, err := FromScalarValue(*f.ValueHi)
			if err != nil {
				return nil, err
			}
			filter.High = &hi
		}
		req.Filters = append(req.Filters, filter)
	}
	return req, nil
}

func valueTypeFor(t eval.ValueType) string {
	if t == eval.TFloat {
		return "Float"
	}
	return "Int"
}

// ToWireGroups converts an eval.GroupMap to its wire form.
func ToWireGroups(groups eval.GroupMap) GroupMap {
	out := GroupMap{}
	for gkey, agg := range groups {
		wireAgg := GroupAggregate{}
		for name, state := range agg {
			wireAgg[name] = AggregateState{
				Sum:       state.Sum,
				Count:     state.Count,
				Min:       state.Min,
				Max:       state.Max,
				ValueType: valueTypeFor(state.ValueType),
			}
		}
		out[gkey] = wireAgg
	}
	return out
}

// FromWireGroups converts a wire GroupMap back to an eval.GroupMap.
func FromWireGroups(groups GroupMap) eval.GroupMap {
	out := eval.GroupMap{}
	for gkey, agg := range groups {
		converted := eval.GroupAggregate{}
		for name, state := range agg {
			vt := eval.TInt
			if state.ValueType == "Float" {
				vt = eval.TFloat
			}
			converted[name] = &eval.State{
				Sum:       state.Sum,
				Count:     state.Count,
				Min:       state.Min,
				Max:       state.Max,
				ValueType: vt,
			}
		}
		out[gkey] = converted
	}
	return out
}
