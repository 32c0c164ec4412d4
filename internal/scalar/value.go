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

// Package scalar implements the tagged scalar value that flows through
// column decoding, predicate evaluation, aggregation, and RPC payloads.
//
// A variant type is preferred here over per-type subclassing: every
// consumer (comparison, numeric coercion, group-key formatting) dispatches
// on the same small Kind tag instead of needing a type switch per caller.
package scalar

import "fmt"

// Kind identifies which field of a Value is populated.
type Kind uint8

const (
	Int Kind = iota
	Float
	String
	Bool
)

// Value is a tagged scalar: exactly one of i/f/s/b is meaningful,
// selected by Kind. The zero Value is the integer 0.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	S    string
	B    bool
}

func OfInt(i int64) Value    { return Value{Kind: Int, I: i} }
func OfFloat(f float64) Value { return Value{Kind: Float, F: f} }
func OfString(s string) Value { return Value{Kind: String, S: s} }
func OfBool(b bool) Value     { return Value{Kind: Bool, B: b} }

// AsFloat coerces numeric-ish values (Int, Float, Bool) to float64.
// Strings have no numeric coercion and return (0, false).
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case Int:
		return float64(v.I), true
	case Float:
		return v.F, true
	case Bool:
		if v.B {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// IsIntegral reports whether v contributes as an integer to a promoted
// aggregate result (Int and Bool are integral; Float is not).
func (v Value) IsIntegral() bool {
	return v.Kind == Int || v.Kind == Bool
}

// Format renders v the way a group key or table cell expects: NULL for
// an absent value; otherwise Go's default scalar stringification.
func Format(v *Value) string {
	if v == nil {
		return "NULL"
	}
	switch v.Kind {
	case Int:
		return fmt.Sprintf("%d", v.I)
	case Float:
		return fmt.Sprintf("%v", v.F)
	case String:
		return v.S
	case Bool:
		return fmt.Sprintf("%v", v.B)
	default:
		return "NULL"
	}
}

// Eq implements the equality semantics of §4.E: numeric values promote
// across Int/Float, strings and bools compare directly, and any other
// pairing (e.g. string vs int) is never equal.
func Eq(a, b Value) bool {
	switch {
	case a.Kind == Int && b.Kind == Int:
		return a.I == b.I
	case a.Kind == Float && b.Kind == Float:
		return a.F == b.F
	case a.Kind == Int && b.Kind == Float:
		return float64(a.I) == b.F
	case a.Kind == Float && b.Kind == Int:
		return a.F == float64(b.I)
	case a.Kind == String && b.Kind == String:
		return a.S == b.S
	case a.Kind == Bool && b.Kind == Bool:
		return a.B == b.B
	default:
		return false
	}
}

// Ordering is the result of comparing two values under Compare.
type Ordering int

const (
	Less Ordering = -1
	Equal Ordering = 0
	Greater Ordering = 1
	Unordered Ordering = 2 // NaN, or incompatible kinds
)

// Compare implements the total order of §4.B/§4.E: numeric promotion
// between Int and Float, lexicographic byte order for strings, false <
// true for bools. NaN participants, and incompatible kind pairings,
// report Unordered so callers can treat them as failing any strict
// relational predicate.
func Compare(a, b Value) Ordering {
	switch {
	case a.Kind == Int && b.Kind == Int:
		return intOrder(a.I, b.I)
	case a.Kind == String && b.Kind == String:
		return intOrder(int64(stringCompare(a.S, b.S)), 0)
	case a.Kind == Bool && b.Kind == Bool:
		return intOrder(boolRank(a.B), boolRank(b.B))
	case (a.Kind == Int || a.Kind == Float) && (b.Kind == Int || b.Kind == Float):
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return floatOrder(af, bf)
	default:
		return Unordered
	}
}

func boolRank(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func intOrder(a, b int64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func floatOrder(a, b float64) Ordering {
	if a != a || b != b { // NaN
		return Unordered
	}
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
