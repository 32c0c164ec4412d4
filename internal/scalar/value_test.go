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

package scalar

import (
	"math"
	"testing"
)

func TestCompareNumericPromotion(t *testing.T) {
	for _, c := range []struct {
		a, b Value
		want Ordering
	}{
		{OfInt(3), OfInt(5), Less},
		{OfInt(5), OfInt(5), Equal},
		{OfInt(7), OfInt(5), Greater},
		{OfInt(3), OfFloat(3.5), Less},
		{OfFloat(3.5), OfInt(3), Greater},
		{OfFloat(2.0), OfInt(2), Equal},
		{OfString("abc"), OfString("abd"), Less},
		{OfString("abd"), OfString("abc"), Greater},
		{OfBool(false), OfBool(true), Less},
		{OfBool(true), OfBool(true), Equal},
	} {
		if got := Compare(c.a, c.b); got != c.want {
			t.Errorf("Compare(%+v, %+v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestCompareNaNIsUnordered(t *testing.T) {
	nan := OfFloat(math.NaN())
	if got := Compare(nan, OfFloat(1)); got != Unordered {
		t.Errorf("Compare(NaN, 1) = %v, want Unordered", got)
	}
	if got := Compare(nan, nan); got != Unordered {
		t.Errorf("Compare(NaN, NaN) = %v, want Unordered", got)
	}
}

func TestCompareIncompatibleKinds(t *testing.T) {
	if got := Compare(OfString("5"), OfInt(5)); got != Unordered {
		t.Errorf("Compare(string, int) = %v, want Unordered", got)
	}
}

func TestEq(t *testing.T) {
	for _, c := range []struct {
		a, b Value
		want bool
	}{
		{OfInt(5), OfFloat(5), true},
		{OfFloat(5), OfInt(5), true},
		{OfInt(5), OfInt(6), false},
		{OfString("a"), OfString("a"), true},
		{OfBool(true), OfBool(true), true},
		{OfString("5"), OfInt(5), false},
	} {
		if got := Eq(c.a, c.b); got != c.want {
			t.Errorf("Eq(%+v, %+v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestAsFloat(t *testing.T) {
	if f, ok := OfInt(4).AsFloat(); !ok || f != 4 {
		t.Errorf("AsFloat(int 4) = (%v, %v)", f, ok)
	}
	if f, ok := OfBool(true).AsFloat(); !ok || f != 1 {
		t.Errorf("AsFloat(bool true) = (%v, %v)", f, ok)
	}
	if _, ok := OfString("x").AsFloat(); ok {
		t.Errorf("AsFloat(string) should fail")
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "NULL" {
		t.Errorf("Format(nil) = %q, want NULL", got)
	}
	v := OfInt(42)
	if got := Format(&v); got != "42" {
		t.Errorf("Format(42) = %q, want 42", got)
	}
}
