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

package column

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/minidb-io/minidb/internal/scalar"
	"github.com/minidb-io/minidb/internal/schema"
)

func writeAndRead(t *testing.T, typ schema.Type, cells []*scalar.Value) []*scalar.Value {
	t.Helper()
	path := filepath.Join(t.TempDir(), "col.bin")

	w, err := Create(path, typ)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, c := range cells {
		if c == nil {
			if err := w.WriteNull(); err != nil {
				t.Fatalf("WriteNull: %v", err)
			}
		} else if err := w.WriteValue(*c); err != nil {
			t.Fatalf("WriteValue: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path, typ)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	var got []*scalar.Value
	for {
		v, err := r.ReadValue()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadValue: %v", err)
		}
		got = append(got, v)
	}
	return got
}

func assertCellsEqual(t *testing.T, got, want []*scalar.Value) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d cells, want %d", len(got), len(want))
	}
	for i := range want {
		if want[i] == nil {
			if got[i] != nil {
				t.Errorf("cell %d: got %+v, want null", i, got[i])
			}
			continue
		}
		if got[i] == nil || !scalar.Eq(*got[i], *want[i]) {
			t.Errorf("cell %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func intVal(i int64) *scalar.Value    { v := scalar.OfInt(i); return &v }
func floatVal(f float64) *scalar.Value { v := scalar.OfFloat(f); return &v }
func strVal(s string) *scalar.Value    { v := scalar.OfString(s); return &v }
func boolVal(b bool) *scalar.Value     { v := scalar.OfBool(b); return &v }

func TestRawRoundTripAllTypes(t *testing.T) {
	cases := []struct {
		name  string
		typ   schema.Type
		cells []*scalar.Value
	}{
		{"int32", schema.Int32, []*scalar.Value{intVal(1), nil, intVal(-5)}},
		{"int64", schema.Int64, []*scalar.Value{intVal(1 << 40), nil}},
		{"float64", schema.Float64, []*scalar.Value{floatVal(3.25), nil, floatVal(-1.5)}},
		{"bool", schema.Bool, []*scalar.Value{boolVal(true), boolVal(false), nil}},
		{"string", schema.String, []*scalar.Value{strVal("hello"), strVal(""), nil}},
		{"date", schema.Date, []*scalar.Value{intVal(19000), nil}},
		{"timestamp", schema.TimestampMs, []*scalar.Value{intVal(1700000000000), nil}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := writeAndRead(t, c.typ, c.cells)
			assertCellsEqual(t, got, c.cells)
		})
	}
}

func TestRLERoundTrip(t *testing.T) {
	cells := []*scalar.Value{intVal(7), intVal(7), intVal(7), nil, nil, intVal(3)}

	raw := filepath.Join(t.TempDir(), "col.bin")
	w, err := Create(raw, schema.Int32)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, c := range cells {
		if c == nil {
			w.WriteNull()
		} else {
			w.WriteValue(*c)
		}
	}
	w.Close()

	rle := filepath.Join(t.TempDir(), "col.rle1")
	if err := CompactToRLE(raw, rle, schema.Int32); err != nil {
		t.Fatalf("CompactToRLE: %v", err)
	}

	r, err := Open(rle, schema.Int32)
	if err != nil {
		t.Fatalf("Open(rle): %v", err)
	}
	defer r.Close()

	var got []*scalar.Value
	for {
		v, err := r.ReadValue()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadValue: %v", err)
		}
		got = append(got, v)
	}
	assertCellsEqual(t, got, cells)
}

func TestReaderEmptyFileIsCleanEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	w, err := Create(path, schema.Int32)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path, schema.Int32)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.ReadValue(); err != io.EOF {
		t.Errorf("ReadValue on empty file = %v, want io.EOF", err)
	}
}
