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

package storage

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/minidb-io/minidb/internal/coldate"
	"github.com/minidb-io/minidb/internal/column"
	"github.com/minidb-io/minidb/internal/scalar"
	"github.com/minidb-io/minidb/internal/schema"
)

// Load reads csvPath (a header-bearing CSV) and writes segments
// rows_per_seg groups of rows under tableDir, sorted ascending by
// sortKey, which must name sch's key column.
func Load(tableDir, csvPath, sortKey string, segments int, sch *schema.Schema) error {
	keyCol := sch.KeyColumn()
	if sortKey != keyCol.Name {
		return fmt.Errorf("sort key %q does not match schema key %q", sortKey, keyCol.Name)
	}
	if segments < 1 {
		return fmt.Errorf("segment count must be >= 1")
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	chopper := newCSVChopper(f)
	headers, err := chopper.next()
	if err != nil {
		return fmt.Errorf("CSV header error: %w", err)
	}

	colIndex := make([]int, len(sch.Columns))
	for i, c := range sch.Columns {
		idx := indexOf(headers, c.Name)
		if idx < 0 {
			return fmt.Errorf("CSV missing required column: %q", c.Name)
		}
		colIndex[i] = idx
	}
	keyIdx := indexOf(headers, keyCol.Name)

	var rows [][]string
	for {
		rec, err := chopper.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("CSV read error: %w", err)
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return fmt.Errorf("CSV contains no data rows")
	}

	keys := make([]scalar.Value, len(rows))
	for i, rec := range rows {
		v, err := parseKeyField(strings.TrimSpace(rec[keyIdx]), keyCol)
		if err != nil {
			return fmt.Errorf("invalid key value on row %d: %w", i+1, err)
		}
		keys[i] = v
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	var sortErr error
	sort.SliceStable(order, func(a, b int) bool {
		o, err := orderKeys(keys[order[a]], keys[order[b]])
		if err != nil {
			sortErr = err
		}
		return o == scalar.Less
	})
	if sortErr != nil {
		return sortErr
	}

	for seg := 0; seg < segments; seg++ {
		if err := os.MkdirAll(SegmentDir(tableDir, seg), 0o755); err != nil {
			return fmt.Errorf("failed to create segment dir: %w", err)
		}
	}

	writers := make([][]*column.Writer, len(sch.Columns))
	for ci, c := range sch.Columns {
		writers[ci] = make([]*column.Writer, segments)
		for seg := 0; seg < segments; seg++ {
			path := SegmentDir(tableDir, seg) + "/" + c.Name + ".bin"
			w, err := column.Create(path, c.Type)
			if err != nil {
				return fmt.Errorf("failed to create column file %s: %w", path, err)
			}
			writers[ci][seg] = w
		}
	}
	defer func() {
		for _, ws := range writers {
			for _, w := range ws {
				w.Close()
			}
		}
	}()

	total := len(rows)
	rowsPerSeg := (total + segments - 1) / segments

	for i, rowIdx := range order {
		seg := i / rowsPerSeg
		if seg > segments-1 {
			seg = segments - 1
		}
		rec := rows[rowIdx]
		for ci, c := range sch.Columns {
			field := strings.TrimSpace(rec[colIndex[ci]])
			if err := writeField(writers[ci][seg], c, field); err != nil {
				return fmt.Errorf("row %d, column %q: %w", rowIdx+1, c.Name, err)
			}
		}
	}

	for _, ws := range writers {
		for _, w := range ws {
			if err := w.Close(); err != nil {
				return err
			}
		}
	}
	writers = nil
	return nil
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

func writeField(w *column.Writer, c schema.Column, field string) error {
	if field == "" {
		if !c.Nullable {
			return fmt.Errorf("column is NOT NULL but encountered empty value")
		}
		return w.WriteNull()
	}
	v, err := parseField(field, c.Type)
	if err != nil {
		return err
	}
	return w.WriteValue(v)
}

func parseKeyField(field string, c schema.Column) (scalar.Value, error) {
	if field == "" {
		return scalar.Value{}, fmt.Errorf("key column cannot be null")
	}
	return parseField(field, c.Type)
}

func parseField(field string, typ schema.Type) (scalar.Value, error) {
	switch typ {
	case schema.Int32, schema.Int64, schema.TimestampMs:
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return scalar.Value{}, fmt.Errorf("invalid integer %q", field)
		}
		return scalar.OfInt(n), nil
	case schema.Float64:
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return scalar.Value{}, fmt.Errorf("invalid float %q", field)
		}
		if f != f {
			return scalar.Value{}, fmt.Errorf("NaN is not a valid key value")
		}
		return scalar.OfFloat(f), nil
	case schema.Bool:
		lower := strings.ToLower(field)
		switch lower {
		case "true", "1":
			return scalar.OfBool(true), nil
		case "false", "0":
			return scalar.OfBool(false), nil
		default:
			return scalar.Value{}, fmt.Errorf("invalid bool %q", field)
		}
	case schema.String:
		return scalar.OfString(field), nil
	case schema.Date:
		days, err := coldate.ParseDays(field)
		if err != nil {
			return scalar.Value{}, err
		}
		return scalar.OfInt(int64(days)), nil
	default:
		return scalar.Value{}, fmt.Errorf("unsupported type %v", typ)
	}
}

// orderKeys implements the total order required for sort keys: numeric
// promotion, byte-lexicographic strings, false<true booleans; a NaN
// float key is rejected by parseField before this is ever called.
func orderKeys(a, b scalar.Value) (scalar.Ordering, error) {
	o := scalar.Compare(a, b)
	if o == scalar.Unordered {
		return 0, fmt.Errorf("key values are not comparable")
	}
	return o, nil
}
