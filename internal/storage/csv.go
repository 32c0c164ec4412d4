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
	"encoding/csv"
	"io"
)

// csvChopper reads a header-bearing CSV file (RFC 4180) and splits each
// record into its individual fields.
type csvChopper struct {
	cr *csv.Reader
}

func newCSVChopper(r io.Reader) *csvChopper {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	cr.LazyQuotes = true
	return &csvChopper{cr: cr}
}

// next fetches one CSV record's fields, or io.EOF at the end of input.
func (c *csvChopper) next() ([]string, error) {
	return c.cr.Read()
}
