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

// Package coldate parses the Date column type: a calendar day stored on
// disk as the signed day offset from the Unix epoch, 1970-01-01.
package coldate

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// ParseDays parses a "YYYY-MM-DD" string and returns the number of days
// since 1970-01-01 (negative for dates before the epoch).
func ParseDays(s string) (int32, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	days := t.Unix() / 86400
	return int32(days), nil
}

// Format renders a day offset back to "YYYY-MM-DD".
func Format(days int32) string {
	t := time.Unix(int64(days)*86400, 0).UTC()
	return t.Format(layout)
}
