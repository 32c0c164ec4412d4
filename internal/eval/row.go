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

// Package eval implements predicate evaluation and per-row aggregate
// updates against scanned rows.
package eval

import "github.com/minidb-io/minidb/internal/scalar"

// Row is one scanned row's column values, keyed by column name. A nil
// entry, or a missing key, both mean "null" to every consumer here.
type Row map[string]*scalar.Value
