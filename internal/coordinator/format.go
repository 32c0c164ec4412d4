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

package coordinator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/minidb-io/minidb/internal/eval"
	"golang.org/x/exp/maps"
)

// FormatResults renders a merged result as a pipe-delimited table,
// followed by an execution-details footer.
func FormatResults(m Merged, groupBy []string) string {
	var out strings.Builder

	if len(m.Groups) == 0 {
		out.WriteString("empty result\n")
	} else {
		groupKeys := maps.Keys(m.Groups)
		sort.Strings(groupKeys)

		var aggHeaders []string
		if first, ok := m.Groups[groupKeys[0]]; ok {
			aggHeaders = maps.Keys(first)
			sort.Strings(aggHeaders)
		}

		includeGroup := !(len(groupKeys) == 1 && groupKeys[0] == "all")

		var headers []string
		if includeGroup {
			label := "group"
			if len(groupBy) > 0 {
				label = strings.Join(groupBy, ",")
			}
			headers = append(headers, label)
		}
		for _, h := range aggHeaders {
			headers = append(headers, normalizeHeader(h))
		}

		var rows [][]string
		for _, gkey := range groupKeys {
			aggMap := m.Groups[gkey]
			var row []string
			if includeGroup {
				row = append(row, gkey)
			}
			for _, raw := range aggHeaders {
				if state, ok := aggMap[raw]; ok {
					row = append(row, renderStateValue(raw, state))
				} else {
					row = append(row, "")
				}
			}
			rows = append(rows, row)
		}

		widths := make([]int, len(headers))
		for i, h := range headers {
			widths[i] = len(h)
		}
		for _, row := range rows {
			for i, v := range row {
				if len(v) > widths[i] {
					widths[i] = len(v)
				}
			}
		}

		out.WriteString(formatRow(headers, widths))
		sepCols := make([]string, len(widths))
		for i, w := range widths {
			if w < 3 {
				w = 3
			}
			sepCols[i] = strings.Repeat("-", w)
		}
		out.WriteString(strings.Join(sepCols, "-+-"))
		out.WriteByte('\n')
		for _, row := range rows {
			out.WriteString(formatRow(row, widths))
		}
	}

	out.WriteByte('\n')
	fmt.Fprintf(&out, "Execution Details:\nRows scanned:       %d\nSegments skipped:   %d\nExecution time:     %d ms",
		m.RowsScanned, m.SegmentsSkipped, m.ExecMS)
	return out.String()
}

func renderStateValue(name string, state *eval.State) string {
	upper := strings.ToUpper(name)
	switch {
	case strings.HasPrefix(upper, "COUNT"):
		return fmt.Sprintf("%d", state.Count)
	case strings.HasPrefix(upper, "SUM"):
		return fmt.Sprintf("%.3f", state.Sum)
	case strings.HasPrefix(upper, "AVG"):
		if state.Count == 0 {
			return "NULL"
		}
		return fmt.Sprintf("%.3f", state.Sum/float64(state.Count))
	case strings.HasPrefix(upper, "MIN"):
		if state.Min == nil {
			return "NULL"
		}
		return fmt.Sprintf("%.3f", *state.Min)
	case strings.HasPrefix(upper, "MAX"):
		if state.Max == nil {
			return "NULL"
		}
		return fmt.Sprintf("%.3f", *state.Max)
	default:
		return fmt.Sprintf("%d", state.Count)
	}
}

func normalizeHeader(raw string) string {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "(") {
		lower = strings.ReplaceAll(lower, "(", "_")
		lower = strings.ReplaceAll(lower, ")", "")
		lower = strings.ReplaceAll(lower, "*", "star")
	}
	return lower
}

func formatRow(cols []string, widths []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%-*s", widths[i], c)
	}
	return strings.Join(parts, " | ") + "\n"
}
