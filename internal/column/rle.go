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
	"bytes"
	"encoding/binary"
	"os"

	"github.com/minidb-io/minidb/internal/scalar"
	"github.com/minidb-io/minidb/internal/schema"
)

// cell is one decoded value read back off a raw column file, used only
// by the compactor to decide run boundaries.
type cell struct {
	null bool
	val  scalar.Value
}

func (c cell) equalPayload(o cell, typ schema.Type) bool {
	if c.null != o.null {
		return false
	}
	if c.null {
		return true
	}
	var a, b bytes.Buffer
	_ = encodePayload(&a, typ, c.val)
	_ = encodePayload(&b, typ, o.val)
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// CompactToRLE rewrites the raw column file at srcPath into the RLE1
// run-length form at dstPath, merging adjacent equal cells into runs.
// Callers should compare file sizes and keep whichever is smaller (see
// cmd/compactor), since RLE1 costs more than raw for columns with no
// repetition.
func CompactToRLE(srcPath, dstPath string, typ schema.Type) error {
	r, err := Open(srcPath, typ)
	if err != nil {
		return err
	}
	defer r.Close()

	var cells []cell
	for {
		v, err := r.ReadValue()
		if err != nil {
			break
		}
		if v == nil {
			cells = append(cells, cell{null: true})
		} else {
			cells = append(cells, cell{val: *v})
		}
	}

	out, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.WriteString(rleMagic); err != nil {
		return err
	}

	i := 0
	for i < len(cells) {
		j := i + 1
		for j < len(cells) && cells[j].equalPayload(cells[i], typ) {
			j++
		}
		run := uint32(j - i)
		var lbuf [4]byte
		binary.LittleEndian.PutUint32(lbuf[:], run)
		if _, err := out.Write(lbuf[:]); err != nil {
			return err
		}
		if cells[i].null {
			if _, err := out.Write([]byte{0x00}); err != nil {
				return err
			}
		} else {
			if _, err := out.Write([]byte{0x01}); err != nil {
				return err
			}
			if err := encodePayload(out, typ, cells[i].val); err != nil {
				return err
			}
		}
		i = j
	}
	return nil
}
