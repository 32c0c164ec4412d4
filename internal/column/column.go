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

// Package column implements the per-column binary encodings: a dense
// sequence of tagged-null cells, optionally wrapped in a run-length
// encoded ("RLE1") stream.
package column

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/minidb-io/minidb/internal/scalar"
	"github.com/minidb-io/minidb/internal/schema"
)

// ErrTruncated reports a column file that ended mid-value: a clean EOF
// at a cell boundary is reported as io.EOF instead.
var ErrTruncated = errors.New("column: truncated or malformed value")

const rleMagic = "RLE1"

// Writer appends tagged-cell values to a column file in raw format.
type Writer struct {
	typ schema.Type
	w   *bufio.Writer
	f   *os.File
}

// Create opens path for writing a fresh column file in raw format.
func Create(path string, typ schema.Type) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{typ: typ, w: bufio.NewWriter(f), f: f}, nil
}

// WriteNull appends a null cell.
func (w *Writer) WriteNull() error {
	return w.w.WriteByte(0x00)
}

// WriteValue appends a present cell holding v, encoded per w's column type.
func (w *Writer) WriteValue(v scalar.Value) error {
	if err := w.w.WriteByte(0x01); err != nil {
		return err
	}
	return encodePayload(w.w, w.typ, v)
}

// Close flushes buffered output and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

func encodePayload(w io.Writer, typ schema.Type, v scalar.Value) error {
	switch typ {
	case schema.Int32:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(int32(v.I)))
		_, err := w.Write(buf[:])
		return err
	case schema.Int64, schema.TimestampMs:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.I))
		_, err := w.Write(buf[:])
		return err
	case schema.Float64:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.F))
		_, err := w.Write(buf[:])
		return err
	case schema.Bool:
		b := byte(0)
		if v.B {
			b = 1
		}
		_, err := w.Write([]byte{b})
		return err
	case schema.String:
		var lbuf [4]byte
		binary.LittleEndian.PutUint32(lbuf[:], uint32(len(v.S)))
		if _, err := w.Write(lbuf[:]); err != nil {
			return err
		}
		_, err := io.WriteString(w, v.S)
		return err
	case schema.Date:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(int32(v.I)))
		_, err := w.Write(buf[:])
		return err
	default:
		return fmt.Errorf("column: unsupported type %v", typ)
	}
}

// Reader streams decoded values from a column file, transparently
// handling both the raw and RLE1 encodings (selected by a 4-byte magic
// peek).
type Reader struct {
	typ schema.Type
	f   *os.File
	r   *bufio.Reader

	rle       bool
	remaining uint32
	current   *scalar.Value
}

// Open opens path and detects its encoding.
func Open(path string, typ schema.Type) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var magic [4]byte
	n, _ := io.ReadFull(f, magic[:])
	rd := &Reader{typ: typ, f: f}
	if n == 4 && string(magic[:]) == rleMagic {
		rd.rle = true
		rd.r = bufio.NewReader(f)
	} else {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
		rd.r = bufio.NewReader(f)
	}
	return rd, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.f.Close() }

// ReadValue returns the next cell: (nil, nil) for a stored null, a
// non-nil value for a present cell, io.EOF at a clean end of stream, or
// ErrTruncated if the stream ends mid-value.
func (r *Reader) ReadValue() (*scalar.Value, error) {
	if r.rle {
		return r.readRLE()
	}
	return r.readRaw()
}

func (r *Reader) readRaw() (*scalar.Value, error) {
	flag, err := r.r.ReadByte()
	if err != nil {
		return nil, io.EOF
	}
	if flag == 0x00 {
		return nil, nil
	}
	return decodePayload(r.r, r.typ)
}

func (r *Reader) readRLE() (*scalar.Value, error) {
	if r.remaining == 0 {
		var lbuf [4]byte
		if _, err := io.ReadFull(r.r, lbuf[:]); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, ErrTruncated
		}
		length := binary.LittleEndian.Uint32(lbuf[:])
		flag, err := r.r.ReadByte()
		if err != nil {
			return nil, ErrTruncated
		}
		if flag == 0x00 {
			r.current = nil
		} else {
			v, err := decodePayload(r.r, r.typ)
			if err != nil {
				return nil, err
			}
			r.current = v
		}
		r.remaining = length
		if length == 0 {
			return nil, io.EOF
		}
	}
	r.remaining--
	return r.current, nil
}

func decodePayload(r io.Reader, typ schema.Type) (*scalar.Value, error) {
	switch typ {
	case schema.Int32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, ErrTruncated
		}
		v := scalar.OfInt(int64(int32(binary.LittleEndian.Uint32(buf[:]))))
		return &v, nil
	case schema.Int64, schema.TimestampMs:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, ErrTruncated
		}
		v := scalar.OfInt(int64(binary.LittleEndian.Uint64(buf[:])))
		return &v, nil
	case schema.Float64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, ErrTruncated
		}
		v := scalar.OfFloat(math.Float64frombits(binary.LittleEndian.Uint64(buf[:])))
		return &v, nil
	case schema.Bool:
		var buf [1]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, ErrTruncated
		}
		v := scalar.OfBool(buf[0] != 0)
		return &v, nil
	case schema.String:
		var lbuf [4]byte
		if _, err := io.ReadFull(r, lbuf[:]); err != nil {
			return nil, ErrTruncated
		}
		length := binary.LittleEndian.Uint32(lbuf[:])
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, ErrTruncated
		}
		v := scalar.OfString(string(buf))
		return &v, nil
	case schema.Date:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, ErrTruncated
		}
		v := scalar.OfInt(int64(int32(binary.LittleEndian.Uint32(buf[:]))))
		return &v, nil
	default:
		return nil, fmt.Errorf("column: unsupported type %v", typ)
	}
}
