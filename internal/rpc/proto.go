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

// Package rpc implements the coordinator<->worker wire protocol: a
// 4-byte little-endian length prefix followed by a MessagePack-encoded
// payload, plus a bare 4-byte "PING" health check that a worker answers
// with its process info instead of a query result.
package rpc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// pingMagic is sent unframed: exactly these four ASCII bytes, with no
// length prefix, distinguishing a health check from a query frame.
var pingMagic = [4]byte{'P', 'I', 'N', 'G'}

// maxFrame bounds a single frame's payload so a corrupt or hostile peer
// cannot force an unbounded allocation.
const maxFrame = 64 << 20

// QueryRequest is the coordinator->worker wire form of a parsed query.
type QueryRequest struct {
	Query       string            `msgpack:"query"`
	Projections []string          `msgpack:"projections"`
	Aggregates  []AggregateExpr   `msgpack:"aggregates"`
	Table       string            `msgpack:"table"`
	Filters     []FilterExpr      `msgpack:"filters"`
	GroupBy     []string          `msgpack:"group_by"`
}

// AggregateExpr is the wire form of one aggregate projection.
type AggregateExpr struct {
	Func       string  `msgpack:"func"`
	Column     *string `msgpack:"column"` // nil for COUNT(*)
	OutputName string  `msgpack:"output_name"`
}

// Predicate names a comparison operator on the wire.
type Predicate string

const (
	PredEq      Predicate = "Eq"
	PredLt      Predicate = "Lt"
	PredGt      Predicate = "Gt"
	PredLe      Predicate = "Le"
	PredGe      Predicate = "Ge"
	PredBetween Predicate = "Between"
)

// ScalarValue is the wire form of scalar.Value: exactly one field set.
type ScalarValue struct {
	Int    *int64   `msgpack:"int,omitempty"`
	Float  *float64 `msgpack:"float,omitempty"`
	String *string  `msgpack:"string,omitempty"`
	Bool   *bool    `msgpack:"bool,omitempty"`
}

// FilterExpr is the wire form of one WHERE predicate.
type FilterExpr struct {
	Column  string       `msgpack:"column"`
	Pred    Predicate    `msgpack:"pred"`
	Value   ScalarValue  `msgpack:"value"`
	ValueHi *ScalarValue `msgpack:"value_hi,omitempty"` // BETWEEN only
}

// AggregateState is the wire form of one running accumulator.
type AggregateState struct {
	Sum       float64  `msgpack:"sum"`
	Count     uint64   `msgpack:"count"`
	Min       *float64 `msgpack:"min,omitempty"`
	Max       *float64 `msgpack:"max,omitempty"`
	ValueType string   `msgpack:"value_type"`
}

// GroupAggregate maps an aggregate's output name to its state.
type GroupAggregate map[string]AggregateState

// GroupMap maps a group key to that group's aggregate states.
type GroupMap map[string]GroupAggregate

// PartialAggregate is the worker->coordinator response to a QueryRequest.
type PartialAggregate struct {
	WorkerPort      int      `msgpack:"worker_port"`
	Segment         int      `msgpack:"segment"`
	RowsScanned     uint64   `msgpack:"rows_scanned"`
	SegmentsSkipped uint64   `msgpack:"segments_skipped"`
	ExecMS          int64    `msgpack:"exec_ms"`
	Groups          GroupMap `msgpack:"groups"`
}

// WorkerInfo is what a worker answers a PING health check with.
type WorkerInfo struct {
	PID      int    `msgpack:"pid"`
	Port     int    `msgpack:"port"`
	Hostname string `msgpack:"hostname"`
}

// WriteFrame writes v as a length-prefixed MessagePack frame.
func WriteFrame(w io.Writer, v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("rpc: encode frame: %w", err)
	}
	var lbuf [4]byte
	binary.LittleEndian.PutUint32(lbuf[:], uint32(len(payload)))
	if _, err := w.Write(lbuf[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed MessagePack frame into v.
func ReadFrame(r io.Reader, v any) error {
	var lbuf [4]byte
	if _, err := io.ReadFull(r, lbuf[:]); err != nil {
		return err
	}
	n := binary.LittleEndian.Uint32(lbuf[:])
	if n > maxFrame {
		return fmt.Errorf("rpc: frame of %d bytes exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return msgpack.Unmarshal(buf, v)
}

// WritePing writes the bare, unframed PING health-check magic.
func WritePing(w io.Writer) error {
	_, err := w.Write(pingMagic[:])
	return err
}

// ReadPingMagic reads 4 bytes and reports whether they are the PING
// magic. A caller that gets false should treat those 4 bytes as the
// start of a normal length-prefixed frame (its length, little-endian).
func ReadPingMagic(r io.Reader) (isPing bool, raw [4]byte, err error) {
	if _, err = io.ReadFull(r, raw[:]); err != nil {
		return false, raw, err
	}
	return raw == pingMagic, raw, nil
}

// FrameLen decodes a 4-byte little-endian length prefix already read
// by the caller (e.g. via ReadPingMagic when it returned isPing=false).
func FrameLen(raw [4]byte) uint32 {
	return binary.LittleEndian.Uint32(raw[:])
}

// ReadFramePayload reads n bytes and unmarshals them into v, for a
// caller that has already consumed the length prefix itself.
func ReadFramePayload(r io.Reader, n uint32, v any) error {
	if n > maxFrame {
		return fmt.Errorf("rpc: frame of %d bytes exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return msgpack.Unmarshal(buf, v)
}
