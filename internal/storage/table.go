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

// Package storage implements the table directory layout: schema +
// metadata files, segment directories, and the CSV loader that
// populates them.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/minidb-io/minidb/internal/schema"
)

const (
	SchemaFile = "_schema.ssf"
	MetaFile   = "_table.txt"
)

// Metadata is the parsed content of _table.txt.
type Metadata struct {
	Version            int
	BlockRows          int
	SegmentTargetRows  int
	Endianness         string
}

// defaultMetadata matches the values the original table initializer
// wrote verbatim for every freshly created table.
func defaultMetadata() Metadata {
	return Metadata{
		Version:           1,
		BlockRows:         65536,
		SegmentTargetRows: 1000000,
		Endianness:        "little",
	}
}

func (m Metadata) marshal() string {
	var b strings.Builder
	fmt.Fprintf(&b, "version=%d\n", m.Version)
	fmt.Fprintf(&b, "block_rows=%d\n", m.BlockRows)
	fmt.Fprintf(&b, "segment_target_rows=%d\n", m.SegmentTargetRows)
	fmt.Fprintf(&b, "endianness=%s\n", m.Endianness)
	return b.String()
}

func parseMetadata(text string) (Metadata, error) {
	kv := map[string]string{}
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return Metadata{}, fmt.Errorf("line %d: expected key=value", i+1)
		}
		if _, dup := kv[k]; dup {
			return Metadata{}, fmt.Errorf("line %d: duplicate key %q", i+1, k)
		}
		kv[k] = v
	}

	var m Metadata
	var err error
	if m.Version, err = requireInt(kv, "version", false); err != nil {
		return Metadata{}, err
	}
	if m.BlockRows, err = requireInt(kv, "block_rows", true); err != nil {
		return Metadata{}, err
	}
	if m.SegmentTargetRows, err = requireInt(kv, "segment_target_rows", true); err != nil {
		return Metadata{}, err
	}
	v, present := kv["endianness"]
	if !present {
		return Metadata{}, fmt.Errorf("missing 'endianness'")
	}
	if v != "little" && v != "big" {
		return Metadata{}, fmt.Errorf("endianness must be 'little' or 'big'")
	}
	m.Endianness = v
	return m, nil
}

func requireInt(kv map[string]string, key string, mustBePositive bool) (int, error) {
	v, present := kv[key]
	if !present {
		return 0, fmt.Errorf("missing %q", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value for %q", key)
	}
	if mustBePositive && n <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return n, nil
}

// Init creates dir (if needed) and writes a schema copy plus default
// metadata, matching the original table initializer's verbatim defaults.
func Init(dir string, schemaText string) error {
	if _, err := schema.Parse(schemaText); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SchemaFile), []byte(schemaText), 0o644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	meta := defaultMetadata()
	if err := os.WriteFile(filepath.Join(dir, MetaFile), []byte(meta.marshal()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", MetaFile, err)
	}
	return nil
}

// ReadSchema loads and parses _schema.ssf from dir.
func ReadSchema(dir string) (*schema.Schema, error) {
	b, err := os.ReadFile(filepath.Join(dir, SchemaFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return schema.Parse(string(b))
}

// RawSchemaText returns the unparsed contents of _schema.ssf, for
// `tablectl schema show`.
func RawSchemaText(dir string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, SchemaFile))
	if err != nil {
		return "", fmt.Errorf("failed to read schema file %s: %w", filepath.Join(dir, SchemaFile), err)
	}
	return string(b), nil
}

// ReadMetadata loads and validates _table.txt from dir.
func ReadMetadata(dir string) (Metadata, error) {
	b, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read table metadata: %w", err)
	}
	return parseMetadata(string(b))
}

// SegmentDir returns the path of segment index seg within dir, in the
// zero-padded "seg-NNNNNN" form.
func SegmentDir(dir string, seg int) string {
	return filepath.Join(dir, fmt.Sprintf("seg-%06d", seg))
}

// CountSegments enumerates dir for contiguous "seg-NNNNNN" directories
// starting at 0, returning the count. An empty or missing table
// directory is an error: at least one segment is required.
func CountSegments(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read table dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "seg-") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for i, name := range names {
		want := fmt.Sprintf("seg-%06d", i)
		if name != want {
			return 0, fmt.Errorf("segment directories must be contiguous from seg-000000; found %q at position %d", name, i)
		}
	}
	if len(names) == 0 {
		return 0, fmt.Errorf("no segment directories (seg-*) found under table dir %s", dir)
	}
	return len(names), nil
}
