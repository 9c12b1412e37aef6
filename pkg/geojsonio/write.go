// Package geojsonio writes feature tables as GeoJSON FeatureCollections and
// reads them back.
package geojsonio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"sundarbanmap/pkg/table"
)

// SerializationError reports a table that could not be encoded or written.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Properties properties        `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// properties keeps the table's column order in the encoded object.
type properties struct {
	keys   []string
	values map[string]any
}

func (p properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := encodeValue(k)
		if err != nil {
			return nil, err
		}
		vb, err := encodeValue(p.values[k])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func newCollection(t *table.Table) featureCollection {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]feature, len(t.Rows)),
	}
	for i, r := range t.Rows {
		f := feature{
			ID:         strconv.Itoa(i),
			Type:       "Feature",
			Properties: properties{keys: t.Columns, values: r.Properties},
		}
		if r.Geometry != nil {
			f.Geometry = geojson.NewGeometry(r.Geometry)
		}
		fc.Features[i] = f
	}
	return fc
}

// Marshal encodes the table as a 2-space indented FeatureCollection. Feature
// ids are row positions, properties follow the column order, and non-ASCII
// and HTML characters are written literally.
func Marshal(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newCollection(t)); err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	return buf.Bytes(), nil
}

// Write serializes t to path, creating the parent directory and replacing any
// existing file.
func Write(path string, t *table.Table) error {
	data, err := Marshal(t)
	if err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &SerializationError{Path: path, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &SerializationError{Path: path, Err: fmt.Errorf("failed to write output file: %w", err)}
	}
	return nil
}
