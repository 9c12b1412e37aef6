package geojsonio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/paulmach/orb/geojson"

	"sundarbanmap/pkg/crs"
	"sundarbanmap/pkg/table"
)

// Read parses a GeoJSON FeatureCollection file.
func Read(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geojson %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson %s: %w", path, err)
	}
	return fc, nil
}

// ReadTable parses a GeoJSON FeatureCollection file into a table named name.
// Columns keep the order in which property keys first appear in the file.
func ReadTable(path, name string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geojson %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson %s: %w", path, err)
	}
	order, err := propertyOrder(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson %s: %w", path, err)
	}
	return ToTable(name, fc, order), nil
}

// ToTable converts a parsed collection back into a table in EPSG:4326.
// Columns follow order; property keys order does not name are appended sorted.
func ToTable(name string, fc *geojson.FeatureCollection, order []string) *table.Table {
	present := make(map[string]bool)
	for _, f := range fc.Features {
		for k := range f.Properties {
			present[k] = true
		}
	}

	var columns, rest []string
	for _, k := range order {
		if present[k] && !slices.Contains(columns, k) {
			columns = append(columns, k)
		}
	}
	for k := range present {
		if !slices.Contains(columns, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	columns = append(columns, rest...)

	t := table.New(name, columns, crs.WGS84)
	for _, f := range fc.Features {
		props := make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			props[k] = v
		}
		t.Append(props, f.Geometry)
	}
	return t
}

// propertyOrder lists property keys in the order they first appear across
// the features of a FeatureCollection document.
func propertyOrder(data []byte) ([]string, error) {
	var doc struct {
		Features []struct {
			Properties json.RawMessage `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var keys []string
	for _, f := range doc.Features {
		if len(f.Properties) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(f.Properties))
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			continue // null properties
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			if k, ok := tok.(string); ok && !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, err
			}
		}
	}
	return keys, nil
}
