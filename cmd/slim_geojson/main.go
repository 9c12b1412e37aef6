// Script to shrink a converted GeoJSON layer for the web map.
// Keeps only the listed properties and re-simplifies the geometry.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"

	"sundarbanmap/pkg/geojsonio"
	"sundarbanmap/pkg/simplifier"
	"sundarbanmap/pkg/table"
)

func main() {
	keep := flag.String("keep", "", "Comma-separated properties to keep (empty keeps all)")
	tolerance := flag.Float64("tolerance", simplifier.DistrictTolerance, "Simplification tolerance in degrees (0 disables)")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-keep a,b] [-tolerance t] <input.geojson> <output.geojson>\n", os.Args[0])
		os.Exit(1)
	}

	inputPath := flag.Arg(0)
	outputPath := flag.Arg(1)

	info, err := os.Stat(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}

	name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	in, err := geojsonio.ReadTable(inputPath, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse GeoJSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Input: %d features, %d bytes\n", in.Len(), info.Size())

	tbl := slim(in, splitKeep(*keep), *tolerance)

	if err := geojsonio.Write(outputPath, tbl); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Stat(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stat output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Output: %d features, %d bytes (%.1f%% reduction)\n",
		tbl.Len(), out.Size(), 100*(1-float64(out.Size())/float64(info.Size())))
}

func slim(t *table.Table, keep []string, tolerance float64) *table.Table {
	if len(keep) > 0 {
		t = t.Select(keep)
	}
	if tolerance > 0 {
		t.MapGeometry(func(g orb.Geometry) orb.Geometry {
			return simplifier.Simplify(g, tolerance)
		})
	}
	return t
}

func splitKeep(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
