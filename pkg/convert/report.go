package convert

import (
	"fmt"
	"io"
	"strings"

	"sundarbanmap/pkg/table"
	"sundarbanmap/pkg/village"
)

var separator = strings.Repeat("=", 50)

// PrintSummary writes the end-of-run summary. The list of produced files and
// the integration steps are only printed when at least one dataset converted.
func PrintSummary(w io.Writer, r *Report) {
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Conversion complete: %d/%d files converted successfully\n", r.Converted(), r.Total())

	if r.Converted() == 0 {
		return
	}

	fmt.Fprintln(w, "\nGeoJSON files created:")
	for i := range r.Results {
		if r.Results[i].Status == StatusConverted {
			fmt.Fprintf(w, "  - %s\n", r.Results[i].Dataset.Output)
		}
	}

	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "1. Update the loadSampleData() function in script.js to load these GeoJSON files")
	fmt.Fprintln(w, "2. Use fetch() or XMLHttpRequest to load the GeoJSON data")
	fmt.Fprintln(w, "3. Replace the sample data with your actual converted data")
}

func printVillageSummary(w io.Writer, s *village.Summary) {
	fmt.Fprintln(w, "Villages by district:")
	for _, d := range s.Districts {
		fmt.Fprintf(w, "  %s: %d villages\n", d.District, d.Villages)
	}
	fmt.Fprintf(w, "Total area covered: %.2f km²\n", s.TotalAreaKm2)
}

// PrintInspections writes the analyze pre-pass results.
func PrintInspections(w io.Writer, inspections []Inspection) {
	fmt.Fprintln(w, "Analyzing Sundarban shapefiles...")
	fmt.Fprintln(w, separator)

	for i := range inspections {
		in := &inspections[i]
		switch {
		case !in.Found:
			fmt.Fprintf(w, "%s: File not found\n", in.Input)
		case in.Err != nil:
			fmt.Fprintf(w, "Error reading %s: %v\n", in.Input, in.Err)
		default:
			fmt.Fprintf(w, "%s:\n", in.Input)
			fmt.Fprintf(w, "  - Features: %d\n", in.Features)
			fmt.Fprintf(w, "  - Columns: %s\n", formatColumns(in.Columns))
			fmt.Fprintf(w, "  - CRS: %s\n", in.CRS)
			if in.Sample != nil {
				fmt.Fprintln(w, "  - Sample feature attributes:")
				for _, col := range in.Columns {
					fmt.Fprintf(w, "    %s: %s\n", col, sampleValue(in.Sample, col))
				}
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w, separator)
}

func sampleValue(sample map[string]any, col string) string {
	v, ok := sample[col]
	if !ok || v == nil {
		return "N/A"
	}
	return table.FormatValue(v)
}
