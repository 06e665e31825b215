package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// readSamples parses a CSV sample file: one sample per row, N coordinate
// columns followed by the value column. A single non-numeric header row is
// skipped.
func readSamples(path string) (coords [][]float64, values []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.TrimLeadingSpace = true

	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line++

		if len(record) < 2 {
			return nil, nil, fmt.Errorf("%s:%d: need at least one coordinate and a value", path, line)
		}

		row := make([]float64, len(record))
		ok := true
		for i, field := range record {
			v, perr := strconv.ParseFloat(field, 64)
			if perr != nil {
				ok = false
				break
			}
			row[i] = v
		}
		if !ok {
			if line == 1 {
				continue // header row
			}
			return nil, nil, fmt.Errorf("%s:%d: non-numeric field", path, line)
		}

		coords = append(coords, row[:len(row)-1])
		values = append(values, row[len(row)-1])
	}

	if len(coords) == 0 {
		return nil, nil, fmt.Errorf("%s: no samples", path)
	}
	return coords, values, nil
}

// parsePoint parses a comma-separated coordinate vector, e.g. "0.5,1,2.25".
func parsePoint(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	point := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", f, err)
		}
		point[i] = v
	}
	return point, nil
}
