// Package data loads wide-format time series for bar chart races: one row
// per period, one column per category.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	ErrEmpty  = errors.New("data: no periods")
	ErrRagged = errors.New("data: row width does not match header")
)

// Table holds the values of every category at every period.
// Missing cells are NaN.
type Table struct {
	IndexName string
	Index     []string
	Columns   []string
	Values    [][]float64 // Values[period][column]
}

// Periods returns the number of rows.
func (t *Table) Periods() int {
	return len(t.Index)
}

// Max returns the largest non-missing value in the table.
func (t *Table) Max() float64 {
	max := math.Inf(-1)
	for _, row := range t.Values {
		for _, v := range row {
			if !math.IsNaN(v) && v > max {
				max = v
			}
		}
	}
	if math.IsInf(max, -1) {
		return 0
	}
	return max
}

// LoadFile reads a CSV table from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadCSV reads a header row followed by one row per period. The first
// column is the period index; empty cells become NaN.
func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header needs an index column and at least one category, got %d columns", len(header))
	}

	t := &Table{
		IndexName: header[0],
		Columns:   header[1:],
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}
		line++

		if len(record) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, want %d: %w", line, len(record), len(header), ErrRagged)
		}

		row := make([]float64, len(t.Columns))
		for i, cell := range record[1:] {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", line, t.Columns[i], err)
			}
			row[i] = v
		}

		t.Index = append(t.Index, record[0])
		t.Values = append(t.Values, row)
	}

	if len(t.Index) == 0 {
		return nil, ErrEmpty
	}

	return t, nil
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
}
