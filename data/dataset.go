// Package data loads the tabular inputs the analyses consume: CSV datasets
// with named columns and YAML label dictionaries for recoding categorical
// fields.
package data

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// Dataset is an in-memory CSV table: a header naming every column plus the
// raw string cells. Typed access happens per column on demand.
type Dataset struct {
	Name    string
	Columns []string

	rows   [][]string
	colIdx map[string]int
}

// FromFile reads a headered CSV file into a Dataset
func FromFile(filename string) (*Dataset, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not READ dataset from %s", filename)
	}
	defer f.Close()

	ds, err := FromReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not PARSE dataset from %s", filename)
	}

	ext := filepath.Ext(filename)
	ds.Name = filepath.Base(filename[0 : len(filename)-len(ext)])
	return ds, nil
}

// FromReader reads headered CSV content from the given reader
func FromReader(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "Could not read CSV header")
	}
	if len(header) < 1 {
		return nil, errors.New("CSV header is empty")
	}

	ds := &Dataset{
		Columns: header,
		colIdx:  make(map[string]int, len(header)),
	}
	for i, c := range header {
		if _, ok := ds.colIdx[c]; ok {
			return nil, errors.Errorf("Duplicate column %s in CSV header", c)
		}
		ds.colIdx[c] = i
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "CSV parse failure at row %d", len(ds.rows)+2)
		}
		ds.rows = append(ds.rows, rec)
	}

	if len(ds.rows) < 1 {
		return nil, errors.New("CSV contains no data rows")
	}

	return ds, nil
}

// Len returns the number of data rows
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Column returns the raw string cells of one named column
func (d *Dataset) Column(name string) ([]string, error) {
	idx, ok := d.colIdx[name]
	if !ok {
		return nil, errors.Errorf("No column %s in dataset %s", name, d.Name)
	}

	out := make([]string, len(d.rows))
	for i, row := range d.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Float parses one named column as float64 measurements
func (d *Dataset) Float(name string) ([]float64, error) {
	raw, err := d.Column(name)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(raw))
	for i, cell := range raw {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Column %s row %d is not numeric: %q", name, i+2, cell)
		}
		out[i] = v
	}
	return out, nil
}

// Encode maps one categorical column to dense integer codes in order of
// first appearance, returning the per-row codes and the ordered labels.
func (d *Dataset) Encode(name string) ([]int, []string, error) {
	raw, err := d.Column(name)
	if err != nil {
		return nil, nil, err
	}

	byLabel := make(map[string]int)
	var labels []string
	codes := make([]int, len(raw))
	for i, cell := range raw {
		code, ok := byLabel[cell]
		if !ok {
			code = len(labels)
			byLabel[cell] = code
			labels = append(labels, cell)
		}
		codes[i] = code
	}

	return codes, labels, nil
}

// Grouped extracts a numeric measurement column alongside the encoded group
// column: the standard shape the grouped models consume.
func (d *Dataset) Grouped(groupCol, valueCol string) ([]float64, []int, []string, error) {
	values, err := d.Float(valueCol)
	if err != nil {
		return nil, nil, nil, err
	}

	groups, labels, err := d.Encode(groupCol)
	if err != nil {
		return nil, nil, nil, err
	}

	return values, groups, labels, nil
}

// Relabel rewrites a coded categorical column in place using the dictionary
// entry for the given field. Cells must parse as integer codes known to the
// dictionary.
func (d *Dataset) Relabel(dict Dictionary, field string) error {
	idx, ok := d.colIdx[field]
	if !ok {
		return errors.Errorf("No column %s in dataset %s", field, d.Name)
	}

	for i, row := range d.rows {
		code, err := strconv.Atoi(row[idx])
		if err != nil {
			return errors.Wrapf(err, "Column %s row %d is not an integer code: %q", field, i+2, row[idx])
		}
		label, err := dict.LabelFor(field, code)
		if err != nil {
			return err
		}
		row[idx] = label
	}

	return nil
}
